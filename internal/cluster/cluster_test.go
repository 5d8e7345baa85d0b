/*
 * Sim-D cluster test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package cluster

import (
	"testing"

	"github.com/simd-sim/simd/internal/dram"
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/memreq"
	"github.com/simd-sim/simd/internal/scratchpad"
	"github.com/simd-sim/simd/internal/workgroup"
)

func testConfig() Config {
	return Config{
		Lanes: 4, Threads: 4, RCPUs: 1,
		CstackDepth: 4, PipeStages: 3, ScoreboardEntries: 8,
		DRAM: dram.DefaultConfig(), SP: scratchpad.DefaultConfig(),
	}
}

func TestClusterRunsExitOnlyKernelToCompletion(t *testing.T) {
	prog := []isa.Instruction{{Op: isa.OpEXIT}}
	// One work-group exactly Threads wide: the whole grid is a single
	// work-group, one warp column (Threads/Lanes == 1).
	c := New(testConfig(), prog, 4, 1, 4)

	if c.Done() {
		t.Fatal("a freshly constructed cluster with pending work must not be Done()")
	}

	for i := 0; i < 50 && !c.Done(); i++ {
		c.Step()
	}
	if !c.Done() {
		t.Fatal("cluster never reached Done() after 50 cycles running an EXIT-only kernel")
	}
}

func TestClusterDispatchesSecondWorkGroupAfterFirstExits(t *testing.T) {
	prog := []isa.Instruction{{Op: isa.OpEXIT}}
	// Two work-groups stacked along Y, each Threads wide.
	c := New(testConfig(), prog, 4, 2, 4)

	for i := 0; i < 100 && !c.Done(); i++ {
		c.Step()
	}
	if !c.Done() {
		t.Fatal("cluster never reached Done() running two sequential EXIT-only work-groups")
	}
}

func TestResolveOperandBindsSlotAndColumnForVectorRegisters(t *testing.T) {
	src := isa.RegOperand(isa.NewVector(0, isa.KindVGPR, 2, 0))
	got := resolveOperand(src, 1, 3)
	if got.Reg.Slot != 1 || got.Reg.Col != 3 {
		t.Fatalf("resolveOperand = %+v, want slot=1 col=3", got.Reg)
	}
}

func TestResolveOperandLeavesScalarColumnAtZero(t *testing.T) {
	src := isa.RegOperand(isa.NewScalar(0, isa.KindSGPR, 5))
	got := resolveOperand(src, 1, 3)
	if got.Reg.Slot != 1 || got.Reg.Col != 0 {
		t.Fatalf("resolveOperand = %+v, want slot=1 col=0 (scalar ignores warp column)", got.Reg)
	}
}

func TestResolveOperandLeavesImmediatesUntouched(t *testing.T) {
	src := isa.ImmOperand(7)
	got := resolveOperand(src, 1, 3)
	if got.Kind != isa.OperandImm || got.Imm != 7 {
		t.Fatalf("resolveOperand(imm) = %+v, want unchanged immediate 7", got)
	}
}

func TestBroadcastWordFillsAllLanes(t *testing.T) {
	c := New(testConfig(), nil, 4, 1, 4)
	data := c.broadcastWord(42)
	if len(data) != c.cfg.Lanes {
		t.Fatalf("broadcastWord length = %d, want %d", len(data), c.cfg.Lanes)
	}
	for i, v := range data {
		if v != 42 {
			t.Errorf("lane %d = %d, want 42", i, v)
		}
	}
}

func TestBindBuffersStorePerFrontEndGeometry(t *testing.T) {
	c := New(testConfig(), nil, 4, 1, 4)

	dramBuf := Buffer{Geometry: memreq.Geometry{Valid: true, Addr: 0x1000, DimX: 8, DimY: 8}, DimX: 8, DimY: 8}
	spBuf0 := Buffer{Geometry: memreq.Geometry{Valid: true, Addr: 0x10, DimX: 4, DimY: 1}, DimX: 4, DimY: 1}
	spBuf1 := Buffer{Geometry: memreq.Geometry{Valid: true, Addr: 0x20, DimX: 4, DimY: 1}, DimX: 4, DimY: 1}

	c.BindDRAMBuffer(dramBuf)
	c.BindSPBuffer(0, spBuf0)
	c.BindSPBuffer(1, spBuf1)

	if c.bufDRAM != dramBuf {
		t.Fatalf("bufDRAM = %+v, want %+v", c.bufDRAM, dramBuf)
	}
	if c.bufSP[0] != spBuf0 {
		t.Fatalf("bufSP[0] = %+v, want %+v", c.bufSP[0], spBuf0)
	}
	if c.bufSP[1] != spBuf1 {
		t.Fatalf("bufSP[1] = %+v, want %+v", c.bufSP[1], spBuf1)
	}
}

func TestActiveMaskReflectsCtrlRunRegister(t *testing.T) {
	c := New(testConfig(), nil, 4, 1, 4)

	reg := isa.NewVector(0, isa.KindVSP, isa.VSPCtrlRun, 0)
	if err := c.rf.Write(reg, []uint32{1, 0, 1, 0}, 0xf, true); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := c.activeMask(0, 0)
	want := uint32(0x5) // lanes 0 and 2
	if got != want {
		t.Fatalf("activeMask = %#x, want %#x", got, want)
	}
}

func TestOtherRunnableSlotPrefersCurrentWhenRunning(t *testing.T) {
	var a, b workgroup.Slot
	_ = a.Assign(workgroup.ID{})
	a.Issue()
	_ = b.Assign(workgroup.ID{})
	b.Issue()

	slots := [2]*workgroup.Slot{&a, &b}
	if got := otherRunnableSlot(slots, 0); got != 0 {
		t.Fatalf("otherRunnableSlot = %d, want 0 (current slot still running)", got)
	}
}

func TestOtherRunnableSlotSwitchesWhenCurrentNotRunning(t *testing.T) {
	var a, b workgroup.Slot
	_ = b.Assign(workgroup.ID{})
	b.Issue()

	slots := [2]*workgroup.Slot{&a, &b}
	if got := otherRunnableSlot(slots, 0); got != 1 {
		t.Fatalf("otherRunnableSlot = %d, want 1 (slot 0 idle, slot 1 running)", got)
	}
}

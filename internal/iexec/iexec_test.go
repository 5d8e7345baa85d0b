/*
 * Sim-D IExecute test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package iexec

import (
	"testing"

	"github.com/simd-sim/simd/internal/cstack"
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/memreq"
)

func testConfig() Config {
	return Config{Lanes: 4, Threads: 32, CstackDepth: 4, PipeStages: 3}
}

func bubble() isa.Instruction {
	var op isa.Instruction
	op.MarkDead()
	return op
}

func stepBubbles(x *IExecute, n int) CycleOutput {
	var out CycleOutput
	for i := 0; i < n; i++ {
		out = x.Step(CycleInput{Insn: bubble()})
	}
	return out
}

func TestScalarALUCommitsAfterPipeStagesDelay(t *testing.T) {
	x := New(testConfig())
	op := isa.Instruction{
		Op: isa.OpADD, NumSrc: 2, HasDst: true, Slot: 0,
		Dst: isa.RegOperand(isa.NewScalar(0, isa.KindSGPR, 3)),
	}
	x.Step(CycleInput{
		Insn:    op,
		Operand: [3][]uint32{{7, 0, 0, 0}, {5, 0, 0, 0}},
	})

	// The ringbuffer evicts an entry written at call k on call
	// k+PipeStages-1, so PipeStages-1 bubble cycles bring it out.
	out := stepBubbles(x, testConfig().PipeStages-1)

	if out.Insn.Op != isa.OpADD {
		t.Fatalf("expected ADD to commit, got %+v", out.Insn)
	}
	if !out.OutW {
		t.Fatal("ADD commit should assert a register write")
	}
	if out.DataW[0] != 12 {
		t.Fatalf("7+5 = %d, want 12", out.DataW[0])
	}
	if out.ReqW.Row != 3 || out.ReqW.Kind != isa.KindSGPR {
		t.Fatalf("unexpected destination register %+v", out.ReqW)
	}
}

func TestCMASKWritesInvertedPredicate(t *testing.T) {
	x := New(testConfig())
	op := isa.Instruction{
		Op: isa.OpCMASK, NumSrc: 1, HasDst: true, Slot: 0, ColW: 0,
		Dst: isa.RegOperand(isa.NewVector(0, isa.KindVSP, isa.VSPCtrlRun, 0)),
	}
	x.Step(CycleInput{Insn: op, Operand: [3][]uint32{{1, 0, 1, 0}}})
	out := stepBubbles(x, testConfig().PipeStages-1)

	if !out.OutW {
		t.Fatal("CMASK commit should assert a register write")
	}
	want := [4]uint32{0, 1, 0, 1}
	for i, w := range want {
		if out.DataW[i] != w {
			t.Fatalf("lane %d = %d, want %d (predicate %v inverted)", i, out.DataW[i], w, []uint32{1, 0, 1, 0})
		}
	}
}

func TestBRAPushesFallthroughAndRedirectsPC(t *testing.T) {
	x := New(testConfig())
	op := isa.Instruction{
		Op: isa.OpBRA, NumSrc: 2, HasDst: true, Slot: 0, ColW: 0,
		Dst: isa.RegOperand(isa.NewVector(0, isa.KindVSP, isa.VSPCtrlRun, 0)),
		Src: [3]isa.Operand{
			isa.LabelOperand(40),
			isa.RegOperand(isa.NewVector(0, isa.KindPR, 0, 0)),
		},
	}
	op.SetCommit(true)

	x.Step(CycleInput{PC: 9, Insn: op, Operand: [3][]uint32{{}, {1, 0, 0, 0}}})
	out := stepBubbles(x, testConfig().PipeStages-1)

	if !out.PCDoW || out.PCW != 40 {
		t.Fatalf("BRA should redirect PC to its label target, got PCDoW=%v PCW=%d", out.PCDoW, out.PCW)
	}
	if out.CStackAction != cstack.Push {
		t.Fatalf("BRA should push a control-stack entry, got action %v", out.CStackAction)
	}
	if out.CStackEntry.PC != 10 {
		t.Fatalf("pushed fall-through PC = %d, want 10 (issue PC + 1)", out.CStackEntry.PC)
	}
	if out.CStackEntry.Type != cstack.MaskRun {
		t.Fatalf("BRA's push must carry MaskRun, got %v", out.CStackEntry.Type)
	}
	if out.DataW[0] != 0 {
		t.Fatalf("ctrl_run lane 0 should be 0 (predicate 1 inverted), got %d", out.DataW[0])
	}
}

func TestCPOPRestoresPCAndWritesIgnoringActiveMask(t *testing.T) {
	x := New(testConfig())
	top := cstack.Entry{Mask: isa.NewMask(32), PC: 17, Type: cstack.MaskBreak}
	top.Mask.SetLaneWord(0, 4, 0b1010)

	op := isa.Instruction{Op: isa.OpCPOP, Slot: 0, ColW: 0}
	op.SetCommit(true)

	x.Step(CycleInput{Insn: op, CStackTop: top})
	out := stepBubbles(x, testConfig().PipeStages-1)

	if !out.PCDoW || out.PCW != 17 {
		t.Fatalf("CPOP should restore the popped PC, got PCDoW=%v PCW=%d", out.PCDoW, out.PCW)
	}
	if out.CStackAction != cstack.Pop {
		t.Fatalf("CPOP should pop the control stack, got action %v", out.CStackAction)
	}
	if !out.IgnoreMaskW {
		t.Fatal("CPOP's write must ignore the natural active-thread mask")
	}
	if out.ReqW.Kind != isa.KindVSP || out.ReqW.Row != isa.VSPCtrlBreak {
		t.Fatalf("CPOP of a MaskBreak entry should write ctrl_break, got %+v", out.ReqW)
	}
	want := [4]uint32{0, 1, 0, 1}
	for i, w := range want {
		if out.DataW[i] != w {
			t.Fatalf("lane %d = %d, want %d", i, out.DataW[i], w)
		}
	}
}

func TestSIDIVHoldsSidebufForExtraCycles(t *testing.T) {
	cfg := testConfig()
	cfg.PipeStages = 4 // hold = max(8-4,0) = 4 extra cycles before splicing into the ring
	x := New(cfg)
	op := isa.Instruction{
		Op: isa.OpSIDIV, NumSrc: 2, HasDst: true, Slot: 0,
		Dst: isa.RegOperand(isa.NewScalar(0, isa.KindSGPR, 1)),
	}
	x.Step(CycleInput{Insn: op, Operand: [3][]uint32{{20, 0, 0, 0}, {3, 0, 0, 0}}})

	hold := 8 - cfg.PipeStages
	total := hold + cfg.PipeStages - 1 // cycles after issue before the spliced entry commits

	// A regular op would have committed after cfg.PipeStages-1 cycles; SIDIV
	// must still be in flight at that point.
	out := stepBubbles(x, cfg.PipeStages-1)
	if out.Insn.Op == isa.OpSIDIV {
		t.Fatal("SIDIV must not commit before the sidebuf hold elapses")
	}

	out = stepBubbles(x, total-(cfg.PipeStages-1))
	if out.Insn.Op != isa.OpSIDIV {
		t.Fatalf("expected SIDIV to commit after the sidebuf hold, got %+v", out.Insn)
	}
	if out.DataW[0] != 6 {
		t.Fatalf("20/3 = %d, want 6", out.DataW[0])
	}
}

func TestMemoryOpBuildsStrideDescriptor(t *testing.T) {
	x := New(testConfig())
	op := isa.Instruction{
		Op: isa.OpLDGLIN, NumSrc: 2, HasDst: true, Slot: 0, ColW: 1,
		Dst: isa.RegOperand(isa.NewVector(0, isa.KindVGPR, 2, 1)),
		Src: [3]isa.Operand{isa.ImmOperand(0), isa.ImmOperand(16)},
	}
	x.Step(CycleInput{
		Insn:    op,
		Operand: [3][]uint32{{}, {16, 0, 0, 0}},
	})
	out := stepBubbles(x, testConfig().PipeStages-1)

	if out.StoreTarget != memreq.IfDRAM {
		t.Fatalf("LDGLIN should target DRAM, got %v", out.StoreTarget)
	}
	if out.DescFIFO.Write {
		t.Fatal("LDGLIN must not mark the descriptor as a store")
	}
	if out.DescFIFO.Addr != 16 {
		t.Fatalf("descriptor address = %d, want base 0 + offset 16", out.DescFIFO.Addr)
	}
}

func TestMemoryOpCIDXUsesSSPStrideDescriptor(t *testing.T) {
	x := New(testConfig())
	op := isa.Instruction{
		Op: isa.OpLDGCIDX, NumSrc: 2, HasDst: true, Slot: 0, ColW: 0,
		Dst: isa.RegOperand(isa.NewVector(0, isa.KindVGPR, 2, 0)),
		Src: [3]isa.Operand{isa.ImmOperand(0), isa.ImmOperand(0)},
	}
	x.Step(CycleInput{
		Insn:       op,
		Operand:    [3][]uint32{{}, {0, 0, 0, 0}},
		XlatPhys:   memreq.Geometry{Valid: true, Addr: 256},
		SD:         [2]memreq.Descriptor{{Words: 7, Period: 13, PeriodCount: 5}},
	})
	out := stepBubbles(x, testConfig().PipeStages-1)

	if out.DescFIFO.Addr != 256 {
		t.Fatalf("CIDX descriptor address = %d, want 256 (from XlatPhys)", out.DescFIFO.Addr)
	}
	if out.DescFIFO.Words != 7 || out.DescFIFO.Period != 13 || out.DescFIFO.PeriodCount != 5 {
		t.Fatalf("CIDX descriptor geometry = %+v, want the SD[slot] stride triple", out.DescFIFO)
	}
}

func TestMemoryOpBIDXSweepsWholeBoundBuffer(t *testing.T) {
	x := New(testConfig())
	op := isa.Instruction{
		Op: isa.OpLDGBIDX, NumSrc: 2, HasDst: true, Slot: 0, ColW: 0,
		Dst: isa.RegOperand(isa.NewVector(0, isa.KindVGPR, 2, 0)),
		Src: [3]isa.Operand{isa.ImmOperand(0), isa.ImmOperand(0)},
	}
	x.Step(CycleInput{
		Insn:     op,
		Operand:  [3][]uint32{{}, {0, 0, 0, 0}},
		XlatPhys: memreq.Geometry{Valid: true, Addr: 512, DimX: 8, DimY: 4},
	})
	out := stepBubbles(x, testConfig().PipeStages-1)

	if out.DescFIFO.Addr != 512 {
		t.Fatalf("BIDX descriptor address = %d, want 512 (buffer base)", out.DescFIFO.Addr)
	}
	if out.DescFIFO.Words != 32 || out.DescFIFO.Period != 32 || out.DescFIFO.PeriodCount != 1 {
		t.Fatalf("BIDX descriptor geometry = %+v, want a single dense sweep of DimX*DimY=32 words", out.DescFIFO)
	}
}

func TestMemoryOpIDXITPacksPerLaneIndices(t *testing.T) {
	x := New(testConfig())
	op := isa.Instruction{
		Op: isa.OpLDGIDXIT, NumSrc: 2, HasDst: true, Slot: 0, ColW: 0,
		Dst: isa.RegOperand(isa.NewVector(0, isa.KindVGPR, 2, 0)),
		Src: [3]isa.Operand{isa.ImmOperand(0), isa.RegOperand(isa.NewVector(0, isa.KindVSP, isa.VSPMemIdx, 0))},
	}
	x.Step(CycleInput{
		Insn:     op,
		Operand:  [3][]uint32{{}, {3, 1, 9, 0}},
		XlatPhys: memreq.Geometry{Valid: true, Addr: 1024},
	})
	out := stepBubbles(x, testConfig().PipeStages-1)

	if out.DescFIFO.Kind != memreq.KindIdxIt {
		t.Fatalf("IDXIT descriptor kind = %v, want KindIdxIt", out.DescFIFO.Kind)
	}
	if out.DescFIFO.Addr != 1024 {
		t.Fatalf("IDXIT descriptor address = %d, want 1024 (buffer base)", out.DescFIFO.Addr)
	}
	want := []uint32{3, 1, 9, 0}
	if len(out.DescFIFO.Indices) != len(want) {
		t.Fatalf("IDXIT descriptor indices = %v, want %v", out.DescFIFO.Indices, want)
	}
	for i, v := range want {
		if out.DescFIFO.Indices[i] != v {
			t.Fatalf("IDXIT descriptor indices = %v, want %v", out.DescFIFO.Indices, want)
		}
	}
}

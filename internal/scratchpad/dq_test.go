/*
 * Sim-D scratchpad DQ scheduler test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package scratchpad

import (
	"testing"

	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/memreq"
)

func TestDQReadHasOneCycleDelayToRF(t *testing.T) {
	cfg := DefaultConfig()
	arr := NewArray(cfg)
	arr.SetWord(0, 0xfeedface)

	dq := NewDQ(cfg)
	dst := isa.NewVector(0, isa.KindVGPR, 2, 0)
	dq.Push(BurstRequest{Addr: 0, WordMask: 0x1, Last: true, Desc: memreq.Descriptor{Dst: dst}})

	if out := dq.Step(arr); len(out) != 0 {
		t.Fatalf("cycle 0: got %d writebacks, want 0 (read must hold one cycle)", len(out))
	}
	if dq.Done() {
		t.Error("cycle 0: Done must not fire before the read is emitted")
	}

	out := dq.Step(arr)
	if len(out) != 1 {
		t.Fatalf("cycle 1: writebacks = %d, want 1", len(out))
	}
	if out[0].Word != 0xfeedface {
		t.Errorf("writeback word = %#x, want 0xfeedface", out[0].Word)
	}
	if out[0].Reg != dst {
		t.Errorf("writeback reg = %+v, want %+v", out[0].Reg, dst)
	}
	if !dq.Done() {
		t.Error("cycle 1: Done must fire once the Last burst's read is emitted")
	}
}

func TestDQWriteCommitsAfterTwoCycleDelay(t *testing.T) {
	cfg := DefaultConfig()
	arr := NewArray(cfg)

	dq := NewDQ(cfg)
	dq.Push(BurstRequest{
		Addr: 4, Write: true, WordMask: 0x1, Last: true,
		Desc: memreq.Descriptor{Data: []uint32{0xaabbccdd}},
	})

	dq.Step(arr)
	if w := arr.GetWord(4); w != 0 {
		t.Fatalf("word committed too early (cycle 0): got %#x", w)
	}
	dq.Step(arr)
	if w := arr.GetWord(4); w != 0 {
		t.Fatalf("word committed too early (cycle 1): got %#x", w)
	}
	dq.Step(arr)
	if w := arr.GetWord(4); w != 0xaabbccdd {
		t.Fatalf("word after two-cycle delay = %#x, want 0xaabbccdd", w)
	}
	if !dq.Done() {
		t.Error("Done must fire on the cycle the Last write commits")
	}
}

func TestDQIdleProducesNoWritebacks(t *testing.T) {
	dq := NewDQ(DefaultConfig())
	arr := NewArray(DefaultConfig())
	if out := dq.Step(arr); len(out) != 0 {
		t.Fatalf("empty DQ produced %d writebacks, want 0", len(out))
	}
}

/*
 * Sim-D scratchpad controller test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package scratchpad

import (
	"testing"

	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/memreq"
)

func TestControllerStoreThenLoadRoundTrip(t *testing.T) {
	c := New(DefaultConfig())
	dst := isa.NewVector(0, isa.KindVGPR, 4, 0)

	c.Push(memreq.Descriptor{
		Addr: 0, Words: 1, Period: 1, PeriodCount: 1,
		Write: true, Data: []uint32{0x5a5a5a5a},
	})
	c.Push(memreq.Descriptor{
		Addr: 0, Words: 1, Period: 1, PeriodCount: 1,
		Dst: dst,
	})

	var got *Writeback
	for i := 0; i < 100 && got == nil; i++ {
		for _, wb := range c.Step() {
			wb := wb
			if wb.Valid {
				got = &wb
			}
		}
	}

	if got == nil {
		t.Fatal("no writeback observed for the load within 100 cycles")
	}
	if got.Word != 0x5a5a5a5a {
		t.Errorf("writeback word = %#x, want 0x5a5a5a5a", got.Word)
	}
	if got.Reg != dst {
		t.Errorf("writeback reg = %+v, want %+v", got.Reg, dst)
	}
}

func TestControllerIdleInitiallyAndWhileDraining(t *testing.T) {
	c := New(DefaultConfig())
	if !c.Idle() {
		t.Fatal("a freshly constructed controller must be idle")
	}

	c.Push(memreq.Descriptor{Addr: 0, Words: 1, Period: 1, PeriodCount: 1})
	if c.Idle() {
		t.Fatal("controller must not be idle immediately after a push")
	}

	for i := 0; i < 100 && !c.Idle(); i++ {
		c.Step()
	}
	if !c.Idle() {
		t.Fatal("controller never returned to idle after the only descriptor drained")
	}
}

/*
 * Sim-D scoreboard test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package scoreboard

import (
	"testing"

	"github.com/simd-sim/simd/internal/isa"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	sb := New(8, 2)
	r1 := isa.NewScalar(0, isa.KindSGPR, 1)
	r2 := isa.NewScalar(0, isa.KindSGPR, 2)

	sb.Enqueue(r1)
	sb.Enqueue(r2)
	if sb.Population(0) != 0x3 {
		t.Fatalf("population = %#x, want 0x3", sb.Population(0))
	}
	sb.Dequeue(&r1)
	if sb.Population(0) != 0x2 {
		t.Fatalf("population after dequeue = %#x, want 0x2", sb.Population(0))
	}
	sb.Dequeue(&r2)
	if sb.Population(0) != 0 {
		t.Fatalf("population after draining = %#x, want 0", sb.Population(0))
	}
}

func TestDequeueMismatchPanics(t *testing.T) {
	sb := New(8, 1)
	r1 := isa.NewScalar(0, isa.KindSGPR, 1)
	r2 := isa.NewScalar(0, isa.KindSGPR, 2)
	sb.Enqueue(r1)

	defer func() {
		if recover() == nil {
			t.Fatal("dequeue of wrong register must panic")
		}
	}()
	sb.Dequeue(&r2)
}

func TestOverflowPanics(t *testing.T) {
	sb := New(2, 1)
	sb.Enqueue(isa.NewScalar(0, isa.KindSGPR, 1))
	sb.Enqueue(isa.NewScalar(0, isa.KindSGPR, 2))

	defer func() {
		if recover() == nil {
			t.Fatal("enqueue past capacity must panic")
		}
	}()
	sb.Enqueue(isa.NewScalar(0, isa.KindSGPR, 3))
}

func TestUnderflowPanics(t *testing.T) {
	sb := New(8, 1)
	defer func() {
		if recover() == nil {
			t.Fatal("dequeue from empty scoreboard must panic")
		}
	}()
	sb.Dequeue(nil)
}

func TestCheckReadDetectsRAWHazard(t *testing.T) {
	sb := New(8, 1)
	r := isa.NewScalar(0, isa.KindSGPR, 4)
	sb.Enqueue(r)

	if !sb.CheckRead(0, r, false, 0xffffffff) {
		t.Fatal("pending write to same register must raise RAW hazard")
	}
	other := isa.NewScalar(0, isa.KindSGPR, 5)
	if sb.CheckRead(0, other, false, 0xffffffff) {
		t.Fatal("unrelated register must not hazard")
	}
}

func TestCheckReadRespectsStageMask(t *testing.T) {
	sb := New(8, 1)
	r := isa.NewScalar(0, isa.KindSGPR, 4)
	sb.Enqueue(r) // lands at ring position 0

	if sb.CheckRead(0, r, false, 0) {
		t.Fatal("masking out the only live position must suppress the hazard")
	}
	if !sb.CheckRead(0, r, false, 1) {
		t.Fatal("unmasking position 0 must restore the hazard")
	}
}

func TestCheckReadSlotsAreIndependent(t *testing.T) {
	sb := New(8, 2)
	r := isa.NewScalar(0, isa.KindSGPR, 4)
	sb.Enqueue(r)

	other := isa.NewScalar(1, isa.KindSGPR, 4)
	if sb.CheckRead(1, other, false, 0xffffffff) {
		t.Fatal("a pending write in slot 0 must not hazard a read in slot 1")
	}
}

func TestCheckReadSSPMatchIsConservative(t *testing.T) {
	sb := New(8, 1)
	sb.Enqueue(isa.NewScalar(0, isa.KindSSP, isa.SSPDimX))

	read := isa.NewScalar(0, isa.KindSSP, isa.SSPSDWords)
	if !sb.CheckRead(0, read, true, 0xffffffff) {
		t.Fatal("SSP-match bit must hazard against any live SSP entry, not just the same row")
	}
}

func TestCheckReadsThreePorts(t *testing.T) {
	sb := New(8, 1)
	a := isa.NewScalar(0, isa.KindSGPR, 1)
	b := isa.NewScalar(0, isa.KindSGPR, 2)
	sb.Enqueue(a)

	reqs := [3]ReadRequest{
		{Valid: true, Reg: a},
		{Valid: true, Reg: b},
		{Valid: false},
	}
	masks := [3]uint32{0xffffffff, 0xffffffff, 0xffffffff}
	raw := sb.CheckReads(0, reqs, masks)
	if !raw[0] {
		t.Error("port 0 should hazard on pending write to a")
	}
	if raw[1] {
		t.Error("port 1 should not hazard, b has no pending write")
	}
	if raw[2] {
		t.Error("invalid port 2 must never report a hazard")
	}
}

func TestCStackWritePendingGatesCPop(t *testing.T) {
	sb := New(8, 1)
	if sb.CPopStall(0) {
		t.Fatal("no pending CSTACK write, CPOP should not stall")
	}
	sb.EnqueueCStackWrite(0)
	if !sb.CPopStall(0) {
		t.Fatal("pending CSTACK write must stall CPOP")
	}
	sb.DequeueCStackWrite(0)
	if sb.CPopStall(0) {
		t.Fatal("CPOP should not stall once the CSTACK write retires")
	}
}

func TestCStackWriteUnderflowPanics(t *testing.T) {
	sb := New(8, 1)
	defer func() {
		if recover() == nil {
			t.Fatal("retiring a CSTACK write with none pending must panic")
		}
	}()
	sb.DequeueCStackWrite(0)
}

func TestNewRejectsMoreThan32Entries(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("scoreboard depth above 32 must panic")
		}
	}()
	New(33, 1)
}

func TestMaxEntriesUsedTracksHighWaterMark(t *testing.T) {
	sb := New(8, 1)
	sb.Enqueue(isa.NewScalar(0, isa.KindSGPR, 1))
	sb.Enqueue(isa.NewScalar(0, isa.KindSGPR, 2))
	sb.Dequeue(nil)
	sb.Enqueue(isa.NewScalar(0, isa.KindSGPR, 3))
	if sb.MaxEntriesUsed() != 2 {
		t.Fatalf("max entries used = %d, want 2", sb.MaxEntriesUsed())
	}
}

/*
 * Sim-D DRAM stride sequencer test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package dram

import (
	"testing"

	"github.com/simd-sim/simd/internal/memreq"
)

func TestStrideSequencerIdleWithEmptyFIFO(t *testing.T) {
	s := NewStrideSequencer()
	req, idle := s.Step(false)
	if req != nil || !idle {
		t.Fatalf("empty sequencer: req=%v idle=%v, want nil,true", req, idle)
	}
}

func TestStrideSequencerWalksOneDescriptorToCompletion(t *testing.T) {
	s := NewStrideSequencer()
	s.Push(memreq.Descriptor{Addr: 0, Words: 4, Period: 4, PeriodCount: 1})

	if req, idle := s.Step(false); req != nil || idle {
		t.Fatalf("fetch/init step: req=%v idle=%v, want nil,false", req, idle)
	}

	req, idle := s.Step(false)
	if req == nil {
		t.Fatal("running-stride step returned no burst request")
	}
	if idle {
		t.Fatal("sequencer reported idle while a burst was still in flight")
	}
	if req.Addr != 0 {
		t.Errorf("burst addr = %d, want 0", req.Addr)
	}
	if req.WordMask != 0xf {
		t.Errorf("word mask = %#x, want 0xf", req.WordMask)
	}
	if !req.Last {
		t.Error("single-burst descriptor must mark its only burst Last")
	}

	if req, idle := s.Step(false); req != nil || idle {
		t.Fatalf("wait-allpre step (not yet all-precharged): req=%v idle=%v, want nil,false", req, idle)
	}
	if req, idle := s.Step(true); req != nil || idle {
		t.Fatalf("wait-allpre step (all-precharged): req=%v idle=%v, want nil,false", req, idle)
	}
	if req, idle := s.Step(false); req != nil || !idle {
		t.Fatalf("drained sequencer: req=%v idle=%v, want nil,true", req, idle)
	}
}

func TestStrideSequencerSparsePeriodWordsMask(t *testing.T) {
	s := NewStrideSequencer()
	// end = addr + 4*(words + period*(period_count-1)) = 0 + 4*(2+4*1) = 24:
	// only 2 periods are walked, each contributing its first 2 of 4 words,
	// so bits {0,1,4,5} are live, not every period out to a full 16 words.
	s.Push(memreq.Descriptor{Addr: 0, Words: 2, Period: 4, PeriodCount: 2})

	s.Step(false) // fetch/init
	req, _ := s.Step(false)
	if req == nil {
		t.Fatal("expected a burst request")
	}
	if req.WordMask != 0x33 {
		t.Errorf("word mask = %#x, want 0x33", req.WordMask)
	}
}

func TestStrideSequencerUnalignedAddrAlignsBaseToBUSWIDTH(t *testing.T) {
	// Grounded on the spec's scenario C: an unaligned, sparse descriptor
	// must still start its first burst on a BUS_WIDTH-word boundary.
	s := NewStrideSequencer()
	s.Push(memreq.Descriptor{Addr: 0x140004, Words: 19, Period: 61, PeriodCount: 16})

	s.Step(false) // fetch/init
	req1, _ := s.Step(false)
	if req1 == nil {
		t.Fatal("expected first burst")
	}
	if req1.Addr != 0x140000 {
		t.Errorf("first burst addr = %#x, want 0x140000", req1.Addr)
	}
	if req1.WordMask != 0xfffe {
		t.Errorf("first burst word mask = %#x, want 0xfffe", req1.WordMask)
	}

	req2, _ := s.Step(false)
	if req2 == nil {
		t.Fatal("expected second burst")
	}
	if req2.Addr != 0x140040 {
		t.Errorf("second burst addr = %#x, want 0x140040", req2.Addr)
	}
	if req2.WordMask != 0x000f {
		t.Errorf("second burst word mask = %#x, want 0x000f", req2.WordMask)
	}
}

func TestStrideSequencerIdxItPopsOneIndexPerBurst(t *testing.T) {
	s := NewStrideSequencer()
	s.Push(memreq.Descriptor{
		Kind:    memreq.KindIdxIt,
		Addr:    0x1000,
		Indices: []uint32{0, 1, 20},
	})

	s.Step(false) // fetch/init

	req1, _ := s.Step(false)
	if req1 == nil {
		t.Fatal("expected first IDXIT burst")
	}
	if req1.Addr != 0x1000 || req1.WordMask != 0x1 {
		t.Errorf("first burst = addr %#x mask %#x, want addr 0x1000 mask 0x1", req1.Addr, req1.WordMask)
	}
	if req1.Last {
		t.Error("first of three IDXIT bursts must not be marked Last")
	}

	req2, _ := s.Step(false)
	if req2 == nil {
		t.Fatal("expected second IDXIT burst")
	}
	if req2.Addr != 0x1000 || req2.WordMask != 0x2 {
		t.Errorf("second burst = addr %#x mask %#x, want addr 0x1000 mask 0x2", req2.Addr, req2.WordMask)
	}

	req3, _ := s.Step(false)
	if req3 == nil {
		t.Fatal("expected third IDXIT burst")
	}
	// index 20 -> byte offset 0x50 -> addr 0x1050, base-aligned to 0x1040, lane 4.
	if req3.Addr != 0x1040 || req3.WordMask != 0x10 {
		t.Errorf("third burst = addr %#x mask %#x, want addr 0x1040 mask 0x10", req3.Addr, req3.WordMask)
	}
	if !req3.Last {
		t.Error("third (final) IDXIT burst must be marked Last")
	}
}

func TestStrideSequencerMultipleBurstsSpanTwoBUSWIDTHChunks(t *testing.T) {
	s := NewStrideSequencer()
	// 32 contiguous words needs two 16-word bursts.
	s.Push(memreq.Descriptor{Addr: 0, Words: 32, Period: 32, PeriodCount: 1})

	s.Step(false) // fetch/init

	req1, _ := s.Step(false)
	if req1 == nil {
		t.Fatal("expected first burst")
	}
	if req1.Last {
		t.Error("first of two bursts must not be marked Last")
	}
	if req1.Addr != 0 {
		t.Errorf("first burst addr = %d, want 0", req1.Addr)
	}

	req2, idle2 := s.Step(false)
	if req2 == nil {
		t.Fatal("expected second burst")
	}
	if idle2 {
		t.Fatal("sequencer reported idle with a burst still pending")
	}
	if req2.Addr != 64 {
		t.Errorf("second burst addr = %d, want 64", req2.Addr)
	}
	if !req2.Last {
		t.Error("second of two bursts must be marked Last")
	}
}

func TestStrideSequencerWriteFlagPropagates(t *testing.T) {
	s := NewStrideSequencer()
	s.Push(memreq.Descriptor{Addr: 0, Words: 1, Period: 1, PeriodCount: 1, Write: true})
	s.Step(false)
	req, _ := s.Step(false)
	if req == nil || !req.Write {
		t.Fatalf("expected a write burst, got %+v", req)
	}
}

/*
   Sim-D: DRAM stride sequencer.

   Grounded on original_source/src/mc/control/StrideSequencer.h's
   thread_lt() state machine (CMDGEN_ST_IDLE -> FETCH -> INIT_STATE ->
   RUNNING_STRIDE|RUNNING_IDXIT -> WAIT_ALLPRE -> IDLE). The original's
   per-lane phase/line LUTs exist to bound a hardware critical path to a
   single-overflow modulo; a software model can just compute "is this
   word active" directly from (address mod period), so those LUTs are
   dropped, and the skip-region optimisation becomes a loop in nextBurst
   that steps over every bus-width chunk with no live word.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package dram

import "github.com/simd-sim/simd/internal/memreq"

// busWidth is BUS_WIDTH from the original: the number of 32-bit words in
// one burst.
const busWidth = 16

// PrechargePolicy selects when CmdGen should close a row alongside a
// burst: LINEAR closes as soon as the next burst targets a different
// row (good for unit-stride sweeps), ALAP holds a row open until a
// different row in the same bank is actually needed.
type PrechargePolicy int

const (
	PrechargeLinear PrechargePolicy = iota
	PrechargeALAP
)

// BurstRequest is one BUS_WIDTH-word-aligned transfer the sequencer
// hands to CmdGen, grounded on mc_model::burst_request.
type BurstRequest struct {
	Addr     uint32
	AddrNext uint32
	Last     bool
	Write    bool
	WordMask uint32 // bit i set: word i of this burst is live

	PrePol PrechargePolicy
	Desc   memreq.Descriptor // originating descriptor (dst/offset geometry for writeback)
	WordBase int             // active words already transferred for Desc before this burst
}

type seqState int

const (
	seqIdle seqState = iota
	seqFetch
	seqInitState
	seqRunningStride
	seqRunningIdxIt
	seqWaitAllPre
)

// StrideSequencer converts a queue of stride descriptors into a stream
// of burst requests.
type StrideSequencer struct {
	state seqState
	fifo  []memreq.Descriptor

	cur      memreq.Descriptor
	addr     uint32
	end      uint32
	wordBase int
	idxPos   int
}

// NewStrideSequencer returns an idle sequencer with an empty FIFO.
func NewStrideSequencer() *StrideSequencer {
	return &StrideSequencer{state: seqIdle}
}

// Push enqueues a descriptor; CMDGEN_ST_FETCH reads it out in order.
func (s *StrideSequencer) Push(d memreq.Descriptor) {
	s.fifo = append(s.fifo, d)
}

// Step advances the sequencer one DRAM clock. allPre is the command
// arbiter's in_DQ_allpre signal: true once all banks touched by the
// active request are precharged, unblocking CMDGEN_ST_WAIT_ALLPRE.
// Returns a freshly generated burst request, if any, and whether the
// sequencer is idle (no request in flight and nothing queued).
func (s *StrideSequencer) Step(allPre bool) (*BurstRequest, bool) {
	switch s.state {
	case seqIdle:
		if len(s.fifo) == 0 {
			return nil, true
		}
		s.state = seqFetch
		fallthrough
	case seqFetch:
		s.cur = s.fifo[0]
		s.fifo = s.fifo[1:]
		s.state = seqInitState
		fallthrough
	case seqInitState:
		// end_addr = addr + 4*(words + period*(period_count-1)): the
		// last period is only walked out to its first Words words, not
		// a whole extra period.
		pcount := maxInt(s.cur.PeriodCount, 1)
		s.end = s.cur.Addr + uint32((s.cur.Words+s.cur.Period*(pcount-1))*4)
		// global_addr = addr & ~((BUS_WIDTH<<2)-1): bursts always start
		// on a BUS_WIDTH-word boundary, even when addr isn't.
		s.addr = s.cur.Addr &^ uint32(busWidth*4-1)
		s.wordBase = 0
		s.idxPos = 0
		if s.cur.Kind == memreq.KindIdxIt {
			s.state = seqRunningIdxIt
		} else {
			s.state = seqRunningStride
		}
		return nil, false

	case seqRunningStride:
		req := s.nextBurst()
		if req.Last {
			s.state = seqWaitAllPre
		}
		return &req, false

	case seqRunningIdxIt:
		req := s.nextIdxBurst()
		if req.Last {
			s.state = seqWaitAllPre
		}
		return &req, false

	case seqWaitAllPre:
		if allPre {
			s.state = seqIdle
		}
		return nil, false
	}
	return nil, false
}

// nextBurst computes the next BUS_WIDTH-word-aligned chunk of the
// active stride descriptor's address range, marking a word live iff its
// offset-from-start modulo Period falls within the first Words words of
// that period (the "period/words" strided-sparse pattern spec.md
// describes).
func (s *StrideSequencer) nextBurst() BurstRequest {
	var base, mask uint32
	words := 0
	period := maxInt(s.cur.Period, 1)

	// Chunks with no live word are stepped over rather than emitted, so a
	// sparse descriptor (Period well above Words) yields no empty bursts.
	for {
		base = s.addr
		for i := 0; i < busWidth; i++ {
			wordAddr := base + uint32(i*4)
			if wordAddr >= s.end || wordAddr < s.cur.Addr {
				continue
			}
			off := (wordAddr - s.cur.Addr) / 4
			if int(off)%period < s.cur.Words {
				mask |= 1 << uint(i)
				words++
			}
		}
		if mask != 0 || base+busWidth*4 >= s.end {
			break
		}
		s.addr = base + busWidth*4
	}

	next := base + busWidth*4
	req := BurstRequest{
		Addr:     base,
		Write:    s.cur.Write,
		WordMask: mask,
		PrePol:   PrechargeLinear,
		Desc:     s.cur,
		WordBase: s.wordBase,
	}
	s.wordBase += words

	if next >= s.end {
		req.AddrNext = 0xffffffff
		req.Last = true
	} else {
		req.AddrNext = next
	}
	s.addr = next

	return req
}

// nextIdxBurst pops one pre-resolved index off the active IDXIT
// descriptor's Indices and emits exactly one burst for it, with exactly
// one wordmask bit set: CMDGEN_ST_RUNNING_IDXIT reads one in_idx value
// per iteration and addresses a single BUS_WIDTH-aligned line with a
// single live word, rather than walking a period/words pattern.
func (s *StrideSequencer) nextIdxBurst() BurstRequest {
	if len(s.cur.Indices) == 0 {
		return BurstRequest{Last: true, Desc: s.cur, PrePol: PrechargeALAP}
	}

	addr := s.cur.Addr + s.cur.Indices[s.idxPos]*4
	base := addr &^ uint32(busWidth*4-1)
	lane := (addr - base) / 4

	req := BurstRequest{
		Addr:     base,
		Write:    s.cur.Write,
		WordMask: 1 << lane,
		PrePol:   PrechargeALAP,
		Desc:     s.cur,
		WordBase: s.idxPos,
	}
	s.idxPos++

	if s.idxPos >= len(s.cur.Indices) {
		req.AddrNext = 0xffffffff
		req.Last = true
	} else {
		next := s.cur.Addr + s.cur.Indices[s.idxPos]*4
		req.AddrNext = next &^ uint32(busWidth*4-1)
	}
	return req
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

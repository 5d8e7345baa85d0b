/*
   Sim-D: scratchpad stride sequencer.

   Grounded on original_source/src/sp/control/StrideSequencer.h's
   thread_lt() state machine (DQ_ST_IDLE -> FETCH -> INIT_STATE ->
   RUNNING -> WAIT_DONE). As with internal/dram's sequencer, the
   per-lane phase/line LUTs exist only to bound a hardware critical path
   and are replaced here by computing "is this word active" directly
   from (address mod period), and the skip-region optimisation becomes a
   loop in nextBurst that steps over chunks with no live word. Unlike
   the DRAM side, there is no
   precharge policy or bank-group bookkeeping to carry — the scratchpad
   has no banked activation, so every burst is handed straight to DQ.

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

package scratchpad

import "github.com/simd-sim/simd/internal/memreq"

// BurstRequest is one BusWidth-word-aligned transfer the sequencer hands
// to DQ, grounded on sp_model::DQ_reservation.
type BurstRequest struct {
	Addr     uint32
	Write    bool
	Last     bool
	WordMask uint32

	Desc     memreq.Descriptor
	WordBase int
}

type seqState int

const (
	seqIdle seqState = iota
	seqFetch
	seqInitState
	seqRunning
	seqWaitDone
)

// StrideSequencer converts a queue of stride descriptors into a stream
// of scratchpad burst requests, one per cycle while running.
type StrideSequencer struct {
	cfg   Config
	state seqState
	fifo  []memreq.Descriptor

	cur      memreq.Descriptor
	addr     uint32
	end      uint32
	wordBase int
}

// NewStrideSequencer returns an idle sequencer sized for cfg's bus width.
func NewStrideSequencer(cfg Config) *StrideSequencer {
	return &StrideSequencer{cfg: cfg, state: seqIdle}
}

// Push enqueues a descriptor; DQ_ST_FETCH reads it out in order.
func (s *StrideSequencer) Push(d memreq.Descriptor) {
	s.fifo = append(s.fifo, d)
}

// Step advances the sequencer one cycle. dqDone is DQ's out_done signal:
// true once the last burst's transfer has retired, unblocking
// DQ_ST_WAIT_DONE. Returns a freshly generated burst request, if any,
// and whether the sequencer is idle (no request in flight, nothing
// queued).
func (s *StrideSequencer) Step(dqDone bool) (*BurstRequest, bool) {
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
		// global_addr = addr & ~((BusWidth<<2)-1): bursts always start
		// on a BusWidth-word boundary, even when addr isn't.
		s.addr = s.cur.Addr &^ uint32(s.cfg.BusWidth*4-1)
		s.wordBase = 0
		s.state = seqRunning
		return nil, false

	case seqRunning:
		req := s.nextBurst()
		if req.Last {
			s.state = seqWaitDone
		}
		return &req, false

	case seqWaitDone:
		if dqDone {
			s.state = seqIdle
		}
		return nil, false
	}
	return nil, false
}

// nextBurst computes the next BusWidth-word-aligned chunk of the active
// descriptor's address range, marking a word live iff its offset from
// the descriptor's start, modulo Period, falls within the first Words
// words of that period.
func (s *StrideSequencer) nextBurst() BurstRequest {
	busWidth := s.cfg.BusWidth

	var base, mask uint32
	words := 0
	period := maxInt(s.cur.Period, 1)

	// Chunks with no live word are stepped over rather than emitted.
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
		if mask != 0 || base+uint32(busWidth*4) >= s.end {
			break
		}
		s.addr = base + uint32(busWidth*4)
	}

	next := base + uint32(busWidth*4)
	req := BurstRequest{
		Addr:     base,
		Write:    s.cur.Write,
		WordMask: mask,
		Desc:     s.cur,
		WordBase: s.wordBase,
	}
	s.wordBase += words

	if next >= s.end {
		req.Last = true
	}
	s.addr = next

	return req
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

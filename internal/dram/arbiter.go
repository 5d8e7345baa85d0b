/*
   Sim-D: DRAM command arbiter.

   Grounded on original_source/src/mc/control/CmdArb_DDR4.h: the five-
   tier priority order (CAS > pre-activate precharge > ACT > explicit
   precharge > refresh) and the refresh-interval counter/enqueue
   mechanism (refi_count/ref_enq, capped at 8 per JEDEC) are reproduced
   directly. RAMulator's DDR4 timing-bin `dram->check()`/`update()` calls
   are replaced with a direct per-bank/per-command last-issue-cycle
   ledger checked against timing.go's constants — round-robin fairness
   among same-priority candidates is dropped in favour of lowest-bank-
   index-first, since WCET optimality isn't a goal of this simulator.

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

import "math/bits"

// DQReservation is a scheduled data-path transfer, handed to DQ once
// issued: Cycle is the DRAM clock at which DQ takes up the transfer (CAS
// latency after a read's issue; CAS write latency minus two after a
// write's issue).
type DQReservation struct {
	Bank, Row, Col uint32
	Write          bool
	WordMask       uint32
	Cycle          int64
	Req            BurstRequest
}

// Stats accumulates the arbiter's WCET/energy-adjacent counters for
// `-s`/`-D` dumps.
type Stats struct {
	ActCount uint64
	CASCount uint64
	PreCount uint64
	RefCount uint64
	Bytes    uint64
}

// CmdArb schedules per-bank command queues onto the DRAM command bus,
// one command per cycle, subject to JEDEC timing and refresh.
type CmdArb struct {
	cfg Config

	lastAct       []int64
	lastPre       []int64
	lastCASRead   []int64
	lastCASWrite  []int64
	actHistory    []int64
	lastCASAny    int64
	lastCASBank   int

	refiCount    int
	refEnq       int
	lastRefCycle int64
	refFiniCycle int64
	allPreCycle  int64

	stats Stats
}

// NewCmdArb constructs an arbiter with every bank's timing ledger reset
// to "never issued".
func NewCmdArb(cfg Config) *CmdArb {
	a := &CmdArb{
		cfg:          cfg,
		lastAct:      make([]int64, cfg.Banks),
		lastPre:      make([]int64, cfg.Banks),
		lastCASRead:  make([]int64, cfg.Banks),
		lastCASWrite: make([]int64, cfg.Banks),
		lastCASAny:   minInt64,
		lastCASBank:  -1,
		lastRefCycle: minInt64,
		refFiniCycle: minInt64,
		allPreCycle:  minInt64,
	}
	for i := range a.lastAct {
		a.lastAct[i] = minInt64
		a.lastPre[i] = minInt64
		a.lastCASRead[i] = minInt64
		a.lastCASWrite[i] = minInt64
	}
	return a
}

const minInt64 = -1 << 62

// Stats returns the accumulated command-issue counters.
func (a *CmdArb) Stats() Stats { return a.stats }

func (a *CmdArb) bankGroup(bank uint32) uint32 { return bank & 1 }

func (a *CmdArb) actAdmissible(bank uint32, cycle int64) bool {
	t := &a.cfg.Timing
	if cycle < a.lastPre[bank]+int64(t.RP) {
		return false
	}
	count := 0
	for _, c := range a.actHistory {
		if c > cycle-int64(t.FAW) {
			count++
		}
	}
	if count >= 4 {
		return false
	}
	for b := range a.lastAct {
		if uint32(b) == bank || a.lastAct[b] == minInt64 {
			continue
		}
		req := t.RRDS
		if a.bankGroup(uint32(b)) == a.bankGroup(bank) {
			req = t.RRDL
		}
		if cycle-a.lastAct[b] < int64(req) {
			return false
		}
	}
	return true
}

func (a *CmdArb) casAdmissible(bank uint32, cycle int64) bool {
	t := &a.cfg.Timing
	if cycle < a.lastAct[bank]+int64(t.RCD) {
		return false
	}
	if a.lastCASAny != minInt64 {
		req := t.CCDS
		if a.lastCASBank >= 0 && a.bankGroup(uint32(a.lastCASBank)) == a.bankGroup(bank) {
			req = t.CCDL
		}
		if cycle-a.lastCASAny < int64(req) {
			return false
		}
	}
	return true
}

func (a *CmdArb) preAdmissible(bank uint32, cycle int64) bool {
	t := &a.cfg.Timing
	if a.lastCASRead[bank] != minInt64 && cycle < a.lastCASRead[bank]+int64(t.RTP) {
		return false
	}
	if a.lastCASWrite[bank] != minInt64 && cycle < a.lastCASWrite[bank]+int64(t.WR) {
		return false
	}
	if cycle < a.lastAct[bank]+int64(t.RAS) {
		return false
	}
	return true
}

func (a *CmdArb) refreshAdmissible(cycle int64, gen *CmdGen) bool {
	return gen.AllPrecharged() && cycle >= a.lastRefCycle+int64(a.cfg.Timing.RFC)
}

// refreshing reports whether a refresh issued earlier is still
// occupying the bus (out_ref).
func (a *CmdArb) refreshing(cycle int64) bool {
	return cycle < a.refFiniCycle
}

func (a *CmdArb) updateLID(cycle int64, gen *CmdGen) {
	if !gen.QueuesEmpty() {
		return
	}
	candidate := cycle + 2
	if candidate > a.allPreCycle {
		a.allPreCycle = candidate
	}
}

// Step arbitrates one DRAM clock: gathers the best admissible candidate
// in each of the four command categories, issues the highest-priority
// one found (CAS > pre-activate precharge > ACT > explicit precharge),
// falling back to a pending refresh when nothing else is ready, and
// advances the refresh-interval counter.
func (a *CmdArb) Step(cycle int64, gen *CmdGen) (DQReservation, bool) {
	bestRW, bestPrePre, bestAct, bestPre := -1, -1, -1, -1

	for b := 0; b < a.cfg.Banks; b++ {
		cmd, ok := gen.Peek(b)
		if !ok {
			continue
		}
		switch {
		case (cmd.Read || cmd.Write) && !cmd.Act:
			if bestRW < 0 && a.casAdmissible(uint32(b), cycle) {
				bestRW = b
			}
		case cmd.PrePre:
			if bestPrePre < 0 && a.preAdmissible(uint32(b), cycle) {
				bestPrePre = b
			}
		case cmd.Act:
			if bestAct < 0 && a.actAdmissible(uint32(b), cycle) {
				bestAct = b
			}
		case cmd.PrePost && !cmd.Read && !cmd.Write:
			if bestPre < 0 && a.preAdmissible(uint32(b), cycle) {
				bestPre = b
			}
		}
	}

	var res DQReservation
	ok := false

	switch {
	case bestRW >= 0:
		cmd, _ := gen.Peek(bestRW)
		gen.Pop(bestRW)

		a.lastCASAny = cycle
		a.lastCASBank = bestRW
		if cmd.Write {
			a.lastCASWrite[bestRW] = cycle
		} else {
			a.lastCASRead[bestRW] = cycle
		}
		a.stats.CASCount++
		a.stats.Bytes += uint64(bits.OnesCount32(cmd.WordMask)) * 4

		res = DQReservation{Bank: cmd.Bank, Row: cmd.Row, Col: cmd.Col, Write: cmd.Write, WordMask: cmd.WordMask, Req: cmd.Req}
		if cmd.Write {
			res.Cycle = cycle + int64(a.cfg.Timing.CWL) - 2
		} else {
			res.Cycle = cycle + int64(a.cfg.Timing.CAS)
		}
		ok = true

		if cmd.PrePost {
			a.updateLID(cycle, gen)
		}

	case bestPrePre >= 0:
		gen.ClearPrePre(bestPrePre)
		a.lastPre[bestPrePre] = cycle
		a.stats.PreCount++

	case bestAct >= 0:
		gen.ClearAct(bestAct)
		a.lastAct[bestAct] = cycle
		a.actHistory = append(a.actHistory, cycle)
		a.stats.ActCount++

	case bestPre >= 0:
		cmd, _ := gen.Peek(bestPre)
		gen.Pop(bestPre)
		a.lastPre[bestPre] = cycle
		a.stats.PreCount++
		a.updateLID(cycle, gen)
		_ = cmd

	case a.refEnq > 0 && a.refreshAdmissible(cycle, gen):
		a.lastRefCycle = cycle
		a.refFiniCycle = cycle + int64(a.cfg.Timing.RFC)
		a.refEnq--
		a.stats.RefCount++
	}

	a.refiCount++
	if a.refiCount >= a.cfg.Timing.REFI {
		a.refiCount -= a.cfg.Timing.REFI
		if a.refEnq < 8 {
			a.refEnq++
		}
	}

	return res, ok
}

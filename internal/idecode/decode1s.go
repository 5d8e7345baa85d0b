/*
   Sim-D: single-stage instruction decode, 3-read/1-write per cycle.

   Grounded on src/compute/control/IDecode_1S.h: represents the "perfect
   register file" case where all three operands can be fetched in one
   cycle. It stalls on a RAW hazard, on a busy execute resource, and on
   any bank conflict reported in its input Conflicts.

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

package idecode

import (
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/scoreboard"
)

// Decode1S is the single-stage decoder variant: it tries all of an
// instruction's operand reads in the same cycle it is considered.
type Decode1S struct {
	*Common

	op Instruction1SState
}

// Instruction1SState is the registered state carried from one cycle to
// the next: the in-flight instruction, its PC, and the retry mask applied
// to its operand reads.
type Instruction1SState struct {
	Op    isa.Instruction
	PC    int
	Retry [3]bool // true for a source whose read must be retried
}

// NewDecode1S constructs a single-stage decoder.
func NewDecode1S(cfg Config) *Decode1S {
	d := &Decode1S{Common: NewCommon(cfg)}
	d.op.Retry = [3]bool{true, true, true}
	return d
}

// PipelineStages reports this variant's fixed depth.
func (d *Decode1S) PipelineStages() int { return 1 }

// CycleInput bundles the signals the decoder reacts to in one cycle.
type CycleInput struct {
	Select       SelectInput
	WG           int
	RAW          [3]bool // from scoreboard.CheckReads
	Conflicts    [3]bool // from the register file's bank-conflict detector
	CPopStall    bool
	ResourceFree bool // true unless a downstream iexec resource is busy (decided by caller beyond SIDIV)
}

// CycleOutput bundles what the decoder drives this cycle.
type CycleOutput struct {
	PC                 int
	WG                 int
	ColW               int
	SubColW            int
	Insn               isa.Instruction
	Req                [3]scoreboard.ReadRequest
	ReqSB              [3]scoreboard.ReadRequest
	SSPMatch           bool
	EnqueueSB          bool
	DstReg             isa.Register
	EnqueueCStackWrite bool
	StallF             bool
	Stalled            bool
}

// Step runs one cycle of the single-stage decoder.
func (d *Decode1S) Step(in CycleInput) CycleOutput {
	op := d.op.Op
	pc := d.op.PC

	d.SelectOp(&op, &pc, in.Select)

	col := d.Col(&op)
	subcol := d.Subcol(&op)

	var req [3]scoreboard.ReadRequest
	for i := 0; i < op.NumSrc; i++ {
		if op.Dead() || !d.op.Retry[i] {
			continue
		}
		req[i] = ForwardReadReq(i, &op, col, subcol, in.WG)
	}

	d.ProcessImplicitDst(&op)

	out := CycleOutput{
		PC:       pc,
		WG:       in.WG,
		ColW:     col,
		SubColW:  subcol,
		Req:      req,
		ReqSB:    req,
		SSPMatch: blocksOnSSPWrites(&op),
	}

	var opRetry [3]bool
	for i := range opRetry {
		opRetry[i] = in.RAW[i] || in.Conflicts[i]
	}
	iexecResourceFree := d.CanIssue(&op, in.CPopStall) && in.ResourceFree
	d.DecrementSidivStallCounters()

	stalled := opRetry[0] || opRetry[1] || opRetry[2] || !iexecResourceFree
	if stalled {
		out.Insn = isa.Instruction{}
		out.Insn.MarkDead()
		out.StallF = true
		out.Stalled = true

		switch {
		case in.RAW[0] || in.RAW[1] || in.RAW[2]:
			d.stats.RawStalls++
		case in.Conflicts[0] || in.Conflicts[1] || in.Conflicts[2]:
			d.stats.BankConflictStalls++
		case !iexecResourceFree:
			d.stats.ResourceBusyStalls++
		}

		d.op.Op = op
		d.op.PC = pc
		d.op.Retry = opRetry
		return out
	}

	out.Insn = op
	if writesBack(&op) {
		out.EnqueueSB = true
		out.DstReg = DstRegister(&op, col, in.WG)
	}
	if enqueuesCStackWrite(&op) {
		out.EnqueueCStackWrite = true
	}

	if op.Op == isa.OpSIDIV || op.Op == isa.OpSIMOD {
		d.SetSidivStallCounters()
	}

	d.op.Retry = [3]bool{true, true, true}

	if d.activeWarp == d.lastWarp {
		out.StallF = false
		d.activeWarp = 0
	} else {
		out.StallF = true
		d.activeWarp++
	}

	d.op.Op = op
	d.op.PC = pc
	return out
}

// blocksOnSSPWrites reports whether op implicitly reads the stride-
// descriptor SSPs (the CIDX memory variants), and so must block on any
// outstanding SSP write regardless of which row is pending.
func blocksOnSSPWrites(op *isa.Instruction) bool {
	switch op.Op {
	case isa.OpLDGCIDX, isa.OpSTGCIDX, isa.OpLDSCIDX, isa.OpSTSCIDX:
		return true
	default:
		return false
	}
}

func writesBack(op *isa.Instruction) bool {
	if op.Dead() || isa.IsMemory(op.Op) {
		return false
	}
	return op.HasDst && (isa.CategoryOf(op.Op) != isa.CatRCP || op.Commit())
}

func enqueuesCStackWrite(op *isa.Instruction) bool {
	if op.Dead() {
		return false
	}
	switch op.Op {
	case isa.OpCPUSHIf, isa.OpCPUSHBrk, isa.OpCPUSHRet, isa.OpBRA, isa.OpCALL:
		return op.Commit()
	default:
		return false
	}
}

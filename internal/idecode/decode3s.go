/*
   Sim-D: three-stage instruction decode, one operand fetched per cycle.

   Grounded on src/compute/control/IDecode_3S.h: a 3-entry pipeline where
   stage i fetches source operand i, advancing a stage only when the next
   one is empty and its own previous read didn't hazard. Each stage
   carries a captured scoreboard-population mask (IDecode_pipe::req_sb_pop)
   that is ANDed down every cycle so a register doesn't hazard against the
   very instruction that will write it next.

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

// Pipe3S is one of the three decode pipeline registers.
type Pipe3S struct {
	Insn     isa.Instruction
	WG       int
	PC       int
	ColW     int
	SubColW  int
	ReqSBPop uint32 // population mask captured when this entry was created
}

// Empty reports whether this stage holds no live instruction.
func (p *Pipe3S) Empty() bool { return p.Insn.Dead() }

// Reset clears the stage back to an empty dead bubble, discarding its
// instruction along with its WG, PC, column and population mask.
func (p *Pipe3S) Reset() {
	p.Insn = isa.Instruction{}
	p.Insn.MarkDead()
	p.WG, p.PC, p.ColW, p.SubColW, p.ReqSBPop = 0, 0, 0, 0, 0
}

// Decode3S is the three-stage decoder variant.
type Decode3S struct {
	*Common

	pipe    [3]Pipe3S
	opRetry [3]bool
	stallF  bool // persists across cycles where op.Dead() leaves it untouched

	curOp isa.Instruction
	curPC int
}

// NewDecode3S constructs a three-stage decoder.
func NewDecode3S(cfg Config) *Decode3S {
	d := &Decode3S{Common: NewCommon(cfg)}
	for i := range d.pipe {
		d.pipe[i].Reset()
	}
	d.curOp.MarkDead()
	d.opRetry = [3]bool{true, true, true}
	return d
}

// PipelineStages reports this variant's fixed depth.
func (d *Decode3S) PipelineStages() int { return 3 }

// CycleInput3S bundles the signals the three-stage decoder reacts to.
type CycleInput3S struct {
	Select       SelectInput
	WG           int
	WGFinished   [2]bool
	EntriesPop   [2]uint32
	RAW          [3]bool
	Conflicts    [3]bool
	CPopStall    bool
	ResourceFree bool
}

// Step runs one cycle of the three-stage decoder.
func (d *Decode3S) Step(in CycleInput3S) CycleOutput {
	for wg, finished := range in.WGFinished {
		if finished {
			d.pipeInvalidateWG(wg)
		}
	}

	op := d.curOp
	pc := d.curPC
	d.SelectOp(&op, &pc, in.Select)

	for i := range d.pipe {
		d.pipe[i].ReqSBPop &= in.EntriesPop[d.pipe[i].WG]
	}

	var out CycleOutput

	if d.pipe[2].Empty() && !d.opRetry[1] {
		d.pipe[2] = d.pipe[1]
		d.pipe[1].Reset()

		out.PC = d.pipe[2].PC
		out.WG = d.pipe[2].WG
		out.ColW = d.pipe[2].ColW
		out.SubColW = d.pipe[2].SubColW
		d.opRetry[2] = true
	}

	if d.pipe[1].Empty() && !d.opRetry[0] {
		d.pipe[1] = d.pipe[0]
		d.pipe[0].Reset()
		d.opRetry[1] = true
	}

	switch {
	case op.Dead():
		out.EnqueueSB = false

	case d.pipe[0].Empty():
		col := d.Col(&op)
		subcol := d.Subcol(&op)
		d.pipe[0] = Pipe3S{Insn: op, WG: in.WG, PC: pc, ColW: col, SubColW: subcol, ReqSBPop: ^uint32(0)}
		d.opRetry[0] = true

		d.ProcessImplicitDst(&d.pipe[0].Insn)

		if !d.pipe[0].Insn.OnScoreboard() {
			out.EnqueueSB = writesBack(&d.pipe[0].Insn)
			if out.EnqueueSB {
				d.pipe[0].Insn.SetOnScoreboard(true)
				out.DstReg = DstRegister(&d.pipe[0].Insn, col, in.WG)
			}
		}

		if d.activeWarp == d.lastWarp {
			d.stallF = false
			d.activeWarp = 0
		} else {
			d.stallF = true
			d.activeWarp++
		}

	default:
		switch {
		case in.RAW[0] || in.RAW[1] || in.RAW[2]:
			d.stats.RawStalls++
		case in.Conflicts[0] || in.Conflicts[1] || in.Conflicts[2]:
			d.stats.BankConflictStalls++
		case !(d.CanIssue(&d.pipe[2].Insn, in.CPopStall) && in.ResourceFree):
			d.stats.ResourceBusyStalls++
		}
		d.stallF = true
		out.EnqueueSB = false
	}

	var req [3]scoreboard.ReadRequest
	for i := 0; i < 3; i++ {
		if !d.opRetry[i] || d.pipe[i].Insn.Dead() || d.pipe[i].Insn.NumSrc <= i {
			continue
		}
		req[i] = ForwardReadReq(i, &d.pipe[i].Insn, d.pipe[i].ColW, d.pipe[i].SubColW, d.pipe[i].WG)
	}
	out.Req = req
	out.ReqSB = req
	out.SSPMatch = blocksOnSSPWrites(&d.pipe[0].Insn)

	d.opRetry = [3]bool{in.RAW[0] || in.Conflicts[0], in.RAW[1] || in.Conflicts[1], in.RAW[2] || in.Conflicts[2]}

	iexecResourceFree := d.CanIssue(&d.pipe[2].Insn, in.CPopStall) && in.ResourceFree
	d.DecrementSidivStallCounters()

	if !d.opRetry[2] && iexecResourceFree {
		if d.pipe[2].Insn.Op == isa.OpSIDIV || d.pipe[2].Insn.Op == isa.OpSIMOD {
			d.SetSidivStallCounters()
		}
		out.Insn = d.pipe[2].Insn
		out.DstReg = DstRegister(&d.pipe[2].Insn, d.pipe[2].ColW, d.pipe[2].WG)
		out.EnqueueCStackWrite = enqueuesCStackWrite(&d.pipe[2].Insn)
		d.pipe[2].Reset()
	} else {
		out.Insn = isa.Instruction{}
		out.Insn.MarkDead()
	}

	d.curOp = op
	d.curPC = pc
	out.StallF = d.stallF
	return out
}

// pipeInvalidateWG kills in-flight instructions belonging to wg, retaining
// the instruction itself so a pending scoreboard entry can still clear.
func (d *Decode3S) pipeInvalidateWG(wg int) {
	for i := range d.pipe {
		if d.pipe[i].WG == wg {
			d.pipe[i].Insn.MarkDead()
		}
	}
}

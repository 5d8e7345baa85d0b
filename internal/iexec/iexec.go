/*
   Sim-D: instruction execute pipeline driver.

   Grounded on src/compute/control/IExecute.h's thread_lt() (not fully
   transcribed from the SystemC original here, but its control flow is
   preserved): each cycle invalidates the pipeline on a post-branch flush
   (except an in-flight injected CPOP, which must continue to unwind the
   control stack), combinationally executes the incoming instruction into
   a fresh pipeline register, shifts it through the ringbuffer (holding
   SIDIV/SIMOD results on pipe_sidebuf for the extra cycles their 8-cycle
   divider occupancy demands beyond the ring's natural depth), and commits
   the oldest stage's outputs.

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

package iexec

import (
	"github.com/simd-sim/simd/internal/cstack"
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/memreq"
	"github.com/simd-sim/simd/internal/ringbuffer"
)

// IExecute is the execute pipeline stage for one SimdCluster.
type IExecute struct {
	cfg Config

	pipe        *ringbuffer.Ringbuffer[Pipe]
	sidebuf     Pipe
	sidebufHold int

	cstackShadow cstack.Entry
	ticketPush   int

	stats Stats
}

// New constructs an execute pipeline with the given sizing. Panics if
// stages < 3, matching set_pipeline_stages's invalid_argument throw: a
// fully-pipelined RCP/RSQRT needs at least 3 stages to be plausible.
func New(cfg Config) *IExecute {
	if cfg.PipeStages < 3 {
		panic("iexec pipeline must have at least 3 stages")
	}
	x := &IExecute{cfg: cfg, pipe: ringbuffer.New[Pipe](cfg.PipeStages)}
	for i := 0; i < cfg.PipeStages; i++ {
		*x.pipe.Stage(i) = newPipe(cfg.Lanes)
	}
	x.sidebuf = newPipe(cfg.Lanes)
	x.resetCStackShadow()
	return x
}

func (x *IExecute) resetCStackShadow() {
	x.cstackShadow = cstack.Entry{Mask: isa.NewMask(x.cfg.Threads), Type: cstack.MaskRun}
}

// Stats returns the accumulated commit performance counters.
func (x *IExecute) Stats() Stats { return x.stats }

// CycleInput bundles the per-cycle inputs the execute stage reacts to.
type CycleInput struct {
	PC      int
	Insn    isa.Instruction
	WG      int
	ColW    int
	SubColW int
	Operand [3][]uint32

	SD [2]memreq.Descriptor // current SSP stride-descriptor register values, per slot

	ThreadActive [2]bool
	XlatPhys     memreq.Geometry
	SPXlatPhys   memreq.Geometry

	CStackTop  cstack.Entry
	CStackSP   int
	CStackFull bool

	WGOff   [2][2]int
	Dim     [2]int
	WGWidth int

	LastWarp int
	Flush    bool // a PC write committed last cycle; invalidate non-injected stages
}

// CycleOutput is the committed (oldest) pipeline stage's contents.
type CycleOutput struct {
	PCW   int
	PCDoW bool

	ReqW     isa.Register
	WGW      int
	ColMaskW int
	DataW    []uint32
	OutW     bool

	DequeueSB       bool
	DequeueSBCStack bool
	IgnoreMaskW     bool

	CStackAction cstack.Action
	CStackEntry  cstack.Entry

	StoreTarget memreq.Interface
	DescFIFO    memreq.Descriptor

	WGStateNext  [2]WGState
	WGExitCommit [2]bool

	Insn  isa.Instruction
	Print PrintKind
}

// Step runs one execute-stage cycle and returns the committed outputs.
func (x *IExecute) Step(in CycleInput) CycleOutput {
	if in.Flush {
		for i := 0; i < x.pipe.Entries(); i++ {
			st := x.pipe.Stage(i)
			if !st.Op.Injected() {
				st.invalidate()
			}
		}
	}

	fresh := newPipe(x.cfg.Lanes)
	fresh.WG = in.WG
	op := in.Insn
	fresh.Op = op

	if !op.Dead() {
		x.execute(&op, in, &fresh)
	}

	var committed Pipe
	switch {
	case !op.Dead() && (op.Op == isa.OpSIDIV || op.Op == isa.OpSIMOD):
		x.sidebuf = fresh
		hold := 8 - x.cfg.PipeStages
		if hold < 0 {
			hold = 0
		}
		x.sidebufHold = hold
		committed = x.pipe.SwapHead(newPipe(x.cfg.Lanes))

	case x.sidebufHold > 0:
		x.sidebufHold--
		if x.sidebufHold == 0 {
			committed = x.pipe.SwapHead(x.sidebuf)
		} else {
			committed = x.pipe.SwapHead(newPipe(x.cfg.Lanes))
		}

	default:
		committed = x.pipe.SwapHead(fresh)
	}

	x.accountCommit(&committed)
	return outputFromPipe(committed)
}

func (x *IExecute) accountCommit(p *Pipe) {
	if p.Op.Dead() {
		x.stats.CommitNOP++
		return
	}
	cat := isa.CategoryOf(p.Op.Op)
	if p.Op.IsVectorOp() {
		x.stats.CommitVec[cat]++
	} else {
		x.stats.CommitSc[cat]++
	}
}

func outputFromPipe(p Pipe) CycleOutput {
	return CycleOutput{
		PCW: p.PCW, PCDoW: p.PCDoW,
		ReqW: p.ReqW, WGW: p.WG, ColMaskW: p.ColMaskW, DataW: p.DataW, OutW: p.OutW,
		DequeueSB: p.DequeueSB, DequeueSBCStack: p.DequeueSBCStack, IgnoreMaskW: p.IgnoreMaskW,
		CStackAction: p.CStackAction, CStackEntry: p.CStackEntry,
		StoreTarget: p.StoreTarget, DescFIFO: p.DescFIFO,
		WGStateNext: p.WGStateNext, WGExitCommit: p.WGExitCommit,
		Insn: p.Op, Print: p.Print,
	}
}

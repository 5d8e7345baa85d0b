/*
   Sim-D: IExecute pipeline-register contents.

   Grounded on IExecute_pipe<PC_WIDTH,THREADS,LANES,RCPUS> in
   src/compute/control/IExecute.h: the bundle of outputs a single pipeline
   stage carries from combinational execution through to commit.

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
)

// WGState names the blocking reason a work-group slot enters after
// issuing a memory op, mirroring workgroup_state.
type WGState int

const (
	WGStateNone WGState = iota
	WGStateBlockedDRAM
	WGStateBlockedSP
	WGStateBlockedDRAMPostExit
)

// Pipe is one IExecute pipeline register: the full set of outputs one
// instruction produces, carried through the ringbuffer until it commits.
type Pipe struct {
	PCDoW bool
	PCW   int

	OutW     bool
	ReqW     isa.Register
	ColMaskW int
	DataW    []uint32

	DequeueSB       bool
	DequeueSBCStack bool
	IgnoreMaskW     bool

	CStackAction cstack.Action
	CStackEntry  cstack.Entry

	StoreTarget memreq.Interface
	DescFIFO    memreq.Descriptor

	WGStateNext  [2]WGState
	WGExitCommit [2]bool

	Op    isa.Instruction
	WG    int
	Print PrintKind
}

// newPipe allocates an empty pipeline register sized for lanes lanes.
func newPipe(lanes int) Pipe {
	p := Pipe{DataW: make([]uint32, lanes), StoreTarget: memreq.IfSentinel}
	p.Op.MarkDead()
	return p
}

// invalidate clears a pipeline register back to a dead bubble, the way
// IExecute_pipe::invalidate does for a post-branch flush.
func (p *Pipe) invalidate() {
	p.PCDoW = false
	p.OutW = false
	p.StoreTarget = memreq.IfSentinel
	p.Print = PrintNone
	p.WGStateNext[0], p.WGStateNext[1] = WGStateNone, WGStateNone
	p.WGExitCommit[0], p.WGExitCommit[1] = false, false
	p.CStackAction = cstack.Idle
	p.DequeueSB = false
	p.DequeueSBCStack = false
	p.Op.MarkDead()
}

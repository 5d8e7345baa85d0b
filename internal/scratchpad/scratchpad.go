/*
   Sim-D: scratchpad front-end — stride sequencer and DQ scheduler wired
   into one cycle-stepped controller over a storage array.

   Grounded on original_source/src/sp/control/{StrideSequencer,DQ,
   StorageArray}.h, which SystemC wires together with sc_fifo channels;
   Controller.Step drives the two stages directly, once per cycle, in
   the same dependency order their shared sensitivity to in_clk.pos()
   implies (DQ drains what the sequencer handed it last cycle before the
   sequencer is allowed to produce this cycle's burst).

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

// Controller wires the stride sequencer and DQ scheduler together over
// a private storage array.
type Controller struct {
	cfg Config

	seq *StrideSequencer
	dq  *DQ
	arr *Array
}

// New constructs a scratchpad front-end with the given sizing, its own
// backing array, and an idle stride sequencer.
func New(cfg Config) *Controller {
	return &Controller{
		cfg: cfg,
		seq: NewStrideSequencer(cfg),
		dq:  NewDQ(cfg),
		arr: NewArray(cfg),
	}
}

// Array exposes the backing store for debug read/write (CSV buffer
// upload/download and inspector reads).
func (c *Controller) Array() *Array { return c.arr }

// Push enqueues a descriptor for the sequencer to translate.
func (c *Controller) Push(d memreq.Descriptor) { c.seq.Push(d) }

// Idle reports whether the sequencer has drained its FIFO and returned
// to DQ_ST_IDLE — the front-end is ready for a new ticket.
func (c *Controller) Idle() bool { return c.seq.state == seqIdle && len(c.seq.fifo) == 0 }

// Step advances the whole front-end by one cycle: DQ drains its
// pipelines into the storage array/register file, then the sequencer
// advances its state machine using the done signal DQ raised in this
// same step.
func (c *Controller) Step() []Writeback {
	wbs := c.dq.Step(c.arr)

	req, _ := c.seq.Step(c.dq.Done())
	if req != nil {
		c.dq.Push(*req)
	}

	return wbs
}

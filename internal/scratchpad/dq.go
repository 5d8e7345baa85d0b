/*
   Sim-D: scratchpad DQ (data path) scheduler.

   Grounded on original_source/src/sp/control/DQ.h's thread(): for reads
   (SP->RF) the storage array is read this cycle and the result is held
   one extra cycle before reaching the register file (`pipe_rf`); for
   writes (RF->SP) the register file's data is requested this cycle and
   committed to storage two cycles later (`pipe_sa`). Per-bank physical
   wiring (`rf_commit`'s per-lane `out_rf_idx_w`) is replaced by the same
   direct word-index-to-register mapping internal/dram's DQ uses, for
   the same reason: Go has no physical mux network to model.

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

import (
	"math/bits"

	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/memreq"
)

// Writeback is one register-file update DQ produces for a completed
// read burst.
type Writeback struct {
	Reg   isa.Register
	Word  uint32
	Valid bool
}

type dqPipe struct {
	valid bool
	req   BurstRequest
}

// DQ replays scratchpad bursts onto the storage array and the register
// file, honouring the original's asymmetric read/write pipeline depth.
type DQ struct {
	cfg Config

	queue     []BurstRequest
	readPipe  dqPipe    // 1-stage hold: out_rf_* lags the storage read by one cycle
	writePipe [2]dqPipe // 2-stage hold: storage commit lags RF data by two cycles

	done bool
}

// NewDQ returns an idle scratchpad DQ scheduler.
func NewDQ(cfg Config) *DQ { return &DQ{cfg: cfg} }

// Push enqueues a burst request the sequencer just generated.
func (d *DQ) Push(req BurstRequest) { d.queue = append(d.queue, req) }

// Done reports whether a burst completed (committed or emitted) on the
// cycle of the most recent Step call, mirroring out_done.
func (d *DQ) Done() bool { return d.done }

// Step advances the DQ scheduler by one cycle: commits any write whose
// two-cycle delay has elapsed, emits writebacks for a read issued last
// cycle, then accepts the next queued burst (if any) into whichever
// pipeline its direction feeds.
func (d *DQ) Step(arr *Array) []Writeback {
	var out []Writeback
	done := false

	if d.writePipe[1].valid {
		d.commitWrite(d.writePipe[1], arr)
		done = done || d.writePipe[1].req.Last
	}
	d.writePipe[1] = d.writePipe[0]
	d.writePipe[0] = dqPipe{}

	if d.readPipe.valid {
		out = append(out, d.readBeat(d.readPipe.req, arr)...)
		done = done || d.readPipe.req.Last
	}
	d.readPipe = dqPipe{}

	if len(d.queue) > 0 {
		req := d.queue[0]
		d.queue = d.queue[1:]
		if req.Write {
			d.writePipe[0] = dqPipe{valid: true, req: req}
		} else {
			d.readPipe = dqPipe{valid: true, req: req}
		}
	}

	d.done = done
	return out
}

func (d *DQ) readBeat(req BurstRequest, arr *Array) []Writeback {
	var out []Writeback
	for i := 0; i < d.cfg.BusWidth; i++ {
		if req.WordMask&(1<<uint(i)) == 0 {
			continue
		}
		word := arr.GetWord(req.Addr + uint32(i*4))
		widx := req.WordBase + bits.OnesCount32(req.WordMask&((1<<uint(i))-1))
		out = append(out, writebackFor(req.Desc, widx, word))
	}
	return out
}

func (d *DQ) commitWrite(p dqPipe, arr *Array) {
	data := p.req.Desc.Data
	for i := 0; i < d.cfg.BusWidth; i++ {
		if p.req.WordMask&(1<<uint(i)) == 0 {
			continue
		}
		widx := p.req.WordBase + bits.OnesCount32(p.req.WordMask&((1<<uint(i))-1))
		var word uint32
		if widx < len(data) {
			word = data[widx]
		}
		arr.SetWord(p.req.Addr+uint32(i*4), word)
	}
}

// writebackFor maps a transfer-order word index to the destination
// register and column a load should land in, the same DstOffset/
// DstPeriod geometry internal/dram's DQ uses.
func writebackFor(desc memreq.Descriptor, widx int, word uint32) Writeback {
	period := desc.DstPeriod
	if period <= 0 {
		period = 1
	}
	reg := desc.Dst
	reg.Row += widx / period
	reg.Col += widx % period

	return Writeback{
		Reg:   reg,
		Word:  word,
		Valid: true,
	}
}

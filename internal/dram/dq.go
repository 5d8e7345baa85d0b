/*
   Sim-D: DQ (data path) scheduler.

   Grounded on original_source/src/mc/control/DQ.h's thread_lt():
   DQ_IDLE -> DQ_WAIT (until the reservation's scheduled cycle arrives)
   -> DQ_BUSY, replaying BUS_WIDTH/4 = 4 words per beat across 4 beats,
   with a two-stage pipeline delaying the write-back into storage by two
   cycles to mirror the SRAM write latency `do_write_storage` accounts
   for. Per-bit register-lane muxing (out_vreg_idx_w rotation) is
   replaced by a direct word-index-to-register mapping in writebackFor,
   since Go has no need to model the physical mux network.

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

import (
	"math/bits"

	"github.com/simd-sim/simd/internal/storage"
)

type dqState int

const (
	dqIdle dqState = iota
	dqWait
	dqBusy
)

type dqPipe struct {
	valid    bool
	res      DQReservation
	beat     int
	wordMask uint32
}

// DQ replays a burst's reservation onto the storage back-end and emits
// register-file/scratchpad writebacks for reads.
type DQ struct {
	cfg      Config
	queue    []DQReservation
	pipeline [2]dqPipe
	state    dqState
	beat     int
	cur      DQReservation
}

// NewDQ returns an idle DQ scheduler.
func NewDQ(cfg Config) *DQ { return &DQ{cfg: cfg} }

// Push enqueues a scheduled reservation; DQ_WAIT stalls until its Cycle
// arrives.
func (d *DQ) Push(res DQReservation) { d.queue = append(d.queue, res) }

// Step advances the DQ scheduler by one DRAM clock, committing any
// pending write-back from its pipeline, then making progress on the
// active reservation.
func (d *DQ) Step(cycle int64, store *storage.Storage) []Writeback {
	if d.pipeline[1].valid {
		d.commitWrite(d.pipeline[1], store)
	}
	d.pipeline[1] = d.pipeline[0]
	d.pipeline[0] = dqPipe{}

	var out []Writeback

	switch d.state {
	case dqIdle:
		d.beat = 0
		if len(d.queue) == 0 {
			return out
		}
		d.cur = d.queue[0]
		d.queue = d.queue[1:]
		d.state = dqWait
		fallthrough
	case dqWait:
		if d.cur.Cycle != cycle {
			return out
		}
		d.state = dqBusy
		fallthrough
	case dqBusy:
		mask := (d.cur.WordMask >> uint(d.beat*4)) & 0xf
		if mask != 0 {
			if d.cur.Write {
				d.pipeline[0] = dqPipe{valid: true, res: d.cur, beat: d.beat, wordMask: mask}
			} else {
				out = append(out, d.readBeat(mask, store)...)
			}
		}
		if d.beat == 3 {
			d.state = dqIdle
		}
		d.beat++
	}

	return out
}

func (d *DQ) readBeat(mask uint32, store *storage.Storage) []Writeback {
	var out []Writeback
	for i := 0; i < 4; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		col := d.cur.Col | uint32(i)
		word := store.GetWord(d.cur.Bank, d.cur.Row, col)
		widx := d.cur.Req.WordBase + bits.OnesCount32(d.cur.WordMask&((1<<uint(d.beat*4+i))-1))
		out = append(out, d.writebackFor(widx, word))
	}
	return out
}

func (d *DQ) commitWrite(p dqPipe, store *storage.Storage) {
	data := p.res.Req.Desc.Data
	for i := 0; i < 4; i++ {
		if p.wordMask&(1<<uint(i)) == 0 {
			continue
		}
		widx := p.res.Req.WordBase + bits.OnesCount32(p.res.WordMask&((1<<uint(p.beat*4+i))-1))
		var word uint32
		if widx < len(data) {
			word = data[widx]
		}
		store.SetWord(p.res.Bank, p.res.Row, p.res.Col|uint32(i), word)
	}
}

// writebackFor maps a transfer-order word index to the destination
// register and column the load should land in, per the descriptor's
// DstOffset/DstPeriod geometry: DstPeriod columns land in one row
// before advancing to the next.
func (d *DQ) writebackFor(widx int, word uint32) Writeback {
	desc := d.cur.Req.Desc
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

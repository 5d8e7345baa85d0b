/*
   Sim-D: DRAM command generator — address translation and precharge
   policy.

   Grounded on original_source/src/mc/control/CmdGen_DDR4.h:
   address_translate()'s bit-gathering is reproduced verbatim (adjusted
   for our configurable bank/row/col widths via bits.Len), as is the
   LINEAR precharge policy's same-bank-pair-as-next-burst check and the
   "close the paired bank too" behaviour. ALAP is reproduced from the
   same method too: StrideSequencer requests LINEAR for stride bursts and
   ALAP for IDXIT bursts (see sequencer.go).

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

// Cmd carries the four DDR4 command types the arbiter schedules,
// folded into a single per-bank queue entry the way
// cmd_DDR's act/read/write/pre_pre/pre_post bit-fields do.
type Cmd struct {
	Bank, Row, Col uint32

	Act    bool // an activate is still owed before this command's CAS
	Read   bool
	Write  bool
	PrePre bool // pre-activate precharge: close this bank before the next ACT elsewhere
	PrePost bool // close this bank immediately after this CAS

	WordMask uint32
	Req      BurstRequest
}

const bankInactive = -1

// CmdGen performs address translation and tracks each bank's open row,
// filling one FIFO of commands per bank for the arbiter to drain.
type CmdGen struct {
	cfg Config

	bankBits, rowBits, colBits int
	activeRow                  []int // bankInactive when no row is open

	queue [][]Cmd // per-bank command FIFO
	Busy  bool
}

// NewCmdGen builds a command generator sized for cfg, with every bank
// initially precharged.
func NewCmdGen(cfg Config) *CmdGen {
	g := &CmdGen{
		cfg:      cfg,
		bankBits: bits.Len(uint(cfg.Banks - 1)),
		rowBits:  bits.Len(uint(cfg.Rows - 1)),
		colBits:  bits.Len(uint(cfg.Cols - 1)),
		queue:    make([][]Cmd, cfg.Banks),
	}
	g.activeRow = make([]int, cfg.Banks)
	for i := range g.activeRow {
		g.activeRow[i] = bankInactive
	}
	return g
}

// AddressTranslate splits a byte address into (bank, row, col), the
// same bit-gathering as CmdGen_DDR4::address_translate but parameterised
// on cfg's widths instead of compile-time template constants.
func (g *CmdGen) AddressTranslate(addr uint32) (bank, row, col uint32) {
	busBits := bits.Len(uint(g.cfg.BusWidth - 1))

	offset := uint(busBits + g.colBits - 1)

	bank = ((addr >> uint(busBits+2)) & 0x1) | ((addr >> offset) & uint32(g.cfg.Banks-2))
	col = (addr >> uint(busBits)) & uint32(g.cfg.Cols-8)

	offset += uint(g.bankBits)
	row = (addr >> offset) & uint32(g.cfg.Rows-1)
	return
}

// Accept translates one burst request into a command and queues it
// (plus, if the precharge policy closes a bank pair early, a companion
// precharge-only command on the paired bank).
func (g *CmdGen) Accept(req BurstRequest) {
	bank, row, col := g.AddressTranslate(req.Addr)

	cmd := Cmd{
		Bank: bank, Row: row, Col: col,
		Read: !req.Write, Write: req.Write,
		WordMask: req.WordMask,
		Req:      req,
	}
	if g.activeRow[bank] != int(row) {
		cmd.Act = true
	}

	g.precharge(req, &cmd)

	g.queue[bank] = append(g.queue[bank], cmd)
}

// precharge applies req's precharge policy, mutating cmd's PrePre/
// PrePost flags and possibly queuing a companion close on the paired
// bank, exactly mirroring CmdGen_DDR4::precharge.
func (g *CmdGen) precharge(req BurstRequest, cmd *Cmd) {
	bank := cmd.Bank

	switch req.PrePol {
	case PrechargeALAP:
		if g.activeRow[bank] != int(cmd.Row) {
			if g.activeRow[bank] != bankInactive {
				cmd.PrePre = true
			}
			g.activeRow[bank] = int(cmd.Row)
		}

		if req.Last {
			cmd.PrePost = true
			g.activeRow[bank] = bankInactive
			for i := 1; i < g.cfg.Banks; i++ {
				nb := uint32((int(bank) + i) % g.cfg.Banks)
				if g.activeRow[nb] != bankInactive {
					g.queue[nb] = append(g.queue[nb], Cmd{Bank: nb, PrePost: true, Req: req})
					g.activeRow[nb] = bankInactive
				}
			}
		}
	default: // PrechargeLinear
		g.activeRow[bank] = int(cmd.Row)

		nextBank, nextRow, _ := g.AddressTranslate(req.AddrNext)
		groupMask := uint32(g.cfg.Banks - 2)
		if (nextBank&groupMask) != (bank&groupMask) || nextRow != cmd.Row {
			cmd.PrePost = true
			g.activeRow[bank] = bankInactive

			pair := bank ^ 0x1
			if g.activeRow[pair] != bankInactive {
				g.queue[pair] = append(g.queue[pair], Cmd{Bank: pair, PrePost: true, Req: req})
				g.activeRow[pair] = bankInactive
			}
		}
	}
}

// Peek returns the head command of bank's queue, if any.
func (g *CmdGen) Peek(bank int) (Cmd, bool) {
	if len(g.queue[bank]) == 0 {
		return Cmd{}, false
	}
	return g.queue[bank][0], true
}

// ClearAct drops the activate flag on bank's head command (it has now
// been issued) without popping the entry, since its CAS/precharge
// still needs to be issued on a later cycle.
func (g *CmdGen) ClearAct(bank int) {
	if len(g.queue[bank]) > 0 {
		g.queue[bank][0].Act = false
	}
}

// ClearPrePre drops the pre-activate-precharge flag on bank's head
// command once its precharge has been issued, without popping the
// entry (an ACT/CAS for the same command still follows).
func (g *CmdGen) ClearPrePre(bank int) {
	if len(g.queue[bank]) > 0 {
		g.queue[bank][0].PrePre = false
	}
}

// Pop removes bank's head command, its CAS or precharge having issued.
func (g *CmdGen) Pop(bank int) {
	if len(g.queue[bank]) > 0 {
		g.queue[bank] = g.queue[bank][1:]
	}
}

// AllPrecharged reports whether every bank is currently closed.
func (g *CmdGen) AllPrecharged() bool {
	for _, r := range g.activeRow {
		if r != bankInactive {
			return false
		}
	}
	return true
}

// QueuesEmpty reports whether every bank's command FIFO has drained.
func (g *CmdGen) QueuesEmpty() bool {
	for _, q := range g.queue {
		if len(q) > 0 {
			return false
		}
	}
	return true
}

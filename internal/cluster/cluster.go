/*
   Sim-D: cluster top-level wiring.

   Grounded on src/compute/control/SimdCluster.h and emu/core/core.go's
   drive-everything-from-one-Step style: a cluster owns exactly one
   IDecode/IExecute/scoreboard/register-file instance shared by both
   work-group slots, and one control stack whose two per-slot stacks are
   already modeled by cstack.Stack's numSlots dimension. Per spec, the two
   slots have independent scratchpads and memory-front-end queues, so
   those are two separate instances. Access/execute decoupling is the
   arbitration in selectSlot: the shared pipeline keeps issuing from
   whichever slot is not currently blocked on a front-end, switching only
   at an instruction boundary (decode's StallF deasserts) so a single
   decoder's in-flight retry state is never attributed to the wrong slot.

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

// Package cluster wires IDecode, IExecute, the scoreboard, the register
// file, the control stack, the DRAM front-end, and the two scratchpad
// front-ends into one steppable SIMD cluster hosting two work-group
// slots.
package cluster

import (
	"github.com/simd-sim/simd/internal/cstack"
	"github.com/simd-sim/simd/internal/debugtrace"
	"github.com/simd-sim/simd/internal/dram"
	"github.com/simd-sim/simd/internal/idecode"
	"github.com/simd-sim/simd/internal/iexec"
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/memreq"
	"github.com/simd-sim/simd/internal/regfile"
	"github.com/simd-sim/simd/internal/scoreboard"
	"github.com/simd-sim/simd/internal/scratchpad"
	"github.com/simd-sim/simd/internal/simassert"
	"github.com/simd-sim/simd/internal/workgroup"
)

// Config sizes every sub-unit a cluster wires together.
type Config struct {
	Lanes       int // FPUS
	Threads     int
	RCPUs       int
	CstackDepth int
	PipeStages  int
	ScoreboardEntries int
	ThreeStage  bool // select the 3-stage decoder instead of the default 1-stage one

	DRAM dram.Config
	SP   scratchpad.Config
}

// DefaultConfig takes Threads (1024) and CstackDepth (16) from the
// original's default sizing constants. Lanes is 4 and RCPUs 1, not the
// original's FPUS=128 and RCPUS=32.
func DefaultConfig() Config {
	return Config{
		Lanes: 4, Threads: 1024, RCPUs: 1,
		CstackDepth: 16, PipeStages: 3, ScoreboardEntries: 32,
		DRAM: dram.DefaultConfig(), SP: scratchpad.DefaultConfig(),
	}
}

// Buffer is a bound buffer's translated geometry plus the kernel-visible
// work-group grid it was launched over. A cluster binds one buffer per
// front-end (DRAM, and one per scratchpad) for the lifetime of a kernel
// launch: a full per-instruction buffer-index operand, as the original's
// multi-entry translation table supports, has no encoding anywhere in
// this instruction set (no opcode or operand names a buffer index), so a
// single bound geometry per front-end is the simplification this
// cluster implements instead.
type Buffer struct {
	Geometry memreq.Geometry
	DimX, DimY int
}

// Cluster is one SIMD cluster: a shared decode/execute pipeline,
// scoreboard, register file and control stack, plus two independent
// work-group slots each with their own scratchpad.
type Cluster struct {
	cfg Config

	dec1 *idecode.Decode1S
	dec3 *idecode.Decode3S

	exec *iexec.IExecute
	sb   *scoreboard.Scoreboard
	cs   *cstack.Stack
	rf   *regfile.File
	dramc *dram.Controller
	sp   [2]*scratchpad.Controller

	slots [2]*workgroup.Slot
	disp  *workgroup.Dispatcher

	imem []isa.Instruction
	pc   [2]int

	bufDRAM Buffer
	bufSP   [2]Buffer

	curSlot    int
	slotTicket [2]uint64 // ticket each blocked slot is waiting on, valid while Blocked()
	prevReq    [3]scoreboard.ReadRequest
	flushNext  bool
	cycle      int64
}

// New constructs an idle cluster. prog is the kernel's decoded
// instruction memory; dimX/dimY/wgWidth describe the launch grid the
// dispatcher partitions into work-groups.
func New(cfg Config, prog []isa.Instruction, dimX, dimY, wgWidth int) *Cluster {
	c := &Cluster{
		cfg:  cfg,
		exec: iexec.New(iexec.Config{Lanes: cfg.Lanes, Threads: cfg.Threads, CstackDepth: cfg.CstackDepth, PipeStages: cfg.PipeStages}),
		sb:   scoreboard.New(cfg.ScoreboardEntries, 2),
		cs:   cstack.New(cfg.CstackDepth, 2),
		rf:   regfile.New(regfile.Config{Lanes: cfg.Lanes, Threads: cfg.Threads, Slots: 2}),
		dramc: dram.New(cfg.DRAM),
		imem: prog,
		disp: workgroup.NewDispatcher(dimX, dimY, wgWidth, cfg.Threads),
	}
	dcfg := idecode.Config{FPUs: cfg.Lanes, RCPUs: cfg.RCPUs, IexecStages: cfg.PipeStages}
	if cfg.ThreeStage {
		c.dec3 = idecode.NewDecode3S(dcfg)
	} else {
		c.dec1 = idecode.NewDecode1S(dcfg)
	}
	for i := range c.slots {
		c.slots[i] = &workgroup.Slot{}
		c.sp[i] = scratchpad.New(cfg.SP)
	}
	return c
}

// BindDRAMBuffer records the geometry a kernel's DRAM loads/stores
// resolve against for the remainder of the launch.
func (c *Cluster) BindDRAMBuffer(b Buffer) { c.bufDRAM = b }

// BindSPBuffer records the geometry slot's scratchpad loads/stores
// resolve against for the remainder of the launch.
func (c *Cluster) BindSPBuffer(slot int, b Buffer) { c.bufSP[slot] = b }

// DRAMBuffer returns the geometry currently bound to the DRAM
// front-end, for a CLI front-end to drain back out once a kernel
// finishes.
func (c *Cluster) DRAMBuffer() Buffer { return c.bufDRAM }

// SPBuffer returns the geometry currently bound to slot's scratchpad
// front-end, for the same drain-on-completion purpose DRAMBuffer
// serves.
func (c *Cluster) SPBuffer(slot int) Buffer { return c.bufSP[slot] }

// Cycle returns the number of compute-clock cycles Step has been called.
func (c *Cluster) Cycle() int64 { return c.cycle }

// PC returns slot's next-fetch program counter.
func (c *Cluster) PC(slot int) int { return c.pc[slot] }

// SlotState returns slot's work-group state (idle, running, or blocked
// on one of the front-ends).
func (c *Cluster) SlotState(slot int) workgroup.State { return c.slots[slot].State() }

// ReadRegister returns op's current value, one word per active lane or
// thread depending on op's register kind. Intended for an inspector,
// not the execute pipeline itself, which reads via the decoded
// instruction's operands instead.
func (c *Cluster) ReadRegister(op isa.Operand) []uint32 { return c.rf.Read(op) }

// DRAM exposes the shared DRAM front-end so a CLI front-end can seed
// its backing store from an uploaded buffer file and drain it back out
// again once the kernel finishes, and so it can preset the refresh
// counter from "-r".
func (c *Cluster) DRAM() *dram.Controller { return c.dramc }

// Scratchpad exposes slot's scratchpad front-end for the same
// upload/download purpose DRAM serves, one array per slot.
func (c *Cluster) Scratchpad(slot int) *scratchpad.Controller { return c.sp[slot] }

// Scoreboard exposes the shared scoreboard for the inspector's "sb"
// command to dump pending-write population.
func (c *Cluster) Scoreboard() *scoreboard.Scoreboard { return c.sb }

// CStack exposes the shared control stack for the inspector's "cstack"
// command to dump per-slot stack pointer, top entry, and overflow
// state.
func (c *Cluster) CStack() *cstack.Stack { return c.cs }

// Done reports whether every work-group in the launch grid has been
// dispatched, run to completion, and retired (both slots back to IDLE
// with nothing left for the dispatcher to hand out).
func (c *Cluster) Done() bool {
	if !c.disp.Done() {
		return false
	}
	for _, s := range c.slots {
		if s.State() != workgroup.Idle {
			return false
		}
	}
	return true
}

// Step advances the whole cluster by one compute-clock cycle: retires
// finished slots, dispatches new work-groups into idle slots, drains the
// DRAM and scratchpad front-ends (their own clock domain, but stepped
// 1:1 with the compute clock here), decodes and executes one instruction
// from whichever slot currently owns the shared pipeline, and reacts to
// the committed instruction's control-flow, memory and exit side effects.
func (c *Cluster) Step() {
	c.retireAndDispatch()
	c.drainFrontEnds()

	slot := c.selectSlot()
	sel := c.buildSelectInput(slot)

	raw := c.sb.CheckReads(slot, c.prevReq, allOnes3())
	conflicts := [3]bool{} // no register-file bank-conflict model: the 1S/3S split already
	// represents the two extremes (perfect file vs. one-port-per-cycle); a third,
	// intermediate banked-conflict model has no grounding anywhere in the pack.

	var dout idecode.CycleOutput
	if c.cfg.ThreeStage {
		dout = c.dec3.Step(idecode.CycleInput3S{
			Select: sel, WG: slot,
			WGFinished: [2]bool{c.slots[0].State() == workgroup.Finished, c.slots[1].State() == workgroup.Finished},
			EntriesPop: [2]uint32{c.sb.Population(0), c.sb.Population(1)},
			RAW: raw, Conflicts: conflicts,
			CPopStall: c.sb.CPopStall(slot), ResourceFree: true,
		})
	} else {
		dout = c.dec1.Step(idecode.CycleInput{
			Select: sel, WG: slot,
			RAW: raw, Conflicts: conflicts,
			CPopStall: c.sb.CPopStall(slot), ResourceFree: true,
		})
	}
	c.prevReq = dout.Req

	if dout.EnqueueSB {
		c.sb.Enqueue(dout.DstReg)
	}
	if dout.EnqueueCStackWrite {
		c.sb.EnqueueCStackWrite(dout.WG)
	}
	if !dout.StallF {
		c.curSlot = otherRunnableSlot(c.slots, slot)
	}

	eout := c.runExecute(dout)
	c.applyCommit(eout)

	c.cycle++
}

// selectSlot returns the slot currently feeding the shared decode/execute
// pipeline. It keeps the current slot while that slot is Running and
// otherwise switches to the other slot if that one is Running; decode's
// StallF is not consulted.
func (c *Cluster) selectSlot() int {
	if c.slots[c.curSlot].State() == workgroup.Running {
		return c.curSlot
	}
	other := 1 - c.curSlot
	if c.slots[other].State() == workgroup.Running {
		c.curSlot = other
	}
	return c.curSlot
}

// otherRunnableSlot is called only at an instruction boundary: it keeps
// the pipeline on the current slot if it can still issue, else hands the
// pipeline to the other slot if that one can.
func otherRunnableSlot(slots [2]*workgroup.Slot, cur int) int {
	if slots[cur].State() == workgroup.Running {
		return cur
	}
	other := 1 - cur
	if slots[other].State() == workgroup.Running {
		return other
	}
	return cur
}

func (c *Cluster) buildSelectInput(slot int) idecode.SelectInput {
	s := c.slots[slot]
	if s.State() != workgroup.Running {
		return idecode.SelectInput{WGFinished: true}
	}
	pc := c.pc[slot]
	fetched := isa.Instruction{}
	fetched.MarkDead()
	if pc >= 0 && pc < len(c.imem) {
		fetched = c.imem[pc]
		fetched.Slot = slot
		fetched.PC = pc
	}
	return idecode.SelectInput{
		WGFinished:    false,
		PipeFlush:     c.flushNext,
		ThreadActive:  true,
		StallF:        false,
		Fetched:       fetched,
		FetchedPC:     pc,
		LastWarpInput: c.cfg.Threads/c.cfg.Lanes - 1,
	}
}

// runExecute forwards the decoded instruction's operands from the
// register file and steps IExecute.
func (c *Cluster) runExecute(dout idecode.CycleOutput) iexec.CycleOutput {
	insn := dout.Insn
	var operand [3][]uint32
	for i := 0; i < insn.NumSrc && i < 3; i++ {
		operand[i] = c.rf.Read(resolveOperand(insn.Src[i], dout.WG, dout.ColW))
	}

	sd := [2]memreq.Descriptor{c.currentSD(0), c.currentSD(1)}

	in := iexec.CycleInput{
		PC: dout.PC, Insn: insn, WG: dout.WG, ColW: dout.ColW, SubColW: dout.SubColW,
		Operand: operand,
		SD:      sd,
		ThreadActive: [2]bool{c.slots[0].State() == workgroup.Running, c.slots[1].State() == workgroup.Running},
		XlatPhys:   c.bufDRAM.Geometry,
		SPXlatPhys: c.bufSP[dout.WG].Geometry,
		CStackTop:  c.cs.Top(dout.WG),
		CStackSP:   c.cs.SP(dout.WG),
		CStackFull: c.cs.Full(dout.WG),
		WGWidth:    c.disp2Width(),
		LastWarp:   c.cfg.Threads/c.cfg.Lanes - 1,
		Flush:      c.flushNext,
	}
	c.flushNext = false
	return c.exec.Step(in)
}

// currentSD reads slot's live SSP stride-descriptor registers into a
// Descriptor, the form executeMemory expects for in.SD.
func (c *Cluster) currentSD(slot int) memreq.Descriptor {
	words := c.rf.Read(isa.RegOperand(isa.NewScalar(slot, isa.KindSSP, isa.SSPSDWords)))
	period := c.rf.Read(isa.RegOperand(isa.NewScalar(slot, isa.KindSSP, isa.SSPSDPeriod)))
	count := c.rf.Read(isa.RegOperand(isa.NewScalar(slot, isa.KindSSP, isa.SSPSDPeriodCnt)))
	return memreq.Descriptor{Words: int(words[0]), Period: int(period[0]), PeriodCount: int(count[0])}
}

func (c *Cluster) disp2Width() int {
	if c.bufSP[0].DimX > 0 {
		return c.bufSP[0].DimX
	}
	return c.cfg.Lanes
}

// resolveOperand binds an instruction's static source operand to the
// concrete (slot, col) register the currently active warp addresses.
func resolveOperand(op isa.Operand, slot, col int) isa.Operand {
	if op.Kind != isa.OperandReg {
		return op
	}
	r := op.Reg
	r.Slot = slot
	if r.Kind.IsVector() {
		r.Col = col
	}
	return isa.RegOperand(r)
}

// applyCommit reacts to one committed IExecute pipeline stage: register
// writeback, control-stack push/pop, PC redirect (flush), memory-request
// dispatch to a front-end, and work-group exit.
func (c *Cluster) applyCommit(out iexec.CycleOutput) {
	if out.Insn.Dead() {
		return
	}
	wg := out.WGW

	if out.OutW {
		mask := c.activeMask(wg, out.ColMaskW)
		if err := c.rf.Write(out.ReqW, out.DataW, mask, out.IgnoreMaskW); err != nil {
			simassert.Raise("read-only-write", "%s", err)
		}
		debugtrace.SlotTracef(debugtrace.Regs, wg, "write %s", out.ReqW.String())
	}
	if out.DequeueSB {
		reg := out.ReqW
		c.sb.Dequeue(&reg)
	}
	if out.DequeueSBCStack {
		c.sb.DequeueCStackWrite(wg)
	}
	switch out.CStackAction {
	case cstack.Push:
		c.cs.Step(wg, cstack.Push, out.CStackEntry)
	case cstack.Pop:
		c.cs.Step(wg, cstack.Pop, cstack.Entry{})
	}
	if out.PCDoW {
		c.pc[wg] = out.PCW
		c.flushNext = true
		debugtrace.SlotTracef(debugtrace.Trace, wg, "pc <- %d", out.PCW)
	} else if !out.Insn.Dead() {
		c.pc[wg]++
	}

	if out.StoreTarget != memreq.IfSentinel {
		desc := out.DescFIFO
		ticket := uint64(desc.Ticket)
		switch out.StoreTarget {
		case memreq.IfDRAM:
			c.dramc.Push(desc)
		case memreq.IfSPWG0:
			c.sp[0].Push(desc)
		case memreq.IfSPWG1:
			c.sp[1].Push(desc)
		}
		postExit := out.WGExitCommit[wg]
		c.slotTicket[wg] = ticket
		_ = c.slots[wg].Block(dramOrSPInterface(out.StoreTarget), postExit, ticket)
		debugtrace.SlotTracef(debugtrace.Sched, wg, "blocked on ticket %d", ticket)
	} else if out.WGExitCommit[wg] {
		c.slots[wg].Exit(0)
		debugtrace.SlotTracef(debugtrace.Sched, wg, "exit")
	}
}

func dramOrSPInterface(t memreq.Interface) workgroup.Interface {
	if t == memreq.IfDRAM {
		return workgroup.InterfaceDRAM
	}
	return workgroup.InterfaceSP
}

// activeMask derives the lanes-wide active-thread mask for a warp column
// by reading back the live VSP.ctrl_run row, the row CMASK and BRA write
// and a CPOP of a run-type entry restores.
func (c *Cluster) activeMask(wg, col int) uint32 {
	vals := c.rf.Read(isa.RegOperand(isa.NewVector(wg, isa.KindVSP, isa.VSPCtrlRun, col)))
	var mask uint32
	for i, v := range vals {
		if v != 0 {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// retireAndDispatch resets any FINISHED slot back to IDLE and hands the
// dispatcher a chance to fill idle slots with the next pending
// work-groups, seeding the register file's per-slot grid offset so
// VSP.tid_x/tid_y reads reflect the newly assigned work-group.
func (c *Cluster) retireAndDispatch() {
	for _, s := range c.slots {
		if s.State() == workgroup.Finished {
			_ = s.Reset()
		}
	}
	c.disp.Fill(c.slots[:])
	for i, s := range c.slots {
		if s.State() == workgroup.Ready {
			id := s.ID()
			c.rf.SetWGGrid(i, id.OffX, id.OffY, c.disp2Width())
			c.pc[i] = 0
			s.Issue()
		}
	}
}

// drainFrontEnds steps the DRAM and both scratchpad front-ends, applies
// their writebacks to the register file or scratchpad array, and resumes
// any slot whose blocking ticket just completed.
func (c *Cluster) drainFrontEnds() {
	for _, wb := range c.dramc.Step() {
		if !wb.Valid {
			continue
		}
		if wb.ToSP {
			c.sp[wb.WG].Array().SetWord(wb.SPAddr, wb.Word)
		} else {
			_ = c.rf.Write(wb.Reg, c.broadcastWord(wb.Word), ^uint32(0), true)
		}
	}
	for slot := range c.sp {
		for _, wb := range c.sp[slot].Step() {
			if !wb.Valid {
				continue
			}
			_ = c.rf.Write(wb.Reg, c.broadcastWord(wb.Word), ^uint32(0), true)
		}
	}
	for i, s := range c.slots {
		if !s.Blocked() {
			continue
		}
		idle := false
		switch s.State() {
		case workgroup.BlockedDRAM, workgroup.BlockedDRAMPostExit:
			idle = c.dramc.Idle()
		case workgroup.BlockedSP:
			idle = c.sp[i].Idle()
		}
		if idle {
			s.Resume(c.slotTicket[i])
		}
	}
}

func allOnes3() [3]uint32 { return [3]uint32{^uint32(0), ^uint32(0), ^uint32(0)} }

// broadcastWord widens a front-end's single burst word to a Lanes-wide
// write. A memreq.Descriptor carries one destination register per burst
// word (no per-lane fan-out: period/offset step the register, not a lane
// index), so the committing write lands the same word in every lane of
// that register. For a scalar SGPR/SSP destination regfile.Write only
// consumes lane 0 anyway; for a vector destination this is the
// simplification the front-ends' Writeback shape implies.
func (c *Cluster) broadcastWord(w uint32) []uint32 {
	data := make([]uint32, c.cfg.Lanes)
	for i := range data {
		data[i] = w
	}
	return data
}

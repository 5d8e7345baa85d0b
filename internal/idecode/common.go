/*
   Sim-D: instruction-decode pipeline, logic shared by both variants.

   Grounded on src/compute/control/IDecode.h: implicit operand injection,
   vector-warp/RCPU-sub-column enumeration, the SIDIV/SIMOD issue-distance
   and pipeline-stall counters, and the select-next-op state machine that
   handles pipeline flush and CPOP injection. Reworked from a protected
   base sc_module into a plain struct embedded by value in each decoder
   variant, the way emu/cpu/cpu.go's cpuState is driven imperatively by
   its caller rather than through a SystemC signal graph.

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

// Package idecode implements the compute pipeline's instruction-decode
// stage, in its single-stage and three-stage variants.
package idecode

import (
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/scoreboard"
)

// Config carries the per-cluster sizing that the original template
// parameters provided at compile time.
type Config struct {
	FPUs        int // lanes per warp
	RCPUs       int // reciprocal/transcendental units, FPUs/RCPUs must divide evenly
	IexecStages int // IExecute pipeline depth, used for SIDIV stall sizing
}

// Stats accumulates the performance counters §4.3/§8 expect IDecode to
// expose, mirroring compute_stats::{raw_stalls,rf_bank_conflict_stalls,
// resource_busy_stalls}.
type Stats struct {
	RawStalls          uint64
	BankConflictStalls uint64
	ResourceBusyStalls uint64
}

// Common holds the decode state shared between the single-stage and
// three-stage variants: warp/sub-column enumeration, the SIDIV/SIMOD
// serializer, and the flush/CPOP-injection state machine.
type Common struct {
	cfg Config

	activeWarp int
	lastWarp   int

	sidivPipeStall      int
	sidivIssueDistStall int

	cpopCanInject bool

	stats Stats
}

// NewCommon constructs shared decode state for the given sizing.
func NewCommon(cfg Config) *Common {
	return &Common{cfg: cfg}
}

// Stats returns the accumulated performance counters.
func (c *Common) Stats() Stats { return c.stats }

// Col returns the currently active warp column for op: the full active
// warp for ordinary vector instructions, or the warp group for an RCPU
// op (which has fewer physical units than FPUs).
func (c *Common) Col(op *isa.Instruction) int {
	if isa.IsRCPU(op.Op) {
		return c.activeWarp / (c.cfg.FPUs / c.cfg.RCPUs)
	}
	return c.activeWarp
}

// Subcol returns the currently active RCPU sub-column: always zero for
// non-RCPU ops, since only RCPU ops split a warp across multiple cycles.
func (c *Common) Subcol(op *isa.Instruction) int {
	if isa.IsRCPU(op.Op) {
		return c.activeWarp % (c.cfg.FPUs / c.cfg.RCPUs)
	}
	return 0
}

// AddImplicitSrc fills in source operands the assembler leaves implicit,
// per §4.3's implicit-operand injection rules.
func AddImplicitSrc(op *isa.Instruction) {
	switch op.Op {
	case isa.OpLDGLIN, isa.OpSTGLIN, isa.OpLDSLIN, isa.OpSTSLIN:
		for op.NumSrc < 2 {
			op.Src[op.NumSrc] = isa.ImmOperand(0)
			op.NumSrc++
		}
	case isa.OpLDGBIDX, isa.OpSTGBIDX, isa.OpLDGIDXIT, isa.OpSTGIDXIT:
		// BIDX/IDXIT sweep by the per-lane index vc.mem_idx names,
		// routed into Src[1] the same way LIN routes its offset there;
		// Src[0] pads to the load placeholder / store data register.
		if op.NumSrc < 1 {
			op.Src[0] = isa.ImmOperand(0)
			op.NumSrc = 1
		}
		if op.NumSrc < 2 {
			op.Src[1] = isa.RegOperand(isa.NewVector(op.Slot, isa.KindVSP, isa.VSPMemIdx, 0))
			op.NumSrc = 2
		}
	case isa.OpEXIT:
		if op.NumSrc == 0 {
			op.Src[0] = isa.RegOperand(isa.NewVector(op.Slot, isa.KindVSP, isa.VSPOne, 0))
			op.NumSrc = 1
		}
	case isa.OpCALL:
		if op.NumSrc == 1 {
			op.Src[1] = isa.RegOperand(isa.NewVector(op.Slot, isa.KindVSP, isa.VSPOne, 0))
			op.NumSrc = 2
		}
	case isa.OpCPUSHIf:
		addCtrlSrcIfMissing(op, isa.VSPCtrlRun)
	case isa.OpCPUSHBrk:
		addCtrlSrcIfMissing(op, isa.VSPCtrlBreak)
	case isa.OpCPUSHRet:
		addCtrlSrcIfMissing(op, isa.VSPCtrlRet)
	}
}

func addCtrlSrcIfMissing(op *isa.Instruction, row int) {
	if op.NumSrc >= 2 {
		return
	}
	op.Src[op.NumSrc] = isa.RegOperand(isa.NewVector(op.Slot, isa.KindVSP, row, 0))
	op.NumSrc++
}

// writesCMASK reports whether op's destination is one of the four
// control-mask VSP rows.
func writesCMASK(op *isa.Instruction) bool {
	if !op.HasDst || op.Dst.Kind != isa.OperandReg || op.Dst.Reg.Kind != isa.KindVSP {
		return false
	}
	switch op.Dst.Reg.Row {
	case isa.VSPCtrlRun, isa.VSPCtrlBreak, isa.VSPCtrlRet, isa.VSPCtrlExit:
		return true
	default:
		return false
	}
}

// ProcessImplicitDst assigns destinations the assembler leaves implicit
// and manages the commit bit, per §4.3/§4.4.
func (c *Common) ProcessImplicitDst(op *isa.Instruction) {
	if isa.IsRCPU(op.Op) {
		op.SetCommit(c.Subcol(op) == c.cfg.FPUs/c.cfg.RCPUs-1)
	}

	switch op.Op {
	case isa.OpBRA, isa.OpCMASK:
		setVSPDst(op, isa.VSPCtrlRun)
	case isa.OpBRK:
		setVSPDst(op, isa.VSPCtrlBreak)
	case isa.OpEXIT:
		setVSPDst(op, isa.VSPCtrlExit)
	case isa.OpCALL:
		setVSPDst(op, isa.VSPCtrlRet)
	case isa.OpLDGBIDX, isa.OpSTGBIDX, isa.OpLDGCIDX, isa.OpSTGCIDX,
		isa.OpLDGIDXIT, isa.OpSTGIDXIT, isa.OpLDSCIDX, isa.OpSTSCIDX:
		setVSPDst(op, isa.VSPMemData)
	}

	if writesCMASK(op) {
		op.SetCommit(c.activeWarp == c.lastWarp)
	}
}

func setVSPDst(op *isa.Instruction, row int) {
	op.Dst = isa.RegOperand(isa.NewVector(op.Slot, isa.KindVSP, row, 0))
	op.HasDst = true
}

// SelectInput bundles the per-cycle pipeline-control inputs select_op
// reacts to, mirroring IDecode::select_op's in_* ports.
type SelectInput struct {
	WGFinished    bool
	PipeFlush     bool
	ThreadActive  bool
	StallF        bool
	Fetched       isa.Instruction // instruction presented by IFetch this cycle
	FetchedPC     int
	LastWarpInput int // in_last_warp for the active work-group
}

// SelectOp picks the next operation to carry into the decode pipeline,
// translating IDecode::select_op's flush/CPOP-injection state machine. op
// holds the previous cycle's instruction on entry and the selected one on
// return; pc is updated only when a new instruction is fetched.
func (c *Common) SelectOp(op *isa.Instruction, pc *int, in SelectInput) {
	switch {
	case in.WGFinished:
		*op = isa.Instruction{}
		op.MarkDead()
		c.activeWarp = 0
		c.lastWarp = 0

	case in.PipeFlush:
		if !op.Injected() || c.activeWarp == 0 {
			c.activeWarp = 0
			c.lastWarp = 0
			*op = isa.Instruction{}
			op.MarkDead()
			c.cpopCanInject = true
		}
		// Else: an injected CPOP continues issuing through the flush.

	case !in.ThreadActive && !in.StallF:
		switch {
		case c.cpopCanInject:
			*op = isa.Instruction{Op: isa.OpCPOP}
			op.Flags |= isa.FlagInjected
			c.lastWarp = in.LastWarpInput
			c.activeWarp = 0
			c.cpopCanInject = false
		case c.activeWarp == 0:
			*op = isa.Instruction{}
			op.MarkDead()
			c.activeWarp = 0
			c.lastWarp = 0
		}

	case c.activeWarp == 0 && !in.StallF:
		*op = in.Fetched
		*pc = in.FetchedPC

		if op.IsVectorOp() {
			c.lastWarp = in.LastWarpInput
		} else {
			c.lastWarp = 0
		}
		if isa.IsRCPU(op.Op) {
			c.lastWarp = (c.lastWarp+1)*(c.cfg.FPUs/c.cfg.RCPUs) - 1
		}
		AddImplicitSrc(op)

	default:
		// Continue executing the current multi-cycle op.
	}
}

// SetSidivStallCounters starts the SIDIV/SIMOD occupancy counters after
// issuing one, per §4.3's scheduling policy.
func (c *Common) SetSidivStallCounters() {
	c.sidivIssueDistStall = 8
	stall := 8 - c.cfg.IexecStages
	if stall < 0 {
		stall = 0
	}
	c.sidivPipeStall = stall
}

// DecrementSidivStallCounters ages the SIDIV/SIMOD counters by one cycle.
func (c *Common) DecrementSidivStallCounters() {
	if c.sidivIssueDistStall > 0 {
		c.sidivIssueDistStall--
	}
	if c.sidivPipeStall > 0 {
		c.sidivPipeStall--
	}
}

// CanIssue reports whether op may advance from IDecode to IExecute this
// cycle given the CPOP/SIDIV scheduling constraints.
func (c *Common) CanIssue(op *isa.Instruction, cpopStall bool) bool {
	switch {
	case op.Op == isa.OpCPOP && !op.Dead() && cpopStall:
		return false
	case op.Op == isa.OpSIDIV || op.Op == isa.OpSIMOD:
		return c.sidivIssueDistStall == 0
	default:
		return c.sidivPipeStall == 0
	}
}

// ForwardReadReq fills in one read-request slot for the register file,
// deriving the register reference for source i of op at column col in
// work-group slot wg. RCPU ops issue their read only once per warp, on
// the first sub-column.
func ForwardReadReq(i int, op *isa.Instruction, col, subcol, wg int) scoreboard.ReadRequest {
	if isa.IsRCPU(op.Op) && subcol != 0 {
		return scoreboard.ReadRequest{}
	}
	src := op.Src[i]
	if !src.IsRegister() {
		return scoreboard.ReadRequest{Valid: true}
	}
	r := src.Reg
	r.Slot = wg
	if r.Kind.IsVector() {
		r.Col = col
	}
	return scoreboard.ReadRequest{Valid: true, Reg: r}
}

// DstRegister returns the destination register reference for op at
// column col in work-group slot wg, as the scoreboard write-enqueue
// wants it.
func DstRegister(op *isa.Instruction, col, wg int) isa.Register {
	r := op.Dst.Reg
	r.Slot = wg
	if r.Kind.IsVector() {
		r.Col = col
	}
	return r
}

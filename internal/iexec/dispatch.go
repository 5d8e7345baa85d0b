/*
   Sim-D: IExecute opcode dispatch.

   Grounded on src/compute/control/IExecute.h's do_* method bodies: for
   each opcode, compute the pipeline register's write-back fields
   combinationally from the forwarded operands. Branch-carrying ops
   (BRA, CALL, CPUSH*) take their target from Src[0] (an assembler-
   resolved Operand of kind Label) and their mask/predicate from Src[1];
   this mirrors the doc comments on the isa opcode table ("CMASK(~src1)",
   "push {mask=src1, pc=target, ...}") once src1/src2/src3 are read as
   Src[0]/Src[1]/Src[2].

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
	"github.com/simd-sim/simd/internal/simassert"
)

func (x *IExecute) execute(op *isa.Instruction, in CycleInput, out *Pipe) {
	wg := op.Slot

	dstReg := func() isa.Register {
		r := op.Dst.Reg
		r.Slot = wg
		if r.Kind.IsVector() {
			r.Col = op.ColW
		}
		return r
	}

	writeVec := func(data []uint32) {
		out.OutW = true
		out.ReqW = dstReg()
		out.ColMaskW = op.ColW
		copy(out.DataW, data)
	}

	switch op.Op {
	case isa.OpMOV, isa.OpSMOV:
		writeVec(in.Operand[0])

	case isa.OpADD:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a + b })
		writeVec(out.DataW)
	case isa.OpSUB:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a - b })
		writeVec(out.DataW)
	case isa.OpMUL:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a * b })
		writeVec(out.DataW)
	case isa.OpMAD:
		madLane(out.DataW, in.Operand[0], in.Operand[1], in.Operand[2])
		writeVec(out.DataW)
	case isa.OpAND:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a & b })
		writeVec(out.DataW)
	case isa.OpOR:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a | b })
		writeVec(out.DataW)
	case isa.OpXOR:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a ^ b })
		writeVec(out.DataW)
	case isa.OpSHL:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a << uint32(b&31) })
		writeVec(out.DataW)
	case isa.OpSHR:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 { return a >> uint32(b&31) })
		writeVec(out.DataW)
	case isa.OpSIDIV:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 {
			if b == 0 {
				return 0
			}
			return a / b
		})
		writeVec(out.DataW)
	case isa.OpSIMOD:
		aluLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b int32) int32 {
			if b == 0 {
				return 0
			}
			return a % b
		})
		writeVec(out.DataW)

	case isa.OpFADD:
		fpuLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b float32) float32 { return a + b })
		writeVec(out.DataW)
	case isa.OpFSUB:
		fpuLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b float32) float32 { return a - b })
		writeVec(out.DataW)
	case isa.OpFMUL:
		fpuLane(out.DataW, in.Operand[0], in.Operand[1], func(a, b float32) float32 { return a * b })
		writeVec(out.DataW)
	case isa.OpRCP:
		rcpLane(out.DataW, in.Operand[0], func(a float32) float32 { return 1 / a })
		writeVec(out.DataW)
	case isa.OpRSQRT:
		rcpLane(out.DataW, in.Operand[0], rsqrt)
		writeVec(out.DataW)
	case isa.OpSIN:
		rcpLane(out.DataW, in.Operand[0], sin32)
		writeVec(out.DataW)
	case isa.OpCOS:
		rcpLane(out.DataW, in.Operand[0], cos32)
		writeVec(out.DataW)

	case isa.OpCMASK:
		x.writeInvertedPredicate(op, in.Operand[0], out)
	case isa.OpBRK:
		x.writeInvertedPredicate(op, in.Operand[0], out)
	case isa.OpEXIT:
		x.writeInvertedPredicate(op, in.Operand[0], out)
		if op.Commit() {
			out.WGExitCommit[wg] = true
		}

	case isa.OpBRA:
		x.writeInvertedPredicate(op, in.Operand[1], out)
		x.accumulatePush(op, in.Operand[1], in.PC+1, cstack.MaskRun, out)
		out.PCDoW = true
		out.PCW = op.Src[0].PC

	case isa.OpCALL:
		writeVec(in.Operand[1])
		x.accumulatePush(op, in.Operand[1], in.PC+1, cstack.MaskRet, out)
		out.PCDoW = true
		out.PCW = op.Src[0].PC

	case isa.OpCPUSHIf, isa.OpCPUSHBrk, isa.OpCPUSHRet:
		x.accumulatePush(op, in.Operand[1], op.Src[0].PC, maskTypeForPush(op.Op), out)

	case isa.OpCPOP:
		x.executeCPOP(op, in, out)

	case isa.OpLDGLIN, isa.OpSTGLIN, isa.OpLDGCIDX, isa.OpSTGCIDX,
		isa.OpLDGBIDX, isa.OpSTGBIDX, isa.OpLDGIDXIT, isa.OpSTGIDXIT,
		isa.OpLDSLIN, isa.OpSTSLIN, isa.OpLDSCIDX, isa.OpSTSCIDX:
		x.executeMemory(op, in, out)
	}
}

// writeInvertedPredicate implements do_CMASK: the destination CMASK row
// (already resolved to vc.ctrl_run/break/exit by decode's
// ProcessImplicitDst) receives the bitwise inverse of the predicate
// operand, one bit per lane.
func (x *IExecute) writeInvertedPredicate(op *isa.Instruction, predicate []uint32, out *Pipe) {
	out.OutW = true
	r := op.Dst.Reg
	r.Slot = op.Slot
	r.Col = op.ColW
	out.ReqW = r
	out.ColMaskW = op.ColW
	for i, v := range predicate {
		if v != 0 {
			out.DataW[i] = 0
		} else {
			out.DataW[i] = 1
		}
	}
}

// accumulatePush folds this cycle's lanes-wide slice of the push mask
// into the shadow entry at op's warp column, and snapshots + emits the
// push action once the final sub-warp commits, mirroring how the
// original accumulates cstack_entry.pred_mask across warp cycles before
// committing it on the last one.
func (x *IExecute) accumulatePush(op *isa.Instruction, maskSrc []uint32, pc int, mtype cstack.MaskType, out *Pipe) {
	var word uint32
	for i, v := range maskSrc {
		if v != 0 {
			word |= 1 << uint(i)
		}
	}
	x.cstackShadow.Mask.SetLaneWord(op.ColW, x.cfg.Lanes, word)
	x.cstackShadow.PC = pc
	x.cstackShadow.Type = mtype

	if op.Commit() {
		out.CStackAction = cstack.Push
		out.CStackEntry = cstack.Entry{Mask: x.cstackShadow.Mask.Clone(), PC: pc, Type: mtype}
		x.resetCStackShadow()
	}
}

// executeCPOP reads the control stack's top entry combinationally,
// writes its mask's lanes for this warp column into whatever CMASK row
// the entry's type names (ignoring the natural active-thread write
// mask, since re-convergence must land regardless of who is currently
// active), and on the final sub-warp pops the stack and restores PC.
func (x *IExecute) executeCPOP(op *isa.Instruction, in CycleInput, out *Pipe) {
	row := isa.VSPCtrlRun
	switch in.CStackTop.Type {
	case cstack.MaskBreak:
		row = isa.VSPCtrlBreak
	case cstack.MaskRet:
		row = isa.VSPCtrlRet
	}

	out.OutW = true
	out.ReqW = isa.NewVector(op.Slot, isa.KindVSP, row, op.ColW)
	out.ColMaskW = op.ColW
	out.IgnoreMaskW = true

	word := in.CStackTop.Mask.LaneWord(op.ColW, x.cfg.Lanes)
	for i := range out.DataW {
		if word&(1<<uint(i)) != 0 {
			out.DataW[i] = 1
		} else {
			out.DataW[i] = 0
		}
	}

	if op.Commit() {
		out.CStackAction = cstack.Pop
		out.DequeueSBCStack = true
		out.PCDoW = true
		out.PCW = in.CStackTop.PC
	}
}

// executeMemory builds the stride-descriptor request a load/store kicks
// off to its front-end, using the mapped buffer geometry decode forwarded
// this cycle. Each addressing variant builds the descriptor its own way,
// per §4.4: LIN walks a dense BUS_WIDTH-wide transfer (idx_transform
// fixed at UNIT — one word per lane — since the assembly syntax carries
// no VEC2/VEC4 immediate); CIDX consumes the SSP stride-descriptor
// triple; BIDX sweeps the whole bound buffer as one dense transfer;
// IDXIT sweeps it index-at-a-time from the per-lane vc.mem_idx values
// AddImplicitSrc already routed into Src[1]. A load's Src[0] is an unused
// placeholder (the loaded value has nowhere to read from yet); a store's
// Src[0] is the data register, copied into the descriptor so the
// front-end has something to burst out.
func (x *IExecute) executeMemory(op *isa.Instruction, in CycleInput, out *Pipe) {
	geom := in.XlatPhys
	target := memreq.IfDRAM
	if !isa.IsDRAM(op.Op) {
		geom = in.SPXlatPhys
		if op.Slot == 0 {
			target = memreq.IfSPWG0
		} else {
			target = memreq.IfSPWG1
		}
	}

	offset := uint32(0)
	if len(in.Operand[1]) > 0 {
		offset = in.Operand[1][0]
	}

	desc := memreq.Descriptor{
		Ticket:    x.ticketPush,
		Write:     isa.IsStore(op.Op),
		DstOffset: op.ColW,
		DstPeriod: 1,
	}

	switch op.Op {
	case isa.OpLDGBIDX, isa.OpSTGBIDX:
		words := geom.DimX * geom.DimY
		desc.Addr = geom.Addr
		desc.Words = words
		desc.Period = words
		desc.PeriodCount = 1

	case isa.OpLDGIDXIT, isa.OpSTGIDXIT:
		desc.Kind = memreq.KindIdxIt
		desc.Addr = geom.Addr
		desc.Indices = append([]uint32(nil), in.Operand[1]...)

	case isa.OpLDGCIDX, isa.OpSTGCIDX, isa.OpLDSCIDX, isa.OpSTSCIDX:
		sd := in.SD[op.Slot]
		if sd.Period == 0 {
			simassert.Raise("descriptor-period-zero", "slot %d stride descriptor has period 0", op.Slot)
		}
		desc.Addr = geom.Addr + offset
		desc.Words, desc.Period, desc.PeriodCount = sd.Words, sd.Period, sd.PeriodCount

	default: // OpLDGLIN, OpSTGLIN, OpLDSLIN, OpSTSLIN
		desc.Addr = geom.Addr + offset
		desc.Words = x.cfg.Lanes
		desc.Period = x.cfg.Lanes
		desc.PeriodCount = 1
	}

	if op.HasDst {
		r := op.Dst.Reg
		r.Slot = op.Slot
		r.Col = op.ColW
		desc.Dst = r
	}
	if desc.Write {
		desc.Data = append([]uint32(nil), in.Operand[0]...)
	}
	x.ticketPush++

	out.StoreTarget = target
	out.DescFIFO = desc
	if isa.IsDRAM(op.Op) {
		out.WGStateNext[op.Slot] = WGStateBlockedDRAM
	} else {
		out.WGStateNext[op.Slot] = WGStateBlockedSP
	}
}

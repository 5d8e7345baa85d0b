/*
   Sim-D: opcode table and instruction model.

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

package isa

// Opcode identifies the operation an Instruction performs. Comments note
// the operand shape the same way the legacy mainframe opcode table does:
// which sources are implied and how many are explicit.
const (
	OpNOP = iota // no operands; pipeline bubble placeholder

	// Data movement.
	OpMOV  // dst = src1                              (vector or scalar)
	OpSMOV // dst(scalar) = src1(scalar)

	// Integer / bitwise ALU, three-operand form dst = src1 OP src2.
	OpADD
	OpSUB
	OpMUL
	OpMAD // dst = src1*src2 + src3
	OpAND
	OpOR
	OpXOR
	OpSHL
	OpSHR
	OpSIDIV // dst = src1 / src2, 8-cycle divider occupancy
	OpSIMOD // dst = src1 % src2, 8-cycle divider occupancy

	// Floating point, single-lane-at-commit short-cuts per spec §4.4.
	OpFADD
	OpFSUB
	OpFMUL
	OpRCP   // dst = 1/src1
	OpRSQRT // dst = 1/sqrt(src1)
	OpSIN
	OpCOS

	// Control flow / divergence management.
	OpCMASK     // dst(CMASK) = ~src1 (predicate inverse)
	OpBRK       // writes ctrl_break = ~src1
	OpBRA       // CPUSH.if(fallthrough) + CMASK(~src1), branch to target
	OpCALL      // CPUSH.ret(PC+1) + CMASK-for-call, branch to target
	OpEXIT      // writes ctrl_exit = ~src1 (or all-ones if no operand)
	OpCPUSHIf   // push {mask=src1, pc=target, RUN}
	OpCPUSHBrk  // push {mask=src1, pc=target, BREAK}
	OpCPUSHRet  // push {mask=src1, pc=target, RET}
	OpCPOP      // pop and restore PC/CMASK

	// Memory: LIN variants use SSP stride registers implicitly for
	// period/words via the offset operand; CIDX consumes the
	// SSP stride-descriptor triple; BIDX/IDXIT sweep a whole buffer by
	// index register.
	OpLDGLIN  // DRAM linear strided load
	OpSTGLIN  // DRAM linear strided store
	OpLDGCIDX // DRAM contiguous-index strided load
	OpSTGCIDX // DRAM contiguous-index strided store
	OpLDGBIDX // DRAM buffer-indexed load (full sweep)
	OpSTGBIDX // DRAM buffer-indexed store (full sweep)
	OpLDGIDXIT // DRAM indexed-iteration load
	OpSTGIDXIT // DRAM indexed-iteration store
	OpLDSLIN  // scratchpad linear strided load
	OpSTSLIN  // scratchpad linear strided store
	OpLDSCIDX // scratchpad contiguous-index strided load
	OpSTSCIDX // scratchpad contiguous-index strided store

	opSentinel
)

// Category groups opcodes for the performance counters named in spec §8
// scenario A (CAT_DATA_COPY, CAT_CTRLFLOW) and used throughout debug trace.
type Category int

const (
	CatDataCopy Category = iota
	CatALU
	CatFPU
	CatRCP
	CatCtrlFlow
	CatMemory
	CatSentinel
)

var opCategory = [opSentinel]Category{
	OpNOP:      CatALU,
	OpMOV:      CatDataCopy,
	OpSMOV:     CatDataCopy,
	OpADD:      CatALU,
	OpSUB:      CatALU,
	OpMUL:      CatALU,
	OpMAD:      CatALU,
	OpAND:      CatALU,
	OpOR:       CatALU,
	OpXOR:      CatALU,
	OpSHL:      CatALU,
	OpSHR:      CatALU,
	OpSIDIV:    CatALU,
	OpSIMOD:    CatALU,
	OpFADD:     CatFPU,
	OpFSUB:     CatFPU,
	OpFMUL:     CatFPU,
	OpRCP:      CatRCP,
	OpRSQRT:    CatRCP,
	OpSIN:      CatRCP,
	OpCOS:      CatRCP,
	OpCMASK:    CatCtrlFlow,
	OpBRK:      CatCtrlFlow,
	OpBRA:      CatCtrlFlow,
	OpCALL:     CatCtrlFlow,
	OpEXIT:     CatCtrlFlow,
	OpCPUSHIf:  CatCtrlFlow,
	OpCPUSHBrk: CatCtrlFlow,
	OpCPUSHRet: CatCtrlFlow,
	OpCPOP:     CatCtrlFlow,
	OpLDGLIN:   CatMemory,
	OpSTGLIN:   CatMemory,
	OpLDGCIDX:  CatMemory,
	OpSTGCIDX:  CatMemory,
	OpLDGBIDX:  CatMemory,
	OpSTGBIDX:  CatMemory,
	OpLDGIDXIT: CatMemory,
	OpSTGIDXIT: CatMemory,
	OpLDSLIN:   CatMemory,
	OpSTSLIN:   CatMemory,
	OpLDSCIDX:  CatMemory,
	OpSTSCIDX:  CatMemory,
}

// CategoryOf returns an opcode's performance-counter category.
func CategoryOf(op int) Category {
	if op < 0 || op >= opSentinel {
		return CatALU
	}
	return opCategory[op]
}

// IsMemory reports whether op initiates an asynchronous DRAM or
// scratchpad transfer rather than completing combinationally at commit.
func IsMemory(op int) bool {
	return CategoryOf(op) == CatMemory
}

// IsDRAM reports whether a memory opcode targets the DRAM front-end
// (as opposed to the per-work-group scratchpad).
func IsDRAM(op int) bool {
	switch op {
	case OpLDGLIN, OpSTGLIN, OpLDGCIDX, OpSTGCIDX, OpLDGBIDX, OpSTGBIDX, OpLDGIDXIT, OpSTGIDXIT:
		return true
	default:
		return false
	}
}

// IsStore reports whether a memory opcode writes to the backing store.
func IsStore(op int) bool {
	switch op {
	case OpSTGLIN, OpSTGCIDX, OpSTGBIDX, OpSTGIDXIT, OpSTSLIN, OpSTSCIDX:
		return true
	default:
		return false
	}
}

// Flag bits attached to an in-flight Instruction.
type Flag uint16

const (
	FlagDead Flag = 1 << iota // pipeline bubble; never writes back
	FlagOnScoreboard
	FlagOnCStackScoreboard
	FlagCommit   // last sub-warp of a vector instruction
	FlagInjected // synthesized by the pipeline (implicit CPOP, implicit operands)
	FlagPostExit // store folded with an EXIT
)

// Instruction is the decoded form of one kernel program line: an opcode,
// optional sub-op, optional destination, and up to three sources.
type Instruction struct {
	Op       int
	SubOp    int
	Slot     int
	Dst      Operand
	HasDst   bool
	Src      [3]Operand
	NumSrc   int
	Flags    Flag
	ColW     int // active warp column for vector enumeration
	SubCol   int // RCPU sub-column within a warp
	PC       int
}

func (i *Instruction) set(f Flag)      { i.Flags |= f }
func (i *Instruction) clear(f Flag)    { i.Flags &^= f }
func (i *Instruction) has(f Flag) bool { return i.Flags&f != 0 }

// Dead reports whether this instruction is a pipeline bubble.
func (i *Instruction) Dead() bool { return i.has(FlagDead) }

// MarkDead turns the instruction into a bubble, preserving its PC slot.
func (i *Instruction) MarkDead() {
	i.set(FlagDead)
	i.HasDst = false
}

// Commit reports whether this is the final sub-warp of a vector op.
func (i *Instruction) Commit() bool { return i.has(FlagCommit) }

// SetCommit marks/unmarks the final-sub-warp flag.
func (i *Instruction) SetCommit(v bool) {
	if v {
		i.set(FlagCommit)
	} else {
		i.clear(FlagCommit)
	}
}

// Injected reports whether the pipeline synthesized this instruction
// (e.g. an implicit CPOP after a flush) rather than fetching it.
func (i *Instruction) Injected() bool { return i.has(FlagInjected) }

// PostExit reports whether a store was folded together with an EXIT.
func (i *Instruction) PostExit() bool { return i.has(FlagPostExit) }

// OnScoreboard reports whether a destination-register scoreboard entry
// has already been enqueued for this instruction, so a multi-cycle
// decoder doesn't enqueue it twice.
func (i *Instruction) OnScoreboard() bool { return i.has(FlagOnScoreboard) }

// SetOnScoreboard marks/unmarks the destination-register scoreboard
// enqueue bit.
func (i *Instruction) SetOnScoreboard(v bool) {
	if v {
		i.set(FlagOnScoreboard)
	} else {
		i.clear(FlagOnScoreboard)
	}
}

// OnCStackScoreboard reports whether a CSTACK-write scoreboard marker has
// already been enqueued for this instruction.
func (i *Instruction) OnCStackScoreboard() bool { return i.has(FlagOnCStackScoreboard) }

// SetOnCStackScoreboard marks/unmarks the CSTACK-write scoreboard enqueue
// bit.
func (i *Instruction) SetOnCStackScoreboard(v bool) {
	if v {
		i.set(FlagOnCStackScoreboard)
	} else {
		i.clear(FlagOnCStackScoreboard)
	}
}

// IsVectorOp reports whether the destination of this instruction, if any,
// is a vector-kind register — used to decide whether warp enumeration is
// required at decode and whether the commit flag is meaningful.
func (i *Instruction) IsVectorOp() bool {
	return i.HasDst && i.Dst.Kind == OperandReg && i.Dst.Reg.Kind.IsVector()
}

// IsRCPU reports whether this opcode serializes sub-warps onto the
// reciprocal/transcendental unit.
func IsRCPU(op int) bool {
	switch op {
	case OpRCP, OpRSQRT, OpSIN, OpCOS:
		return true
	default:
		return false
	}
}

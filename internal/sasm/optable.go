/*
   Sim-D: per-opcode operand assembly.

   Each opTable entry knows how to lay out its text operands into an
   isa.Instruction's Dst/Src slots. Operand counts mirror what decode's
   AddImplicitSrc/ProcessImplicitDst (internal/idecode/common.go) fill
   in when the assembler leaves them out: CMASK/BRK/EXIT/BRA/CALL/
   CPUSH* never carry an explicit Dst (decode assigns the CMASK row
   itself), and CALL/EXIT/CPUSH* accept a shorter operand list than
   dispatch.go ultimately reads because decode pads the missing
   predicate with an implicit vc.one/vc.ctrl_* operand.

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

package sasm

import (
	"errors"
	"fmt"

	"github.com/simd-sim/simd/internal/isa"
)

type opSpec struct {
	op       int
	assemble func(insn *isa.Instruction, ops []string, labels map[string]int) error
}

var opTable = map[string]opSpec{
	"NOP": {isa.OpNOP, assembleNone},

	"MOV":  {isa.OpMOV, assembleDstSrc1},
	"SMOV": {isa.OpSMOV, assembleDstSrc1},

	"ADD": {isa.OpADD, assembleDstSrc2},
	"SUB": {isa.OpSUB, assembleDstSrc2},
	"MUL": {isa.OpMUL, assembleDstSrc2},
	"MAD": {isa.OpMAD, assembleDstSrc3},
	"AND": {isa.OpAND, assembleDstSrc2},
	"OR":  {isa.OpOR, assembleDstSrc2},
	"XOR": {isa.OpXOR, assembleDstSrc2},
	"SHL": {isa.OpSHL, assembleDstSrc2},
	"SHR": {isa.OpSHR, assembleDstSrc2},
	"SIDIV": {isa.OpSIDIV, assembleDstSrc2},
	"SIMOD": {isa.OpSIMOD, assembleDstSrc2},

	"FADD": {isa.OpFADD, assembleDstSrc2},
	"FSUB": {isa.OpFSUB, assembleDstSrc2},
	"FMUL": {isa.OpFMUL, assembleDstSrc2},
	"RCP":   {isa.OpRCP, assembleDstSrc1},
	"RSQRT": {isa.OpRSQRT, assembleDstSrc1},
	"SIN":   {isa.OpSIN, assembleDstSrc1},
	"COS":   {isa.OpCOS, assembleDstSrc1},

	"CMASK": {isa.OpCMASK, assemblePredOnly},
	"BRK":   {isa.OpBRK, assemblePredOnly},
	"EXIT":  {isa.OpEXIT, assembleExit},
	"BRA":   {isa.OpBRA, assembleBranch},
	"CALL":  {isa.OpCALL, assembleCall},

	"CPUSH.IF":  {isa.OpCPUSHIf, assembleCPush},
	"CPUSH.BRK": {isa.OpCPUSHBrk, assembleCPush},
	"CPUSH.RET": {isa.OpCPUSHRet, assembleCPush},
	"CPOP":      {isa.OpCPOP, assembleNone},

	"LDG.LIN": {isa.OpLDGLIN, assembleLoadLin},
	"STG.LIN": {isa.OpSTGLIN, assembleStoreLin},
	"LDS.LIN": {isa.OpLDSLIN, assembleLoadLin},
	"STS.LIN": {isa.OpSTSLIN, assembleStoreLin},

	"LDG.CIDX":  {isa.OpLDGCIDX, assembleMemIdx},
	"STG.CIDX":  {isa.OpSTGCIDX, assembleMemIdx},
	"LDG.BIDX":  {isa.OpLDGBIDX, assembleMemIdx},
	"STG.BIDX":  {isa.OpSTGBIDX, assembleMemIdx},
	"LDG.IDXIT": {isa.OpLDGIDXIT, assembleMemIdx},
	"STG.IDXIT": {isa.OpSTGIDXIT, assembleMemIdx},
	"LDS.CIDX":  {isa.OpLDSCIDX, assembleMemIdx},
	"STS.CIDX":  {isa.OpSTSCIDX, assembleMemIdx},
}

func wantOperands(ops []string, n int) error {
	if len(ops) != n {
		return fmt.Errorf("expected %d operand(s), got %d", n, len(ops))
	}
	return nil
}

func assembleNone(insn *isa.Instruction, ops []string, labels map[string]int) error {
	return wantOperands(ops, 0)
}

func assembleDstSrc1(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if err := wantOperands(ops, 2); err != nil {
		return err
	}
	dst, err := parseRegister(ops[0])
	if err != nil {
		return err
	}
	src, err := parseOperand(ops[1], labels)
	if err != nil {
		return err
	}
	insn.Dst = isa.RegOperand(dst)
	insn.HasDst = true
	insn.Src[0] = src
	insn.NumSrc = 1
	return nil
}

func assembleDstSrc2(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if err := wantOperands(ops, 3); err != nil {
		return err
	}
	dst, err := parseRegister(ops[0])
	if err != nil {
		return err
	}
	s1, err := parseOperand(ops[1], labels)
	if err != nil {
		return err
	}
	s2, err := parseOperand(ops[2], labels)
	if err != nil {
		return err
	}
	insn.Dst = isa.RegOperand(dst)
	insn.HasDst = true
	insn.Src[0], insn.Src[1] = s1, s2
	insn.NumSrc = 2
	return nil
}

func assembleDstSrc3(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if err := wantOperands(ops, 4); err != nil {
		return err
	}
	dst, err := parseRegister(ops[0])
	if err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		s, err := parseOperand(ops[i+1], labels)
		if err != nil {
			return err
		}
		insn.Src[i] = s
	}
	insn.Dst = isa.RegOperand(dst)
	insn.HasDst = true
	insn.NumSrc = 3
	return nil
}

// assemblePredOnly handles CMASK/BRK: a single predicate source, no
// explicit destination (decode's ProcessImplicitDst assigns the CMASK
// row the instruction writes).
func assemblePredOnly(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if err := wantOperands(ops, 1); err != nil {
		return err
	}
	s, err := parseOperand(ops[0], labels)
	if err != nil {
		return err
	}
	insn.Src[0] = s
	insn.NumSrc = 1
	return nil
}

// assembleExit accepts an optional predicate; decode defaults to
// vc.one (all lanes exit) when it is omitted.
func assembleExit(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if len(ops) > 1 {
		return fmt.Errorf("expected 0 or 1 operand(s), got %d", len(ops))
	}
	for i, o := range ops {
		s, err := parseOperand(o, labels)
		if err != nil {
			return err
		}
		insn.Src[i] = s
	}
	insn.NumSrc = len(ops)
	return nil
}

// assembleBranch handles BRA: a label target and a predicate.
func assembleBranch(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if err := wantOperands(ops, 2); err != nil {
		return err
	}
	label, err := parseLabel(ops[0], labels)
	if err != nil {
		return err
	}
	pred, err := parseOperand(ops[1], labels)
	if err != nil {
		return err
	}
	insn.Src[0], insn.Src[1] = label, pred
	insn.NumSrc = 2
	return nil
}

// assembleCall handles CALL: a label target and an optional predicate
// (decode defaults a missing one to vc.one).
func assembleCall(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if len(ops) != 1 && len(ops) != 2 {
		return fmt.Errorf("expected 1 or 2 operand(s), got %d", len(ops))
	}
	label, err := parseLabel(ops[0], labels)
	if err != nil {
		return err
	}
	insn.Src[0] = label
	insn.NumSrc = 1
	if len(ops) == 2 {
		pred, err := parseOperand(ops[1], labels)
		if err != nil {
			return err
		}
		insn.Src[1] = pred
		insn.NumSrc = 2
	}
	return nil
}

// assembleCPush handles CPUSH.if/brk/ret: a label target and an
// optional predicate (decode defaults a missing one to the matching
// vc.ctrl_* row).
func assembleCPush(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if len(ops) != 1 && len(ops) != 2 {
		return fmt.Errorf("expected 1 or 2 operand(s), got %d", len(ops))
	}
	label, err := parseLabel(ops[0], labels)
	if err != nil {
		return err
	}
	insn.Src[0] = label
	insn.NumSrc = 1
	if len(ops) == 2 {
		pred, err := parseOperand(ops[1], labels)
		if err != nil {
			return err
		}
		insn.Src[1] = pred
		insn.NumSrc = 2
	}
	return nil
}

// assembleLoadLin handles LDG.LIN/LDS.LIN: a destination register and
// an offset; Src[0] is left as the unused placeholder decode's
// AddImplicitSrc would otherwise pad in.
func assembleLoadLin(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if err := wantOperands(ops, 2); err != nil {
		return err
	}
	dst, err := parseRegister(ops[0])
	if err != nil {
		return err
	}
	off, err := parseOperand(ops[1], labels)
	if err != nil {
		return err
	}
	insn.Dst = isa.RegOperand(dst)
	insn.HasDst = true
	insn.Src[0] = isa.ImmOperand(0)
	insn.Src[1] = off
	insn.NumSrc = 2
	return nil
}

// assembleStoreLin handles STG.LIN/STS.LIN: the register holding the
// data to store, and an offset. Stores have no destination; Src[0] is
// the data register dispatch.go copies into the descriptor's Data
// field.
func assembleStoreLin(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if err := wantOperands(ops, 2); err != nil {
		return err
	}
	data, err := parseOperand(ops[0], labels)
	if err != nil {
		return err
	}
	off, err := parseOperand(ops[1], labels)
	if err != nil {
		return err
	}
	insn.Src[0] = data
	insn.Src[1] = off
	insn.NumSrc = 2
	return nil
}

// assembleMemIdx handles the CIDX/BIDX/IDXIT families. The original
// implementation sweeps a whole buffer by index register through a
// stride-descriptor triple that has no concrete operand encoding
// anywhere in isa/idecode/iexec (cluster.go's buffer-translation table
// already documents this same gap for its bind calls); until that
// encoding exists this accepts up to two operands and assembles them
// positionally into Src[0]/Src[1], exercising the same implicit
// vc.mem_data destination ProcessImplicitDst assigns every other
// indexed variant.
func assembleMemIdx(insn *isa.Instruction, ops []string, labels map[string]int) error {
	if len(ops) > 2 {
		return fmt.Errorf("expected at most 2 operands, got %d", len(ops))
	}
	for i, o := range ops {
		s, err := parseOperand(o, labels)
		if err != nil {
			return err
		}
		insn.Src[i] = s
	}
	insn.NumSrc = len(ops)
	return nil
}

func parseLabel(s string, labels map[string]int) (isa.Operand, error) {
	pc, ok := labels[s]
	if !ok {
		return isa.Operand{}, errors.New("undefined label " + s)
	}
	return isa.LabelOperand(pc), nil
}

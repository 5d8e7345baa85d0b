/*
   Sim-D: register, immediate, and label operand lexing.

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
	"math"
	"strconv"
	"strings"

	"github.com/simd-sim/simd/internal/isa"
)

// oclConstants names the handful of OpenCL built-in float constants a
// kernel is likely to reach for, each stored as its IEEE-754 bit
// pattern the way any other float immediate is.
var oclConstants = map[string]uint32{
	"FLT_MAX":     math.Float32bits(math.MaxFloat32),
	"FLT_MIN":     math.Float32bits(1.175494351e-38),
	"FLT_EPSILON": math.Float32bits(1.19209290e-07),
	"M_PI_F":      math.Float32bits(math.Pi),
	"M_E_F":       math.Float32bits(math.E),
	"HUGE_VALF":   math.Float32bits(float32(math.Inf(1))),
	"INFINITY":    math.Float32bits(float32(math.Inf(1))),
	"NAN":         math.Float32bits(float32(math.NaN())),
}

// parseOperand lexes a register, immediate, or (for branch/call/cpush
// text that names a PC rather than a value) label reference into an
// isa.Operand. Callers that only ever expect a register (a
// destination slot) use parseRegister instead.
func parseOperand(s string, labels map[string]int) (isa.Operand, error) {
	if reg, ok, err := tryParseRegister(s); err != nil {
		return isa.Operand{}, err
	} else if ok {
		return isa.RegOperand(reg), nil
	}
	if imm, ok, err := tryParseImmediate(s); err != nil {
		return isa.Operand{}, err
	} else if ok {
		return isa.ImmOperand(imm), nil
	}
	if pc, ok := labels[s]; ok {
		return isa.LabelOperand(pc), nil
	}
	return isa.Operand{}, errors.New("unrecognized operand " + s)
}

// parseRegister lexes a register operand only, rejecting anything
// else — used for destination slots, which are never immediates or
// labels.
func parseRegister(s string) (isa.Register, error) {
	reg, ok, err := tryParseRegister(s)
	if err != nil {
		return isa.Register{}, err
	}
	if !ok {
		return isa.Register{}, errors.New("expected a register, got " + s)
	}
	return reg, nil
}

// ParseRegister is parseRegister exported for callers outside the
// assembler — the inspector console's "regs" command lexes the same
// s0/v1/vc.ctrl_run/sc.dim_x spellings to look a register up rather
// than assemble it into an instruction.
func ParseRegister(s string) (isa.Register, error) {
	return parseRegister(s)
}

// tryParseRegister recognizes s<N> (SGPR), v<N> (VGPR), p<N> (PR),
// vc.<alias> (VSP), and sc.<alias> (SSP), the same spellings
// isa.Register.String produces. The returned register's Slot is 0 and
// its Col is 0 for vector kinds — both are rewritten by the cluster's
// resolveOperand at run time to the issuing slot and warp column, so
// the value parsed here is only ever a placeholder.
func tryParseRegister(s string) (isa.Register, bool, error) {
	switch {
	case strings.HasPrefix(s, "vc."):
		row, ok := vcRows[s[3:]]
		if !ok {
			return isa.Register{}, false, errors.New("unknown VSP register " + s)
		}
		return isa.NewVector(0, isa.KindVSP, row, 0), true, nil

	case strings.HasPrefix(s, "sc."):
		row, ok := scRows[s[3:]]
		if !ok {
			return isa.Register{}, false, errors.New("unknown SSP register " + s)
		}
		return isa.NewScalar(0, isa.KindSSP, row), true, nil

	case strings.HasPrefix(s, "s") && isDigitsAfter(s, 1):
		n, _ := strconv.Atoi(s[1:])
		return isa.NewScalar(0, isa.KindSGPR, n), true, nil

	case strings.HasPrefix(s, "v") && isDigitsAfter(s, 1):
		n, _ := strconv.Atoi(s[1:])
		return isa.NewVector(0, isa.KindVGPR, n, 0), true, nil

	case strings.HasPrefix(s, "p") && isDigitsAfter(s, 1):
		n, _ := strconv.Atoi(s[1:])
		return isa.NewVector(0, isa.KindPR, n, 0), true, nil

	default:
		return isa.Register{}, false, nil
	}
}

func isDigitsAfter(s string, from int) bool {
	if len(s) <= from {
		return false
	}
	for i := from; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// vcRows and scRows invert isa's vspSpec/sspSpec alias tables so a
// ".alias" suffix can be looked up directly by name; the row numbering
// itself is owned entirely by isa.Register/isa.VSP*/isa.SSP*.
var vcRows = map[string]int{
	"ctrl_run":   isa.VSPCtrlRun,
	"ctrl_break": isa.VSPCtrlBreak,
	"ctrl_ret":   isa.VSPCtrlRet,
	"ctrl_exit":  isa.VSPCtrlExit,
	"tid_x":      isa.VSPTidX,
	"tid_y":      isa.VSPTidY,
	"lid_x":      isa.VSPLidX,
	"lid_y":      isa.VSPLidY,
	"zero":       isa.VSPZero,
	"one":        isa.VSPOne,
	"mem_idx":    isa.VSPMemIdx,
	"mem_data":   isa.VSPMemData,
}

var scRows = map[string]int{
	"dim_x":         isa.SSPDimX,
	"dim_y":         isa.SSPDimY,
	"wg_off_x":      isa.SSPWGOffX,
	"wg_off_y":      isa.SSPWGOffY,
	"wg_width":      isa.SSPWGWidth,
	"sd_words":      isa.SSPSDWords,
	"sd_period":     isa.SSPSDPeriod,
	"sd_period_cnt": isa.SSPSDPeriodCnt,
}

// tryParseImmediate recognizes hex (0x...), OpenCL float constants,
// float literals (with or without a trailing f), and decimal integers,
// returning the value's raw 32 bits the way isa.Operand.Imm carries
// both integer and float immediates.
func tryParseImmediate(s string) (uint32, bool, error) {
	if v, ok := oclConstants[s]; ok {
		return v, true, nil
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		v, err := strconv.ParseUint(lower[2:], 16, 32)
		if err != nil {
			return 0, false, errors.New("bad hex immediate " + s)
		}
		return uint32(v), true, nil
	}

	if strings.HasSuffix(lower, "f") {
		v, err := strconv.ParseFloat(lower[:len(lower)-1], 32)
		if err != nil {
			return 0, false, errors.New("bad float immediate " + s)
		}
		return math.Float32bits(float32(v)), true, nil
	}

	if strings.ContainsRune(s, '.') {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, false, errors.New("bad float immediate " + s)
		}
		return math.Float32bits(float32(v)), true, nil
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return uint32(int32(v)), true, nil
	}

	return 0, false, nil
}

/*
   Sim-D: register identity and special-purpose register rows.

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

// Kind is the register file a Register selects from.
type Kind int

const (
	KindNone Kind = iota // Empty operand: control-flow ops with no write-back.
	KindSGPR             // Scalar general purpose register.
	KindVGPR             // Vector general purpose register.
	KindPR               // Predicate register.
	KindVSP              // Special vector register (control masks, thread id).
	KindSSP              // Special scalar register (dims, stride descriptor).
	KindIMM              // Immediate operand, carried out of band.
)

func (k Kind) String() string {
	switch k {
	case KindSGPR:
		return "s"
	case KindVGPR:
		return "v"
	case KindPR:
		return "p"
	case KindVSP:
		return "vc"
	case KindSSP:
		return "sc"
	case KindIMM:
		return "imm"
	default:
		return "none"
	}
}

// IsVector reports whether operands of this kind carry one value per lane
// rather than a single scalar value.
func (k Kind) IsVector() bool {
	switch k {
	case KindVGPR, KindPR, KindVSP:
		return true
	default:
		return false
	}
}

// VSP row indices. Rows 0-3 are the four control masks; the rest are
// thread/local IDs, hard-wired constants, and the indexed-memory pair.
const (
	VSPCtrlRun = iota
	VSPCtrlBreak
	VSPCtrlRet
	VSPCtrlExit
	VSPTidX
	VSPTidY
	VSPLidX
	VSPLidY
	VSPZero
	VSPOne
	VSPMemIdx
	VSPMemData
	VSPSentinel
)

// SSP row indices. The kernel-dimension and work-group-offset rows are
// read-only; the stride-descriptor rows are read-write.
const (
	SSPDimX = iota
	SSPDimY
	SSPWGOffX
	SSPWGOffY
	SSPWGWidth
	SSPSDWords
	SSPSDPeriod
	SSPSDPeriodCnt
	SSPSentinel
)

// vspSpec and sspSpec record the alias and read-only-ness of every special
// register row, mirroring the original implementation's RegisterSpec table.
type regSpec struct {
	alias string
	rw    bool
}

var vspSpec = [VSPSentinel]regSpec{
	VSPCtrlRun:   {"ctrl_run", true},
	VSPCtrlBreak: {"ctrl_break", true},
	VSPCtrlRet:   {"ctrl_ret", true},
	VSPCtrlExit:  {"ctrl_exit", true},
	VSPTidX:      {"tid_x", false},
	VSPTidY:      {"tid_y", false},
	VSPLidX:      {"lid_x", false},
	VSPLidY:      {"lid_y", false},
	VSPZero:      {"zero", false},
	VSPOne:       {"one", false},
	VSPMemIdx:    {"mem_idx", true},
	VSPMemData:   {"mem_data", true},
}

var sspSpec = [SSPSentinel]regSpec{
	SSPDimX:        {"dim_x", false},
	SSPDimY:        {"dim_y", false},
	SSPWGOffX:      {"wg_off_x", false},
	SSPWGOffY:      {"wg_off_y", false},
	SSPWGWidth:     {"wg_width", false},
	SSPSDWords:     {"sd_words", true},
	SSPSDPeriod:    {"sd_period", true},
	SSPSDPeriodCnt: {"sd_period_cnt", true},
}

// Register is a tagged-sum register identity: (slot, kind, row, col).
// Scalar kinds force Col to 0; vector kinds carry the column selecting one
// warp's worth of lanes within the work-group.
type Register struct {
	Slot int
	Kind Kind
	Row  int
	Col  int
}

// NewScalar builds a scalar register reference (SGPR, SSP, or IMM row).
func NewScalar(slot int, kind Kind, row int) Register {
	return Register{Slot: slot, Kind: kind, Row: row}
}

// NewVector builds a vector register reference for warp column col.
func NewVector(slot int, kind Kind, row, col int) Register {
	return Register{Slot: slot, Kind: kind, Row: row, Col: col}
}

// Equal reports whether two registers denote the same storage location,
// using the scoreboard's hazard-matching rule: vector kinds must match
// (kind, row, col); scalar kinds match on (kind, row) alone.
func (r Register) Equal(o Register) bool {
	if r.Slot != o.Slot || r.Kind != o.Kind || r.Row != o.Row {
		return false
	}
	if r.Kind.IsVector() {
		return r.Col == o.Col
	}
	return true
}

// ReadOnly reports whether writes to this register must be rejected. Only
// VSP and SSP rows carry a read-only designation; other kinds are always
// writable at the destination they name.
func (r Register) ReadOnly() bool {
	switch r.Kind {
	case KindVSP:
		if r.Row < 0 || r.Row >= VSPSentinel {
			return false
		}
		return !vspSpec[r.Row].rw
	case KindSSP:
		if r.Row < 0 || r.Row >= SSPSentinel {
			return false
		}
		return !sspSpec[r.Row].rw
	default:
		return false
	}
}

// String formats a register the way the kernel assembly syntax spells it,
// e.g. "s0", "v1", "vc.ctrl_run", "sc.sd_words".
func (r Register) String() string {
	switch r.Kind {
	case KindSGPR:
		return "s" + itoa(r.Row)
	case KindVGPR:
		return "v" + itoa(r.Row)
	case KindPR:
		return "p" + itoa(r.Row)
	case KindVSP:
		if r.Row >= 0 && r.Row < VSPSentinel {
			return "vc." + vspSpec[r.Row].alias
		}
		return "vc.?"
	case KindSSP:
		if r.Row >= 0 && r.Row < SSPSentinel {
			return "sc." + sspSpec[r.Row].alias
		}
		return "sc.?"
	case KindIMM:
		return "imm"
	default:
		return "none"
	}
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

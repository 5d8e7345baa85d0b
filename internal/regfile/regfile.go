/*
   Sim-D: the shared register file backing SGPR/VGPR/PR/VSP/SSP reads and
   writes for both work-group slots.

   Grounded on include/model/Register.h / src/model/Register.cpp: register
   storage keyed by (slot, kind, row, col), with the VSP thread/local-ID and
   constant rows computed from a work-group's assigned grid offset rather
   than stored, and VSP/SSP read-only rows rejecting writes.

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

package regfile

import "github.com/simd-sim/simd/internal/isa"

// Config sizes the register file to match the cluster's IExecute/IDecode
// configuration.
type Config struct {
	Lanes   int // FPUS: lanes per warp
	Threads int // threads per work-group; Threads/Lanes is the warp count
	Slots   int // work-group slots sharing this file (2)
}

type vecKey struct{ Slot, Row, Col int }
type scalarKey struct{ Slot, Row int }

// wgOffset records the grid offset and X-extent of the work-group resident
// in a slot, used to compute VSP.tid_x/tid_y/lid_x/lid_y on read.
type wgOffset struct {
	offX, offY int
	width      int // work-group width in threads along X
}

// File is the cluster's shared register storage.
type File struct {
	cfg Config

	sgpr map[scalarKey]uint32
	ssp  map[scalarKey]uint32
	vgpr map[vecKey][]uint32
	pr   map[vecKey][]uint32
	vsp  map[vecKey][]uint32

	wg [2]wgOffset
}

// New constructs an empty register file; every register reads as zero
// until written, matching power-on register contents.
func New(cfg Config) *File {
	return &File{
		cfg:  cfg,
		sgpr: map[scalarKey]uint32{},
		ssp:  map[scalarKey]uint32{},
		vgpr: map[vecKey][]uint32{},
		pr:   map[vecKey][]uint32{},
		vsp:  map[vecKey][]uint32{},
	}
}

// SetWGGrid records the grid offset and X-width of the work-group resident
// in slot, so that reads of VSP.tid_x/tid_y/lid_x/lid_y reflect the
// assignment the dispatcher made.
func (f *File) SetWGGrid(slot, offX, offY, width int) {
	f.wg[slot] = wgOffset{offX: offX, offY: offY, width: width}
}

// Read returns a Lanes-wide slice of operand values for op, broadcasting
// scalar registers and immediates across every lane; vector registers
// return their actual per-lane contents.
func (f *File) Read(op isa.Operand) []uint32 {
	out := make([]uint32, f.cfg.Lanes)
	switch op.Kind {
	case isa.OperandImm:
		broadcast(out, op.Imm)
	case isa.OperandReg:
		f.readReg(op.Reg, out)
	}
	return out
}

func (f *File) readReg(r isa.Register, out []uint32) {
	switch r.Kind {
	case isa.KindSGPR:
		broadcast(out, f.sgpr[scalarKey{r.Slot, r.Row}])
	case isa.KindSSP:
		broadcast(out, f.ssp[scalarKey{r.Slot, r.Row}])
	case isa.KindVGPR:
		copyVec(out, f.vgpr[vecKey{r.Slot, r.Row, r.Col}])
	case isa.KindPR:
		copyVec(out, f.pr[vecKey{r.Slot, r.Row, r.Col}])
	case isa.KindVSP:
		f.readVSP(r, out)
	}
}

func (f *File) readVSP(r isa.Register, out []uint32) {
	switch r.Row {
	case isa.VSPZero:
		return // already zero
	case isa.VSPOne:
		broadcast(out, 1)
	case isa.VSPTidX, isa.VSPTidY, isa.VSPLidX, isa.VSPLidY:
		f.readThreadID(r, out)
	default:
		copyVec(out, f.vsp[vecKey{r.Slot, r.Row, r.Col}])
	}
}

// readThreadID computes per-lane local/global thread coordinates from the
// warp column (register Col) and lane index, linearising threads row-major
// within the work-group's configured width, matching the work-group
// dispatcher's own (offX, offY, width) grid partition.
func (f *File) readThreadID(r isa.Register, out []uint32) {
	g := f.wg[r.Slot]
	width := g.width
	if width <= 0 {
		width = f.cfg.Lanes
	}
	for lane := range out {
		linear := r.Col*f.cfg.Lanes + lane
		lx := linear % width
		ly := linear / width
		switch r.Row {
		case isa.VSPLidX:
			out[lane] = uint32(lx)
		case isa.VSPLidY:
			out[lane] = uint32(ly)
		case isa.VSPTidX:
			out[lane] = uint32(g.offX + lx)
		case isa.VSPTidY:
			out[lane] = uint32(g.offY + ly)
		}
	}
}

// Write commits data (Lanes-wide) to reg. activeMask selects which lanes
// are written, unless ignoreMask is set (CPOP's unconditional CMASK
// write). Writes to a read-only VSP/SSP row are rejected.
func (f *File) Write(reg isa.Register, data []uint32, activeMask uint32, ignoreMask bool) error {
	if reg.Kind == isa.KindNone {
		return nil
	}
	if reg.ReadOnly() {
		return errReadOnly(reg)
	}
	switch reg.Kind {
	case isa.KindSGPR:
		f.sgpr[scalarKey{reg.Slot, reg.Row}] = firstLane(data)
	case isa.KindSSP:
		f.ssp[scalarKey{reg.Slot, reg.Row}] = firstLane(data)
	case isa.KindVGPR:
		writeMasked(f.vgprSlot(reg), data, activeMask, ignoreMask)
	case isa.KindPR:
		writeMasked(f.prSlot(reg), data, activeMask, ignoreMask)
	case isa.KindVSP:
		writeMasked(f.vspSlot(reg), data, activeMask, ignoreMask)
	}
	return nil
}

func (f *File) vgprSlot(r isa.Register) []uint32 {
	k := vecKey{r.Slot, r.Row, r.Col}
	if f.vgpr[k] == nil {
		f.vgpr[k] = make([]uint32, f.cfg.Lanes)
	}
	return f.vgpr[k]
}

func (f *File) prSlot(r isa.Register) []uint32 {
	k := vecKey{r.Slot, r.Row, r.Col}
	if f.pr[k] == nil {
		f.pr[k] = make([]uint32, f.cfg.Lanes)
	}
	return f.pr[k]
}

func (f *File) vspSlot(r isa.Register) []uint32 {
	k := vecKey{r.Slot, r.Row, r.Col}
	if f.vsp[k] == nil {
		f.vsp[k] = make([]uint32, f.cfg.Lanes)
	}
	return f.vsp[k]
}

func writeMasked(dst, src []uint32, activeMask uint32, ignoreMask bool) {
	for i := 0; i < len(dst) && i < len(src); i++ {
		if ignoreMask || activeMask&(1<<uint(i)) != 0 {
			dst[i] = src[i]
		}
	}
}

func broadcast(out []uint32, v uint32) {
	for i := range out {
		out[i] = v
	}
}

func copyVec(out, src []uint32) {
	for i := range out {
		if i < len(src) {
			out[i] = src[i]
		}
	}
}

func firstLane(data []uint32) uint32 {
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

type readOnlyError struct{ reg isa.Register }

func (e readOnlyError) Error() string {
	return "regfile: write to read-only register " + e.reg.String()
}

func errReadOnly(reg isa.Register) error { return readOnlyError{reg} }

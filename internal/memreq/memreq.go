/*
   Sim-D: memory front-end request descriptors.

   Grounded on include/model/stride_descriptor.h and
   include/model/request_target.h: the wire format IExecute hands to the
   DRAM/scratchpad front-ends, trimmed to the fields Sim-D's simplified
   load/store opcode set actually populates (no 2-vector/4-vector index
   transform, no tile-to-scratchpad transfer — those original features
   aren't part of this instruction set).

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

// Package memreq defines the stride-descriptor request format IExecute
// populates and the DRAM/scratchpad stride sequencers consume.
package memreq

import "github.com/simd-sim/simd/internal/isa"

// Interface selects which front-end a request targets, mirroring
// req_if_t: the two per-work-group scratchpads share the enum space with
// DRAM since a cluster has at most one DRAM front-end.
type Interface int

const (
	IfSPWG0 Interface = iota
	IfSPWG1
	IfDRAM
	IfSentinel // no request this cycle
)

// Kind distinguishes a regular strided transfer from an index-iteration
// (IDXIT) sweep, which the sequencer walks one CAM index at a time
// instead of by period/words/period_count.
type Kind int

const (
	KindStride Kind = iota
	KindIdxIt
)

// Geometry is the translated buffer a load/store targets: base address
// and dimensions, as resolved by the cluster's buffer translation table.
type Geometry struct {
	Valid bool
	Addr  uint32
	DimX  int
	DimY  int
}

// Descriptor is a populated stride request, as IExecute hands it to a
// front-end's command-FIFO entry point.
type Descriptor struct {
	Ticket int
	Kind   Kind
	Write  bool

	Addr        uint32
	Words       int
	Period      int
	PeriodCount int

	// Destination register (vector); front-ends fan out 32-bit words
	// across lanes into Dst at column DstOffset/DstPeriod geometry. For
	// VSP.mem_idx/mem_data destinations (buffer-indexed/IDXIT loads),
	// Dst names the VSP row directly.
	Dst       isa.Register
	DstOffset int
	DstPeriod int

	// Data holds pre-resolved source words for a store descriptor, one
	// per active (period/words-masked) word of the whole transfer, in
	// transfer order. The cluster packs these from the register file
	// before pushing the descriptor; decoupling the data supply from
	// the stride sequencer's own address-generation timing keeps the
	// front-end's FIFO contract symmetric between loads and stores.
	Data []uint32

	// Indices holds one DRAM-offset-in-words per lane for a KindIdxIt
	// descriptor, pre-resolved from the per-lane vc.mem_idx register at
	// dispatch time. The original pulls these one at a time off a live
	// in_idx CAM port as the sequencer runs; since nothing in this
	// front-end clocks that handshake, the whole index list is packed up
	// front and the sequencer walks it, one burst per entry.
	Indices []uint32
}

// Target names where a Descriptor is headed, for the arbiter-facing FIFO
// selection ({IfDRAM, IfSPWG0, IfSPWG1}).
type Target struct {
	WG   int
	Kind TargetKind
}

// TargetKind is the destination register-file/storage class of a request.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetReg
	TargetCAM
	TargetSP
)

// Interface maps a Target to the front-end FIFO selector it feeds.
func (t Target) Interface() Interface {
	if t.Kind == TargetReg || t.Kind == TargetCAM {
		return IfDRAM
	}
	if t.WG == 0 {
		return IfSPWG0
	}
	return IfSPWG1
}

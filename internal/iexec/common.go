/*
   Sim-D: instruction execute — per-lane ALU/FPU/control-flow semantics.

   Grounded on src/compute/control/IExecute.h's do_* helpers: one function
   per opcode family, operating on parallel 32-bit lanes read out of the
   decode stage's forwarded operands. Reworked from a template class
   method per op into free functions operating on []uint32 lane slices,
   since Go has no compile-time LANES constant to specialize on.

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

// Package iexec implements the compute pipeline's instruction-execute
// stage: a configurable-depth ringbuffer of combinationally-computed
// pipeline registers that commits register writes, PC updates,
// control-stack actions, and memory front-end kicks one stage at a time.
package iexec

import (
	"math"

	"github.com/simd-sim/simd/internal/cstack"
	"github.com/simd-sim/simd/internal/isa"
)

// Config carries per-cluster sizing the original took as template
// parameters.
type Config struct {
	Lanes       int
	Threads     int // total threads per work-group; sizes the control-stack mask
	CstackDepth int
	PipeStages  int // exec_stages, must be >= 3
}

// Stats accumulates the committed-instruction performance counters §8
// expects, split by vector/scalar and by opcode category.
type Stats struct {
	CommitVec [isa.CatSentinel]uint64
	CommitSc  [isa.CatSentinel]uint64
	CommitNOP uint64
}

// PrintKind selects the debug trace's register-dump mode for a committed
// instruction, mirroring enum_print.
type PrintKind int

const (
	PrintNone PrintKind = iota
	PrintSGPR
	PrintVGPR
	PrintPR
	PrintCMask
	PrintTrace
)

func asF32(bits uint32) float32  { return math.Float32frombits(bits) }
func f32Bits(f float32) uint32   { return math.Float32bits(f) }
func asI32(bits uint32) int32    { return int32(bits) }
func i32Bits(v int32) uint32     { return uint32(v) }

// aluLane applies f element-wise to src0/src1 (both Lanes wide) into dst.
func aluLane(dst, src0, src1 []uint32, f func(a, b int32) int32) {
	for i := range dst {
		dst[i] = i32Bits(f(asI32(src0[i]), asI32(src1[i])))
	}
}

func fpuLane(dst, src0, src1 []uint32, f func(a, b float32) float32) {
	for i := range dst {
		dst[i] = f32Bits(f(asF32(src0[i]), asF32(src1[i])))
	}
}

func madLane(dst, src0, src1, src2 []uint32) {
	for i := range dst {
		dst[i] = i32Bits(asI32(src0[i])*asI32(src1[i]) + asI32(src2[i]))
	}
}

func fmadLane(dst, src0, src1, src2 []uint32) {
	for i := range dst {
		dst[i] = f32Bits(asF32(src0[i])*asF32(src1[i]) + asF32(src2[i]))
	}
}

func rcpLane(dst, src []uint32, f func(float32) float32) {
	for i := range dst {
		dst[i] = f32Bits(f(asF32(src[i])))
	}
}

// rsqrt, sin32, cos32 give the RCPU opcodes a float32-precision
// implementation; the original's RCPU hardware approximates these with a
// piecewise lookup, which a cycle-accurate control-path model has no
// need to replicate.
func rsqrt(v float32) float32 { return float32(1 / math.Sqrt(float64(v))) }
func sin32(v float32) float32 { return float32(math.Sin(float64(v))) }
func cos32(v float32) float32 { return float32(math.Cos(float64(v))) }

// maskTypeForPush maps the CPUSH opcode to the control-stack entry type
// its committed push restores on the matching CPOP.
func maskTypeForPush(op int) cstack.MaskType {
	switch op {
	case isa.OpCPUSHBrk:
		return cstack.MaskBreak
	case isa.OpCPUSHRet:
		return cstack.MaskRet
	default:
		return cstack.MaskRun
	}
}

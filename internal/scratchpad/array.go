/*
   Sim-D: per-work-group scratchpad storage array.

   Grounded on original_source/src/sp/control/StorageArray.h: a
   BUS_WIDTH-bank storage array that supports byte-unaligned accesses by
   letting each bank return either row[idx] or row[idx+1] depending on
   the address's alignment phase (US patent 6256253-style unaligned
   access). That physical bank-rotation network exists to give real
   hardware single-cycle unaligned access; a functional simulator gets
   the same "a burst may straddle two rows" behaviour for free by
   backing the array with the same sparse, word-addressable
   internal/storage.Storage the DRAM front-end uses, addressed by plain
   word index instead of bank+row+alignment-phase. debug_sp_read/
   debug_sp_write/debug_print_range/debug_upload_test_pattern are
   reproduced as the inspector's read/write/dump/fill hooks.

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

// Package scratchpad implements a work-group's private memory front-end:
// a stride sequencer, a DQ scheduler, and the storage array it replays
// bursts onto. Unlike internal/dram, there is no banked activation,
// refresh, or JEDEC command arbiter — the sequencer feeds DQ directly.
package scratchpad

import "github.com/simd-sim/simd/internal/storage"

// Config sizes one scratchpad instance.
type Config struct {
	BusWidth  int // words transferred per sequencer burst
	SizeBytes int
}

// DefaultConfig matches the spec's default sizing constants
// (SP_BYTES=131072, SP_BUS_WIDTH=4).
func DefaultConfig() Config {
	return Config{BusWidth: 4, SizeBytes: 131072}
}

// Array is a flat, word-addressable scratchpad, sparse-backed like DRAM
// storage since kernels touch only a fraction of SizeBytes.
type Array struct {
	cfg   Config
	store *storage.Storage
}

// NewArray returns an empty scratchpad array sized by cfg.
func NewArray(cfg Config) *Array {
	return &Array{cfg: cfg, store: storage.New()}
}

// wordAddr splits a byte address into the (row, col) pair
// internal/storage.Storage addresses it by: col cycles across cfg.BusWidth
// before row advances, mirroring the original's per-bank row/idx split
// without needing a separate alignment-phase computation — Storage's
// sparse map makes every column independently addressable regardless of
// which row a given burst happens to straddle.
func (a *Array) wordAddr(addr uint32) (row, col uint32) {
	word := addr >> 2
	bw := uint32(a.cfg.BusWidth)
	return word / bw, word % bw
}

// GetWord reads one 32-bit word at a byte address.
func (a *Array) GetWord(addr uint32) uint32 {
	row, col := a.wordAddr(addr)
	return a.store.GetWord(0, row, col)
}

// SetWord writes one 32-bit word at a byte address.
func (a *Array) SetWord(addr uint32, val uint32) {
	row, col := a.wordAddr(addr)
	a.store.SetWord(0, row, col, val)
}

// DebugRead mirrors debug_sp_read, for inspector reads.
func (a *Array) DebugRead(addr uint32) uint32 { return a.GetWord(addr) }

// DebugWrite mirrors debug_sp_write, for inspector pokes and buffer
// uploads.
func (a *Array) DebugWrite(addr uint32, val uint32) { a.SetWord(addr, val) }

// DebugUploadPattern mirrors debug_upload_test_pattern: fills words words
// starting at addr with an ascending byte-offset-from-addr count.
func (a *Array) DebugUploadPattern(addr uint32, words int) {
	for i := 0; i < words; i++ {
		a.SetWord(addr+uint32(i*4), uint32(i*4))
	}
}

/*
   Sim-D: sparse word-addressable backing store shared by the DRAM and
   scratchpad front-ends.

   Grounded on original_source/src/mc/control/Storage.h: a multi-GB
   address space allocated on demand, traded off against speed by hashing
   on (bank, row) and storing each row's words in its own page. Go's map
   type gives us the hash-table-of-pages structure for free, so the
   linked-list-per-bucket machinery the C++ needed to hand-roll collision
   chains is unnecessary here; the sparse-allocation behavior it existed
   for is preserved.

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

// Package storage is a sparse, page-on-demand word store addressed by
// (bank, row, col). It backs both the DRAM and scratchpad front-ends;
// the scratchpad simply uses a single bank.
package storage

// Storage allocates a page of words per (bank, row) the first time it is
// touched, and never frees it — kernels in simulation touch a tiny
// fraction of the theoretical address space, so a dense array per row
// would waste memory for no benefit.
type Storage struct {
	pages map[uint64]map[uint32]uint32
}

// New returns an empty store.
func New() *Storage {
	return &Storage{pages: make(map[uint64]map[uint32]uint32)}
}

func pageKey(bank, row uint32) uint64 {
	return uint64(bank)<<32 | uint64(row)
}

func (s *Storage) page(bank, row uint32, create bool) map[uint32]uint32 {
	key := pageKey(bank, row)
	p, ok := s.pages[key]
	if !ok {
		if !create {
			return nil
		}
		p = make(map[uint32]uint32)
		s.pages[key] = p
	}
	return p
}

// GetWord returns the word at (bank, row, col), or 0 if never written.
func (s *Storage) GetWord(bank, row, col uint32) uint32 {
	p := s.page(bank, row, false)
	if p == nil {
		return 0
	}
	return p[col]
}

// SetWord stores a word at (bank, row, col), allocating the row's page
// on first use.
func (s *Storage) SetWord(bank, row, col uint32, val uint32) {
	s.page(bank, row, true)[col] = val
}

// Pages reports how many (bank, row) pages have been allocated.
func (s *Storage) Pages() int {
	return len(s.pages)
}

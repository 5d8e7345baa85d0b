/*
   Sim-D: scoreboard — RAW/structural hazard detection.

   Grounded on src/compute/control/Scoreboard.h: a ring buffer of pending
   destination registers backed by a per-slot 32-bit population bit-vector,
   plus per-slot counters of outstanding CSTACK writes that gate CPOP
   issue. The three read-request ports and their per-stage population
   masks model the 3-stage IDecode's ability to exclude an in-flight
   instruction from matching its own destination.

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

package scoreboard

import (
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/simassert"
)

// MaxEntries is the hard cap on live scoreboard entries, imposed by the
// 32-bit population mask wire width.
const MaxEntries = 32

// ReadRequest is one of up to three per-cycle operand read checks.
type ReadRequest struct {
	Valid    bool
	Reg      isa.Register
	SSPMatch bool // conservative match against any live SSP entry, port 0 only
}

type slotEntry struct {
	valid bool
	reg   isa.Register
}

// Scoreboard tracks pending register writes across NumSlots work-group
// slots sharing one physical ring buffer.
type Scoreboard struct {
	entries int
	ring    [MaxEntries]slotEntry
	head    int
	tail    int
	count   int

	pop            []uint32 // per slot, bit i set iff ring[i] is live for that slot
	cstackPending  []int    // per slot, outstanding CSTACK writes
	maxEntriesUsed int
}

// New constructs a scoreboard with the given ring capacity (<=32) for
// numSlots independent work-group slots.
func New(entries, numSlots int) *Scoreboard {
	if entries > MaxEntries {
		panic("scoreboard does not support more than 32 entries")
	}
	if entries <= 0 {
		entries = MaxEntries
	}
	return &Scoreboard{
		entries:       entries,
		pop:           make([]uint32, numSlots),
		cstackPending: make([]int, numSlots),
	}
}

// Reset clears all pending entries, population masks, and CSTACK counters.
func (sb *Scoreboard) Reset() {
	sb.head, sb.tail, sb.count = 0, 0, 0
	for i := range sb.ring {
		sb.ring[i] = slotEntry{}
	}
	for i := range sb.pop {
		sb.pop[i] = 0
		sb.cstackPending[i] = 0
	}
}

// Enqueue records a pending write to reg. Panics (contract violation,
// §7) if the ring is already full.
func (sb *Scoreboard) Enqueue(reg isa.Register) {
	if sb.count == sb.entries {
		simassert.Raise("scoreboard-overflow", "more than %d pending writes", sb.entries)
	}
	pos := sb.head
	sb.ring[pos] = slotEntry{valid: true, reg: reg}
	sb.pop[reg.Slot] |= 1 << uint(pos)
	sb.head = (sb.head + 1) % sb.entries
	sb.count++
	if sb.count > sb.maxEntriesUsed {
		sb.maxEntriesUsed = sb.count
	}
}

// Dequeue removes the oldest pending entry. expect, when non-nil, is the
// register the caller believes is being retired; a mismatch is a
// debug-only contract violation per §3 ("debug-checked").
func (sb *Scoreboard) Dequeue(expect *isa.Register) {
	if sb.count == 0 {
		simassert.Raise("scoreboard-underflow", "dequeue with no pending writes")
	}
	pos := sb.tail
	e := sb.ring[pos]
	if expect != nil && (!e.valid || !e.reg.Equal(*expect)) {
		simassert.Raise("scoreboard-underflow", "dequeue does not match oldest pending write")
	}
	sb.pop[e.reg.Slot] &^= 1 << uint(pos)
	sb.ring[pos] = slotEntry{}
	sb.tail = (sb.tail + 1) % sb.entries
	sb.count--
}

// Population returns the live-entry bitmask for slot, for IDecode to AND
// against when excluding an in-flight instruction from its own hazard.
func (sb *Scoreboard) Population(slot int) uint32 {
	return sb.pop[slot]
}

// MaxEntriesUsed returns the high-water mark of live entries observed.
func (sb *Scoreboard) MaxEntriesUsed() int { return sb.maxEntriesUsed }

// CheckRead reports whether a read of reg for the given slot would hit a
// RAW hazard against any live entry visible under stageMask. ssp, when
// true, conservatively matches any live SSP entry for that slot
// (memory ops that implicitly read the stride-descriptor SSPs).
func (sb *Scoreboard) CheckRead(slot int, reg isa.Register, ssp bool, stageMask uint32) bool {
	visible := sb.pop[slot] & stageMask
	for pos := 0; pos < sb.entries; pos++ {
		if visible&(1<<uint(pos)) == 0 {
			continue
		}
		e := sb.ring[pos]
		if !e.valid {
			continue
		}
		if ssp && e.reg.Kind == isa.KindSSP {
			return true
		}
		if e.reg.Equal(reg) {
			return true
		}
	}
	return false
}

// CheckReads evaluates up to three read requests in one cycle, each with
// its own captured stage population mask (hard-wired to all-ones for a
// single-stage decoder).
func (sb *Scoreboard) CheckReads(slot int, reqs [3]ReadRequest, stageMasks [3]uint32) (raw [3]bool) {
	for i, r := range reqs {
		if !r.Valid {
			continue
		}
		ssp := i == 0 && r.SSPMatch
		raw[i] = sb.CheckRead(slot, r.Reg, ssp, stageMasks[i])
	}
	return raw
}

// EnqueueCStackWrite records a pending CPUSH write-commit for slot.
func (sb *Scoreboard) EnqueueCStackWrite(slot int) {
	sb.cstackPending[slot]++
}

// DequeueCStackWrite retires a pending CPUSH write-commit for slot.
func (sb *Scoreboard) DequeueCStackWrite(slot int) {
	if sb.cstackPending[slot] == 0 {
		simassert.Raise("scoreboard-underflow", "no pending CSTACK write for slot %d", slot)
	}
	sb.cstackPending[slot]--
}

// CPopStall reports whether CPOP must stall because a CSTACK write is
// still outstanding for slot.
func (sb *Scoreboard) CPopStall(slot int) bool {
	return sb.cstackPending[slot] > 0
}

/*
   Sim-D: divergent control-flow stack, per work-group slot.

   Grounded on src/compute/control/CtrlStack.h: a bounded per-slot stack
   of (predicate mask, pc, mask type) entries used to re-converge
   divergent branches. Reworked from the SystemC sc_module/port style into
   a plain Go struct stepped once per cycle by the caller, matching how
   emu/cpu/cpu.go drives cpuState without a channel-based signal graph.

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

package cstack

import "github.com/simd-sim/simd/internal/isa"

// MaskType distinguishes what CPOP should do with a stack entry's mask
// on re-convergence.
type MaskType int

const (
	MaskRun MaskType = iota
	MaskBreak
	MaskRet
)

// Entry is one divergence point: the predicate mask to restore, the PC to
// resume at, and what kind of control-flow construct pushed it.
type Entry struct {
	Mask isa.Mask
	PC   int
	Type MaskType
}

// Action selects what a Stack should do this cycle.
type Action int

const (
	Idle Action = iota
	Push
	Pop
)

// Stack is a bounded per-slot control stack. NumSlots work-group slots
// share one Stack instance, each with an independent stack of entries.
type Stack struct {
	entries  int
	stack    [][]Entry // per slot
	sp       []int
	overflow []bool
}

// New constructs a control stack of the given bounded depth for
// numSlots independent work-group slots.
func New(entries, numSlots int) *Stack {
	s := &Stack{
		entries:  entries,
		stack:    make([][]Entry, numSlots),
		sp:       make([]int, numSlots),
		overflow: make([]bool, numSlots),
	}
	for i := range s.stack {
		s.stack[i] = make([]Entry, entries)
	}
	return s
}

// Reset clears the stack pointer and overflow flag for every slot,
// matching the contract that after a reset sp == 0 and overflow == false.
func (s *Stack) Reset() {
	for i := range s.sp {
		s.sp[i] = 0
		s.overflow[i] = false
	}
}

// Step performs action for the given slot. Push requires entry; Pop and
// Idle ignore it. Pushing to a full stack or popping an empty one sets a
// one-cycle overflow flag and otherwise leaves state unchanged.
func (s *Stack) Step(slot int, action Action, entry Entry) {
	s.overflow[slot] = false

	switch action {
	case Push:
		if s.sp[slot] == s.entries {
			s.overflow[slot] = true
			return
		}
		s.stack[slot][s.sp[slot]] = entry
		s.sp[slot]++
	case Pop:
		if s.sp[slot] == 0 {
			s.overflow[slot] = true
			return
		}
		s.sp[slot]--
	case Idle:
	}
}

// Top returns the entry at the top of the stack for slot, or a
// zero-initialized entry if the stack is empty.
func (s *Stack) Top(slot int) Entry {
	if s.sp[slot] == 0 {
		return Entry{}
	}
	return s.stack[slot][s.sp[slot]-1]
}

// SP returns the current stack pointer (entry count) for slot.
func (s *Stack) SP(slot int) int {
	return s.sp[slot]
}

// Full reports whether slot's stack has no room for another push.
func (s *Stack) Full(slot int) bool {
	return s.sp[slot] == s.entries
}

// Overflow reports whether the most recent Step for slot over/underflowed.
func (s *Stack) Overflow(slot int) bool {
	return s.overflow[slot]
}

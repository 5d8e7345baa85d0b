/*
   Sim-D: per-slot work-group state machine and grid dispatcher.

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

// Package workgroup tracks, per cluster slot, which work-group is resident
// and whether it is runnable, parked on a memory front-end, or finished; and
// partitions a kernel's (X,Y) index space into work-groups for dispatch onto
// the cluster's two slots.
package workgroup

import "fmt"

// State is a work-group slot's lifecycle state.
type State int

const (
	Idle State = iota
	Ready
	Running
	BlockedDRAM
	BlockedDRAMPostExit
	BlockedSP
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case BlockedDRAM:
		return "BLOCKED_DRAM"
	case BlockedDRAMPostExit:
		return "BLOCKED_DRAM_POSTEXIT"
	case BlockedSP:
		return "BLOCKED_SP"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// ID names a work-group by its offset into the kernel's 2-D index space.
type ID struct {
	OffX int
	OffY int
}

// Slot is one of the cluster's two work-group execution contexts.
type Slot struct {
	state    State
	assigned bool
	id       ID
	ticket   uint64
}

// State reports the slot's current lifecycle state.
func (s *Slot) State() State { return s.state }

// ID reports the work-group currently resident in the slot. Only meaningful
// once Assigned reports true.
func (s *Slot) ID() ID { return s.id }

// Assigned reports whether a work-group occupies the slot (false only
// between Reset and the next Assign).
func (s *Slot) Assigned() bool { return s.assigned }

// Assign installs a new work-group into an idle slot: IDLE -> READY.
func (s *Slot) Assign(id ID) error {
	if s.state != Idle {
		return fmt.Errorf("workgroup: slot not idle, state=%s", s.state)
	}
	s.state = Ready
	s.assigned = true
	s.id = id
	return nil
}

// Issue fires when the first instruction of the resident work-group issues:
// READY -> RUNNING. A no-op if already running, so callers may call it
// unconditionally on every issuing cycle.
func (s *Slot) Issue() {
	if s.state == Ready {
		s.state = Running
	}
}

// Block parks the slot on a memory front-end when a memory instruction
// commits: RUNNING -> BLOCKED_{DRAM,DRAM_POSTEXIT,SP}. ticket is the
// monotonic descriptor ticket the front-end will echo back in its
// completion signal, so Resume can be matched to the right descriptor.
func (s *Slot) Block(dst Interface, postExit bool, ticket uint64) error {
	if s.state != Running {
		return fmt.Errorf("workgroup: slot not running, state=%s", s.state)
	}
	s.ticket = ticket
	switch {
	case dst == InterfaceDRAM && postExit:
		s.state = BlockedDRAMPostExit
	case dst == InterfaceDRAM:
		s.state = BlockedDRAM
	default:
		s.state = BlockedSP
	}
	return nil
}

// Resume un-parks the slot once the front-end's completion signal matches
// the ticket the slot was blocked on: BLOCKED_* -> RUNNING (or, for a
// postexit store, straight to FINISHED since the EXIT already committed).
func (s *Slot) Resume(ticket uint64) bool {
	if !s.Blocked() || ticket != s.ticket {
		return false
	}
	if s.state == BlockedDRAMPostExit {
		s.state = Finished
		return true
	}
	s.state = Running
	return true
}

// Blocked reports whether the slot is parked on either front-end.
func (s *Slot) Blocked() bool {
	switch s.state {
	case BlockedDRAM, BlockedDRAMPostExit, BlockedSP:
		return true
	default:
		return false
	}
}

// Exit fires when an EXIT instruction commits: RUNNING -> FINISHED if the
// committed exit mask is all-zero (every thread has exited), otherwise the
// slot stays RUNNING (a partial exit just narrows future CMASKs).
func (s *Slot) Exit(exitMask uint64) {
	if s.state == Running && exitMask == 0 {
		s.state = Finished
	}
}

// Reset returns a finished slot to IDLE so the dispatcher may assign it a
// new work-group.
func (s *Slot) Reset() error {
	if s.state != Finished {
		return fmt.Errorf("workgroup: slot not finished, state=%s", s.state)
	}
	s.state = Idle
	s.assigned = false
	return nil
}

// Interface selects which memory front-end a blocked slot is waiting on.
type Interface int

const (
	InterfaceDRAM Interface = iota
	InterfaceSP
)

/*
   Sim-D: contract-violation assertions.

   The teacher traps conditions like this in hardware-modelled program
   interrupts (emu/cpu's PSW/interrupt machinery) because S370 is
   simulating a real CPU's own fault handling. A SIMD cluster has no
   such interrupt model to fall back on — a scoreboard underflow or a
   write to a read-only special register is a bug in the simulator or
   the kernel under test, not a condition the hardware under
   simulation is defined to handle. Violation gives those conditions a
   typed panic value so cmd/simd can recover exactly once, at the top
   of the per-cycle loop, log it, and exit non-zero instead of letting
   an unrelated runtime panic or a silent wrong-answer slip through.

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

// Package simassert raises and classifies the fixed set of contract
// violations spec'd for this simulator: scoreboard overflow, scoreboard
// underflow, a stride descriptor
// with period 0, and a write to a read-only VSP/SSP row. Every other
// error in this codebase (parse errors, configuration errors,
// comparison mismatches) is a plain error value instead — Violation is
// reserved for conditions that must stop the simulation immediately.
package simassert

import "fmt"

// Violation is the panic value every contract-violation check raises.
// Kind names which invariant failed (e.g. "scoreboard-underflow"),
// matching the taxonomy named in the error handling design.
type Violation struct {
	Kind string
	Msg  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Msg)
}

// Raise panics with a Violation built from kind and a formatted
// message.
func Raise(kind, format string, args ...any) {
	panic(&Violation{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// AsViolation reports whether a recovered panic value r is one of
// ours, for a deferred recover() to classify: r itself must still be
// re-panicked (or left to propagate) when ok is false, since only the
// deferred function's own recover() call stops the panic.
func AsViolation(r any) (v *Violation, ok bool) {
	v, ok = r.(*Violation)
	return v, ok
}

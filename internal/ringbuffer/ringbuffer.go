/*
   Sim-D: fixed-size rotating pipeline stage holder.

   Grounded on the original SystemC Ringbuffer<T> template
   (include/util/Ringbuffer.h): a fixed number of entries addressed
   relative to a moving head, used to back both the divergent-control
   stack bookkeeping and the execute pipeline's stage registers without
   reshuffling a slice every cycle.

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

package ringbuffer

// Ringbuffer is a pipeline of fixed depth addressed as stage 0 (newest,
// just-written) .. stage Entries()-1 (oldest, about to commit).
type Ringbuffer[T any] struct {
	buf  []T
	head int
}

// New constructs a ringbuffer with the given number of stages. Panics if
// entries is zero, matching the SystemC original's invalid_argument throw.
func New[T any](entries int) *Ringbuffer[T] {
	if entries <= 0 {
		panic("ringbuffer must contain at least one entry")
	}
	return &Ringbuffer[T]{buf: make([]T, entries)}
}

// Entries returns the configured pipeline depth.
func (r *Ringbuffer[T]) Entries() int {
	return len(r.buf)
}

// Resize changes the pipeline depth, resetting the head pointer and
// zeroing all stages.
func (r *Ringbuffer[T]) Resize(entries int) {
	if entries <= 0 {
		panic("ringbuffer must contain at least one entry")
	}
	r.buf = make([]T, entries)
	r.head = 0
}

// SwapHead writes elem into the newest stage and shifts the pipeline,
// returning the entry that falls off the oldest stage. Per the original
// semantics, the write happens before the shift: a single-entry
// ringbuffer reads back what it just wrote.
func (r *Ringbuffer[T]) SwapHead(elem T) T {
	r.buf[r.head] = elem
	n := len(r.buf)
	r.head = (r.head + n - 1) % n
	return r.buf[r.head]
}

// Stage returns a pointer to the pipeline register at the given stage
// (0 = newest .. Entries()-1 = oldest), so callers can mutate it in
// place the way combinational logic would.
func (r *Ringbuffer[T]) Stage(stage int) *T {
	if stage < 0 || stage >= len(r.buf) {
		panic("ringbuffer stage out of range")
	}
	return &r.buf[(r.head+stage)%len(r.buf)]
}

// Top returns a pointer to the oldest (about to commit) pipeline stage.
func (r *Ringbuffer[T]) Top() *T {
	return r.Stage(len(r.buf) - 1)
}

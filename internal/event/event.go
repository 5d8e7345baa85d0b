/*
 * Sim-D  - Discrete-event scheduler
 *
 * Grounded on emu/event/event.go from the teacher repository: a
 * delta-ordered doubly-linked list where each event's stored time is
 * relative to the event before it, so advancing the clock by t only ever
 * touches the head of the list. Generalized here (Go generics over the
 * owner key and callback argument) so events are keyed by any comparable
 * owner rather than by a fixed Device interface. No other package in this
 * module uses it.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package event implements a delta-ordered discrete-event list with no
// fixed capacity. The cluster crosses the compute-clock / DRAM-clock
// boundary without it.
package event

// Callback fires when a scheduled event's countdown reaches zero.
type Callback[K comparable] func(owner K, iarg int)

type entry[K comparable] struct {
	time int
	owner K
	cb    Callback[K]
	iarg  int
	prev  *entry[K]
	next  *entry[K]
}

// List is a delta-ordered event queue.
type List[K comparable] struct {
	head *entry[K]
	tail *entry[K]
}

// NewList constructs an empty event list.
func NewList[K comparable]() *List[K] {
	return &List[K]{}
}

// Add schedules cb to fire in time cycles, carrying owner and iarg. A
// time of zero processes the event immediately and does not enqueue it.
func (l *List[K]) Add(owner K, cb Callback[K], time int, iarg int) {
	if time <= 0 {
		cb(owner, iarg)
		return
	}

	ev := &entry[K]{owner: owner, cb: cb, time: time, iarg: iarg}

	evptr := l.head
	if evptr == nil {
		l.head = ev
		l.tail = ev
		return
	}

	for evptr != nil {
		if ev.time <= evptr.time {
			evptr.time -= ev.time
			ev.prev = evptr.prev
			ev.next = evptr
			evptr.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				l.head = ev
			}
			return
		}
		ev.time -= evptr.time
		evptr = evptr.next
	}

	ev.prev = l.tail
	l.tail.next = ev
	l.tail = ev
}

// Cancel removes the first pending event matching owner and iarg, if any.
func (l *List[K]) Cancel(owner K, iarg int) {
	evptr := l.head
	for evptr != nil {
		if evptr.owner == owner && evptr.iarg == iarg {
			nxt := evptr.next
			if nxt != nil {
				nxt.time += evptr.time
				nxt.prev = evptr.prev
			} else {
				l.tail = evptr.prev
			}
			if evptr.prev != nil {
				evptr.prev.next = evptr.next
			} else {
				l.head = evptr.next
			}
			return
		}
		evptr = evptr.next
	}
}

// Advance moves the clock forward by t cycles, firing (and dequeuing)
// every event whose countdown reaches zero or below.
func (l *List[K]) Advance(t int) {
	evptr := l.head
	if evptr == nil {
		return
	}
	evptr.time -= t
	for evptr != nil && evptr.time <= 0 {
		evptr.cb(evptr.owner, evptr.iarg)
		l.head = evptr.next
		evptr = l.head
		if evptr != nil {
			evptr.prev = nil
		} else {
			l.tail = nil
		}
	}
}

// Empty reports whether there are no pending events.
func (l *List[K]) Empty() bool {
	return l.head == nil
}

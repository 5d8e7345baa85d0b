/*
 * Sim-D - Event scheduler test cases.
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

package event

import "testing"

type owner int

const (
	ownerA owner = iota
	ownerB
	ownerD
)

type fired struct {
	iarg int
	time uint64
}

var stepCount uint64

func TestAddEvent1(t *testing.T) {
	l := NewList[owner]()
	var a fired
	l.Add(ownerA, func(_ owner, iarg int) { a.iarg = iarg; a.time = stepCount }, 10, 1)

	stepCount = 0
	for range 20 {
		stepCount++
		l.Advance(1)
	}
	if a.time != 10 || a.iarg != 1 {
		t.Errorf("got time=%d iarg=%d, want time=10 iarg=1", a.time, a.iarg)
	}
}

func TestAddEventTwoDistinctTimes(t *testing.T) {
	l := NewList[owner]()
	var a, b fired
	l.Add(ownerA, func(_ owner, iarg int) { a.iarg = iarg; a.time = stepCount }, 10, 1)
	l.Add(ownerB, func(_ owner, iarg int) { b.iarg = iarg; b.time = stepCount }, 5, 2)

	stepCount = 0
	for range 20 {
		stepCount++
		l.Advance(1)
	}
	if a.time != 10 || a.iarg != 1 {
		t.Errorf("a: got time=%d iarg=%d, want 10,1", a.time, a.iarg)
	}
	if b.time != 5 || b.iarg != 2 {
		t.Errorf("b: got time=%d iarg=%d, want 5,2", b.time, b.iarg)
	}
}

func TestAddEventSameTime(t *testing.T) {
	l := NewList[owner]()
	var a, b fired
	l.Add(ownerA, func(_ owner, iarg int) { a.iarg = iarg; a.time = stepCount }, 10, 1)
	l.Add(ownerB, func(_ owner, iarg int) { b.iarg = iarg; b.time = stepCount }, 10, 2)

	stepCount = 0
	for range 20 {
		stepCount++
		l.Advance(1)
	}
	if a.time != 10 || a.iarg != 1 {
		t.Errorf("a: got time=%d iarg=%d, want 10,1", a.time, a.iarg)
	}
	if b.time != 10 || b.iarg != 2 {
		t.Errorf("b: got time=%d iarg=%d, want 10,2", b.time, b.iarg)
	}
}

func TestAddEventDuringEvent(t *testing.T) {
	l := NewList[owner]()
	var a, c fired
	l.Add(ownerA, func(_ owner, iarg int) { a.iarg = iarg; a.time = stepCount }, 20, 5)
	l.Add(ownerD, func(_ owner, iarg int) {
		c.iarg = iarg
		c.time = stepCount
		l.Add(ownerA, func(_ owner, iarg int) { a.iarg = iarg; a.time = stepCount }, iarg, iarg)
	}, 10, 2)

	stepCount = 0
	for range 30 {
		stepCount++
		l.Advance(1)
	}
	if c.time != 10 || c.iarg != 2 {
		t.Errorf("c: got time=%d iarg=%d, want 10,2", c.time, c.iarg)
	}
}

func TestCancelEvent(t *testing.T) {
	l := NewList[owner]()
	var a, b fired
	l.Add(ownerA, func(_ owner, iarg int) { a.iarg = iarg; a.time = stepCount }, 10, 5)
	l.Add(ownerB, func(_ owner, iarg int) { b.iarg = iarg; b.time = stepCount }, 20, 2)

	stepCount = 0
	for range 30 {
		stepCount++
		l.Advance(1)
		if a.iarg == 5 {
			l.Cancel(ownerB, 2)
		}
	}
	if a.time != 10 || a.iarg != 5 {
		t.Errorf("a: got time=%d iarg=%d, want 10,5", a.time, a.iarg)
	}
	if b.time != 0 || b.iarg != 0 {
		t.Errorf("b should have been cancelled, got time=%d iarg=%d", b.time, b.iarg)
	}
}

func TestAddEventZeroFiresImmediately(t *testing.T) {
	l := NewList[owner]()
	var a fired
	a.time = 99
	l.Add(ownerA, func(_ owner, iarg int) { a.iarg = iarg; a.time = 0 }, 0, 5)
	if a.iarg != 5 || a.time != 0 {
		t.Errorf("zero-delay event should fire synchronously, got iarg=%d time=%d", a.iarg, a.time)
	}
	if !l.Empty() {
		t.Error("zero-delay event must not be enqueued")
	}
}

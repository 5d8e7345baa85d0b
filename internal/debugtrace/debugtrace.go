/*
 * Sim-D - Masked debug trace output
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

// Package debugtrace implements the -D category toggles: masked print
// routines that write to a shared debug file only when their category bit
// is set in the active mask.
package debugtrace

import (
	"fmt"
	"os"
)

// Category bits, one per -D option named in the CLI surface.
const (
	Compute = 1 << iota // compute pipeline fetch/decode/execute trace
	Sched               // work-group scheduling and front-end hand-off
	DRAM                // DRAM stride/command/arbiter trace
	SP                  // scratchpad stride/DQ trace
	Regs                // register file writes (SGPR/VGPR/PR/CMASK)
	Trace               // program-counter commit trace
)

var (
	logFile *os.File
	mask    int
)

// SetFile directs all subsequent trace output at file. A nil file
// discards trace output.
func SetFile(file *os.File) {
	logFile = file
}

// SetMask replaces the active category mask, ORed from the Compute..Trace
// constants.
func SetMask(m int) {
	mask = m
}

// Enabled reports whether category cat is active in the current mask.
func Enabled(cat int) bool {
	return mask&cat != 0
}

// Tracef prints a module-prefixed trace line iff cat is enabled.
func Tracef(cat int, module, format string, a ...interface{}) {
	if mask&cat == 0 || logFile == nil {
		return
	}
	fmt.Fprintf(logFile, module+": "+format+"\n", a...)
}

// SlotTracef prints a slot-prefixed trace line iff cat is enabled.
func SlotTracef(cat int, slot int, format string, a ...interface{}) {
	if mask&cat == 0 || logFile == nil {
		return
	}
	fmt.Fprintf(logFile, "wg%d: "+format+"\n", append([]interface{}{slot}, a...)...)
}

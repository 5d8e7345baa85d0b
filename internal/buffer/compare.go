/*
   Sim-D: buffer comparison for the CLI's -c/-e flags.

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

package buffer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tolerance is a parsed "-e delta[%]" value: either an absolute
// difference bound or a percentage of the expected value's magnitude.
type Tolerance struct {
	Delta   float64
	Percent bool
}

// ParseTolerance parses the CLI's "-e" argument, e.g. "0.001" or "2%".
func ParseTolerance(s string) (Tolerance, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tolerance{}, nil
	}
	pct := strings.HasSuffix(s, "%")
	numeric := strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return Tolerance{}, errors.New("bad tolerance value " + s)
	}
	return Tolerance{Delta: v, Percent: pct}, nil
}

// Mismatch records one buffer element that failed comparison.
type Mismatch struct {
	Index int
	Got   uint32
	Want  uint32
}

// Compare checks got against want word-for-word as raw 32-bit integers
// within tol, returning every mismatching index; an empty result means
// the buffers matched within tolerance. Lengths must agree.
func Compare(got, want []uint32, tol Tolerance) ([]Mismatch, error) {
	if len(got) != len(want) {
		return nil, fmt.Errorf("buffer length mismatch: got %d words, want %d", len(got), len(want))
	}

	var mismatches []Mismatch
	for i := range want {
		if !withinTolerance(int32(got[i]), int32(want[i]), tol) {
			mismatches = append(mismatches, Mismatch{Index: i, Got: got[i], Want: want[i]})
		}
	}
	return mismatches, nil
}

func withinTolerance(got, want int32, tol Tolerance) bool {
	if got == want {
		return true
	}
	diff := math.Abs(float64(got) - float64(want))
	bound := tol.Delta
	if tol.Percent {
		bound = tol.Delta / 100 * math.Abs(float64(want))
	}
	return diff <= bound
}

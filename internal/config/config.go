/*
   Sim-D: run configuration, CLI option translation, and startup
   validation.

   Grounded on config/debugconfig/debugconfig.go's option-to-flag
   translation (a comma-separated option list, each name looked up in
   a small map and ORed into a bitmask, case-insensitively) and
   config/configparser/configparser.go's "surface validation errors at
   startup rather than opcode-by-opcode" posture. The teacher's
   config package drives device model registration across an entire
   mainframe's channel subsystem; a kernel run has a fixed, small set
   of named settings instead, so this package is one flat Config
   struct with setters for the comma-list options (-D debug
   categories, -s scheduler options) plus a Validate that returns the
   configuration-error class spec'd for startup (missing dimensions,
   unsupported pipeline depth, and so on) rather than a model registry.

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

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simd-sim/simd/internal/buffer"
	"github.com/simd-sim/simd/internal/debugtrace"
)

// Scheduler option bits, one per "-s" option named in the CLI surface.
// SetSchedulerOptions parses them into Config.Scheduler, but nothing in
// the simulator reads that field: the bits do not change how the DRAM
// and scratchpad front-ends are scheduled or when a run stops.
const (
	NoParallelDRAMSP = 1 << iota // "no_parallel_dram_sp": recorded only
	StopSimFini                  // "stop_sim_fini": recorded only
	StopDRAMFini                 // "stop_dram_fini": recorded only
)

var schedulerOptions = map[string]int{
	"no_parallel_dram_sp": NoParallelDRAMSP,
	"stop_sim_fini":       StopSimFini,
	"stop_dram_fini":      StopDRAMFini,
}

var debugOptions = map[string]int{
	"compute": debugtrace.Compute,
	"sched":   debugtrace.Sched,
	"dram":    debugtrace.DRAM,
	"sp":      debugtrace.SP,
	"regs":    debugtrace.Regs,
	"trace":   debugtrace.Trace,
}

// BufferIO is one "-i"/"-o"/"-c" flag occurrence: a named buffer bound
// to a host file for upload, download, or comparison.
type BufferIO struct {
	Buffer string
	File   string
}

// Config holds every setting the CLI surface accepts, validated and
// ready for cmd/simd to build a cluster from.
type Config struct {
	DimX, DimY   int // kernel dimensions, from "-d X,Y"
	WGWidth      int // work-group width, from "-w"
	TimeBound    int // cycle bound, from "-n"; 0 means unbounded
	PipeDepth    int // execute-pipeline depth, from "-P"
	ThreeStage   bool // three-stage decoder, from "-3"
	RefreshSeed  int  // DRAM refresh counter seed, from "-r"
	Tolerance    buffer.Tolerance
	Scheduler    int // ORed NoParallelDRAMSP/StopSimFini/StopDRAMFini
	Debug        int // ORed debugtrace category bits
	Interactive  bool // "-D interactive": launch internal/console after the run

	Uploads     []BufferIO // -i buf,file (repeatable)
	Downloads   []BufferIO // -o buf,file (repeatable)
	Comparisons []BufferIO // -c buf,file (repeatable)

	Program string // path to the .sas kernel source
}

// New returns a Config with the CLI surface's documented defaults.
func New() Config {
	return Config{
		WGWidth:   32,
		PipeDepth: 3,
	}
}

// SetDebugOptions ORs in the named "-D" categories, comma-separated
// and case-insensitive (e.g. "compute,dram"). "interactive" is handled
// separately: it names a post-run console, not a debugtrace.Tracef
// category, so it sets Interactive instead of a Debug bit.
func (c *Config) SetDebugOptions(csv string) error {
	var rest []string
	for _, name := range strings.Split(csv, ",") {
		if strings.ToLower(strings.TrimSpace(name)) == "interactive" {
			c.Interactive = true
			continue
		}
		rest = append(rest, name)
	}
	mask, err := lookupOptions(strings.Join(rest, ","), debugOptions)
	if err != nil {
		return err
	}
	c.Debug |= mask
	return nil
}

// SetSchedulerOptions ORs in the named "-s" options, comma-separated
// and case-insensitive (e.g. "no_parallel_dram_sp,stop_sim_fini").
func (c *Config) SetSchedulerOptions(csv string) error {
	mask, err := lookupOptions(csv, schedulerOptions)
	if err != nil {
		return err
	}
	c.Scheduler |= mask
	return nil
}

func lookupOptions(csv string, table map[string]int) (int, error) {
	mask := 0
	for _, name := range strings.Split(csv, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		bit, ok := table[name]
		if !ok {
			return 0, errors.New("unknown option: " + name)
		}
		mask |= bit
	}
	return mask, nil
}

// ParseBufferIO parses one "-i"/"-o"/"-c" argument of the form
// "buf,file".
func ParseBufferIO(arg string) (BufferIO, error) {
	i := strings.IndexByte(arg, ',')
	if i < 0 {
		return BufferIO{}, errors.New("expected buf,file, got " + arg)
	}
	return BufferIO{Buffer: arg[:i], File: arg[i+1:]}, nil
}

// Validate checks every setting against the bounds and presence rules
// the startup configuration-error class covers, returning the first
// violation found.
func (c *Config) Validate() error {
	if c.DimX <= 0 || c.DimY <= 0 {
		return fmt.Errorf("kernel dimensions missing or non-positive: %dx%d", c.DimX, c.DimY)
	}
	if c.WGWidth <= 0 {
		return fmt.Errorf("work-group width must be positive, got %d", c.WGWidth)
	}
	if c.DimX%c.WGWidth != 0 {
		return fmt.Errorf("kernel width %d is not a multiple of work-group width %d", c.DimX, c.WGWidth)
	}
	if c.PipeDepth < 3 {
		return fmt.Errorf("execute-pipeline depth must be at least 3, got %d", c.PipeDepth)
	}
	if c.Program == "" {
		return errors.New("no kernel program file given")
	}
	return nil
}

/*
 * Sim-D - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/simd-sim/simd/internal/buffer"
	"github.com/simd-sim/simd/internal/cluster"
	"github.com/simd-sim/simd/internal/config"
	"github.com/simd-sim/simd/internal/console"
	"github.com/simd-sim/simd/internal/debugtrace"
	"github.com/simd-sim/simd/internal/logger"
	"github.com/simd-sim/simd/internal/memreq"
	"github.com/simd-sim/simd/internal/sasm"
	"github.com/simd-sim/simd/internal/simassert"
)

// bufArgList collects a repeatable "-i"/"-o"/"-c" flag's occurrences.
// getopt's string flags hold one value; this implements getopt.Value
// instead so every "-i buf,file" on the line is kept, not just the last.
type bufArgList []string

func (l *bufArgList) Set(value string, _ getopt.Option) error {
	*l = append(*l, value)
	return nil
}

func (l *bufArgList) String() string {
	return strings.Join(*l, ",")
}

var Logger *slog.Logger

func main() {
	optDim := getopt.StringLong("dim", 'd', "", "Kernel dimensions X,Y")
	optWidth := getopt.IntLong("width", 'w', 32, "Work-group width")
	optTime := getopt.IntLong("time", 'n', 0, "Cycle time bound, 0 for unbounded")
	optPipe := getopt.IntLong("pipe", 'P', 3, "Execute-pipeline depth")
	optThree := getopt.BoolLong("three-stage", '3', "Select the three-stage decoder")
	optBus := getopt.IntLong("bus-width", 'b', 0, "DRAM bus width in 32-bit words per burst")
	optRefresh := getopt.IntLong("refresh", 'r', 0, "DRAM refresh counter seed")
	optTol := getopt.StringLong("tolerance", 'e', "", "Comparison tolerance, e.g. 0.001 or 2%")
	optSched := getopt.StringLong("sched", 's', "", "Scheduler options, comma-separated")
	optDebug := getopt.StringLong("debug", 'D', "", "Debug categories, comma-separated")
	optLog := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")

	var uploads, downloads, comparisons bufArgList
	getopt.FlagLong(&uploads, "upload", 'i', "Upload buf,file (repeatable)")
	getopt.FlagLong(&downloads, "download", 'o', "Download buf,file (repeatable)")
	getopt.FlagLong(&comparisons, "compare", 'c', "Compare buf,file (repeatable)")

	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLog != "" {
		logFile, _ = os.Create(*optLog)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, false))
	slog.SetDefault(Logger)

	cfg := config.New()
	cfg.RefreshSeed = *optRefresh
	if err := applyFlags(&cfg, optDim, *optWidth, *optTime, *optPipe, *optThree,
		*optTol, *optSched, *optDebug, uploads, downloads, comparisons); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	args := getopt.Args()
	if len(args) != 1 {
		Logger.Error("expected exactly one kernel program file")
		os.Exit(1)
	}
	cfg.Program = args[0]

	if err := cfg.Validate(); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	debugtrace.SetMask(cfg.Debug)

	prog, err := assembleProgram(cfg.Program)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	ccfg := cluster.DefaultConfig()
	ccfg.PipeStages = cfg.PipeDepth
	ccfg.ThreeStage = cfg.ThreeStage
	if *optBus != 0 {
		ccfg.DRAM.BusWidth = *optBus
	}

	clu := cluster.New(ccfg, prog.Instructions, cfg.DimX, cfg.DimY, cfg.WGWidth)
	if cfg.RefreshSeed != 0 {
		clu.DRAM().SetRefreshCount(cfg.RefreshSeed)
	}

	if err := bindAndLoadBuffers(clu, prog.Buffers, cfg.Uploads); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	exitCode := run(clu, cfg)

	if cfg.Interactive {
		console.New(clu).Run()
	}

	os.Exit(exitCode)
}

func applyFlags(cfg *config.Config, dim *string, width, timeBound, pipe int, three bool,
	tol, sched, debug string, uploads, downloads, comparisons bufArgList) error {
	if *dim != "" {
		x, y, err := parseDim(*dim)
		if err != nil {
			return err
		}
		cfg.DimX, cfg.DimY = x, y
	}
	cfg.WGWidth = width
	cfg.TimeBound = timeBound
	cfg.PipeDepth = pipe
	cfg.ThreeStage = three

	if tol != "" {
		t, err := buffer.ParseTolerance(tol)
		if err != nil {
			return err
		}
		cfg.Tolerance = t
	}
	if sched != "" {
		if err := cfg.SetSchedulerOptions(sched); err != nil {
			return err
		}
	}
	if debug != "" {
		if err := cfg.SetDebugOptions(debug); err != nil {
			return err
		}
	}
	for _, arg := range uploads {
		io, err := config.ParseBufferIO(arg)
		if err != nil {
			return err
		}
		cfg.Uploads = append(cfg.Uploads, io)
	}
	for _, arg := range downloads {
		io, err := config.ParseBufferIO(arg)
		if err != nil {
			return err
		}
		cfg.Downloads = append(cfg.Downloads, io)
	}
	for _, arg := range comparisons {
		io, err := config.ParseBufferIO(arg)
		if err != nil {
			return err
		}
		cfg.Comparisons = append(cfg.Comparisons, io)
	}
	return nil
}

func parseDim(s string) (int, int, error) {
	i := strings.IndexByte(s, ',')
	if i < 0 {
		return 0, 0, fmt.Errorf("expected X,Y dimensions, got %s", s)
	}
	x, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, 0, fmt.Errorf("bad X dimension %s", s[:i])
	}
	y, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("bad Y dimension %s", s[i+1:])
	}
	return x, y, nil
}

func assembleProgram(path string) (*sasm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sasm.Assemble(f)
}

// bufAllocator hands out a monotonically increasing byte address per
// target ("dram", "sp0", "sp1"), since the .sas format names buffers by
// target and dimensions but never an address — this CLI is the one
// place that turns a sequence of declarations into concrete offsets.
type bufAllocator struct {
	next map[string]uint32
}

func newBufAllocator() *bufAllocator {
	return &bufAllocator{next: map[string]uint32{"dram": 0, "sp0": 0, "sp1": 0}}
}

func (a *bufAllocator) alloc(target string, dimX, dimY int) (uint32, error) {
	addr, ok := a.next[target]
	if !ok {
		return 0, fmt.Errorf("unknown buffer target: %s", target)
	}
	a.next[target] = addr + uint32(dimX*dimY*4)
	return addr, nil
}

// bindAndLoadBuffers assigns every ".sas"-declared buffer an address,
// binds it to the cluster's DRAM or scratchpad front-end, and preloads
// its contents from a ".buffer ... file" declaration or a matching "-i"
// upload (which, when both name the same buffer, takes precedence since
// it was given explicitly on this run's command line).
func bindAndLoadBuffers(clu *cluster.Cluster, decls []sasm.BufferDecl, uploads []config.BufferIO) error {
	alloc := newBufAllocator()
	uploadFile := make(map[string]string, len(uploads))
	for _, u := range uploads {
		uploadFile[u.Buffer] = u.File
	}

	for _, d := range decls {
		addr, err := alloc.alloc(d.Target, d.DimX, d.DimY)
		if err != nil {
			return fmt.Errorf("buffer %s: %w", d.Name, err)
		}
		b := cluster.Buffer{
			Geometry: memreq.Geometry{Valid: true, Addr: addr, DimX: d.DimX, DimY: d.DimY},
			DimX:     d.DimX, DimY: d.DimY,
		}

		switch d.Target {
		case "dram":
			clu.BindDRAMBuffer(b)
		case "sp0":
			clu.BindSPBuffer(0, b)
		case "sp1":
			clu.BindSPBuffer(1, b)
		default:
			return fmt.Errorf("buffer %s: unknown target %s", d.Name, d.Target)
		}

		file := d.File
		if f, ok := uploadFile[d.Name]; ok {
			file = f
		}
		if file == "" {
			continue
		}
		if err := loadBuffer(clu, d.Target, addr, file); err != nil {
			return fmt.Errorf("buffer %s: %w", d.Name, err)
		}
	}
	return nil
}

// loadBuffer reads file's words and seeds target's backing store at
// addr, one word at a time: DRAM through the command generator's
// address translation into the shared sparse Storage, a scratchpad
// directly via its own byte-addressed Array.
func loadBuffer(clu *cluster.Cluster, target string, addr uint32, file string) error {
	words, err := buffer.Load(file)
	if err != nil {
		return err
	}
	switch target {
	case "dram":
		store := clu.DRAM().Store()
		for i, w := range words {
			bank, row, col := clu.DRAM().Translate(addr + uint32(i*4))
			store.SetWord(bank, row, col, w)
		}
	case "sp0":
		arr := clu.Scratchpad(0).Array()
		for i, w := range words {
			arr.SetWord(addr+uint32(i*4), w)
		}
	case "sp1":
		arr := clu.Scratchpad(1).Array()
		for i, w := range words {
			arr.SetWord(addr+uint32(i*4), w)
		}
	}
	return nil
}

// run steps clu to completion (or to cfg.TimeBound cycles, whichever
// comes first), recovering a *simassert.Violation as a fatal, logged
// contract-violation exit rather than letting it crash the process; any
// other panic propagates, since only the contract-violation class named
// in the error handling design is this function's to handle. It then
// drains "-o" downloads and runs "-c" comparisons, returning the
// process exit code the caller should use.
func run(clu *cluster.Cluster, cfg config.Config) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := simassert.AsViolation(r); ok {
				Logger.Error(v.Error())
				exitCode = 1
				return
			}
			panic(r)
		}
	}()

	for !clu.Done() {
		if cfg.TimeBound > 0 && clu.Cycle() >= int64(cfg.TimeBound) {
			break
		}
		clu.Step()
	}

	if err := downloadBuffers(clu, cfg.Downloads); err != nil {
		Logger.Error(err.Error())
		return 1
	}
	mismatch, err := compareBuffers(clu, cfg.Comparisons, cfg.Tolerance)
	if err != nil {
		Logger.Error(err.Error())
		return 1
	}
	if mismatch {
		return 1
	}
	return 0
}

func downloadBuffers(clu *cluster.Cluster, downloads []config.BufferIO) error {
	for _, d := range downloads {
		words, err := readDownload(clu, d.Buffer)
		if err != nil {
			return fmt.Errorf("download %s: %w", d.Buffer, err)
		}
		if err := buffer.Store(d.File, words); err != nil {
			return fmt.Errorf("download %s: %w", d.Buffer, err)
		}
	}
	return nil
}

func compareBuffers(clu *cluster.Cluster, comparisons []config.BufferIO, tol buffer.Tolerance) (bool, error) {
	mismatch := false
	for _, c := range comparisons {
		got, err := readDownload(clu, c.Buffer)
		if err != nil {
			return false, fmt.Errorf("compare %s: %w", c.Buffer, err)
		}
		want, err := buffer.Load(c.File)
		if err != nil {
			return false, fmt.Errorf("compare %s: %w", c.Buffer, err)
		}
		mismatches, err := buffer.Compare(got, want, tol)
		if err != nil {
			return false, fmt.Errorf("compare %s: %w", c.Buffer, err)
		}
		for _, m := range mismatches {
			Logger.Error(fmt.Sprintf("compare %s: index %d: got %#x, want %#x", c.Buffer, m.Index, m.Got, m.Want))
			mismatch = true
		}
	}
	return mismatch, nil
}

// readDownload reads every word out of name's bound geometry. name must
// be one of the well-known buffer targets ("dram", "sp0", "sp1") since
// the CLI's "-o"/"-c" arguments address buffers by the same target
// names the .sas "buffer" directive uses, not by the kernel-chosen
// buffer name (a cluster only remembers one bound geometry per
// front-end, not the declaration it came from).
func readDownload(clu *cluster.Cluster, target string) ([]uint32, error) {
	switch target {
	case "dram":
		return readDRAM(clu, clu.DRAMBuffer())
	case "sp0":
		return readScratchpad(clu.Scratchpad(0).Array(), clu.SPBuffer(0))
	case "sp1":
		return readScratchpad(clu.Scratchpad(1).Array(), clu.SPBuffer(1))
	default:
		return nil, fmt.Errorf("unknown buffer target: %s", target)
	}
}

func readDRAM(clu *cluster.Cluster, b cluster.Buffer) ([]uint32, error) {
	if !b.Geometry.Valid {
		return nil, fmt.Errorf("no buffer bound")
	}
	n := b.DimX * b.DimY
	words := make([]uint32, n)
	store := clu.DRAM().Store()
	for i := range words {
		bank, row, col := clu.DRAM().Translate(b.Geometry.Addr + uint32(i*4))
		words[i] = store.GetWord(bank, row, col)
	}
	return words, nil
}

func readScratchpad(arr interface{ GetWord(uint32) uint32 }, b cluster.Buffer) ([]uint32, error) {
	if !b.Geometry.Valid {
		return nil, fmt.Errorf("no buffer bound")
	}
	n := b.DimX * b.DimY
	words := make([]uint32, n)
	for i := range words {
		words[i] = arr.GetWord(b.Geometry.Addr + uint32(i*4))
	}
	return words, nil
}

/*
   Sim-D: kernel program assembler.

   Grounded on emu/assemble/assemble.go's line-based parsing style: an
   opcode table keyed by mnemonic string, small character-scanning
   helpers (skipSpace, getName, getNumber, getHex) that each return the
   parsed value and the unconsumed remainder of the line, and plain
   errors.New failures rather than panics. The instruction set here has
   variable, comma-separated text operands instead of fixed RR/RX/SS
   field widths, so the per-opcode table additionally records how many
   operands to expect and where they land in isa.Instruction, but the
   two-pass structure (labels first, then operand resolution) and the
   register/immediate lexers follow the same scan-and-trim shape.

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

package sasm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/simd-sim/simd/internal/isa"
)

// BufferDecl is one ".buffer" directive: a named region bound to a
// front-end (DRAM or one of the two scratchpads) with its dimensions and
// an optional backing file to preload it from.
type BufferDecl struct {
	Name   string
	Target string // "dram", "sp0", or "sp1"
	DimX   int
	DimY   int
	File   string
	Line   int
}

// Program is the assembled form of a kernel source file: the
// instruction stream cluster.New expects as its program slice, plus the
// buffer declarations a caller binds with cluster.BindDRAMBuffer/
// BindSPBuffer before running it.
type Program struct {
	Instructions []isa.Instruction
	Buffers      []BufferDecl
}

// Error reports a failure at a specific source line, the way a real
// assembler's diagnostics do.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Assemble reads a complete .sas kernel source and returns its
// instruction stream and buffer bindings. It runs two passes: the
// first records every label's PC and every buffer declaration, the
// second resolves operands (now that every label PC is known) into
// isa.Instruction values.
func Assemble(r io.Reader) (*Program, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	labels, insnLines, bufs, err := scanLabels(lines)
	if err != nil {
		return nil, err
	}

	prog := &Program{Buffers: bufs}
	for _, il := range insnLines {
		insn, err := assembleLine(il.text, il.no, labels)
		if err != nil {
			return nil, err
		}
		insn.PC = len(prog.Instructions)
		prog.Instructions = append(prog.Instructions, insn)
	}
	return prog, nil
}

type sourceLine struct {
	text string
	no   int
}

// readLines strips comments and blank lines, keeping 1-based source
// line numbers for diagnostics.
func readLines(r io.Reader) ([]sourceLine, error) {
	var out []sourceLine
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := stripComment(sc.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, sourceLine{text: line, no: n})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func stripComment(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		return s[:i]
	}
	return s
}

// scanLabels makes the first pass over the source: it records every
// label's PC (the count of instruction lines seen before it) and pulls
// out every buffer declaration, leaving the remaining lines as the
// ordered instruction stream the second pass will assemble.
func scanLabels(lines []sourceLine) (map[string]int, []sourceLine, []BufferDecl, error) {
	labels := make(map[string]int)
	var insns []sourceLine
	var bufs []BufferDecl

	for _, l := range lines {
		switch {
		case strings.HasPrefix(l.text, "."):
			bd, err := parseBufferDecl(l.text, l.no)
			if err != nil {
				return nil, nil, nil, err
			}
			bufs = append(bufs, bd)

		case isLabelLine(l.text):
			name := strings.TrimSuffix(l.text, ":")
			if _, dup := labels[name]; dup {
				return nil, nil, nil, &Error{l.no, "duplicate label " + name}
			}
			labels[name] = len(insns)

		default:
			insns = append(insns, l)
		}
	}
	return labels, insns, bufs, nil
}

// isLabelLine reports whether a source line is a bare "name:" label
// declaration rather than an instruction.
func isLabelLine(s string) bool {
	if !strings.HasSuffix(s, ":") {
		return false
	}
	name := strings.TrimSuffix(s, ":")
	if name == "" || strings.ContainsAny(name, " \t,") {
		return false
	}
	return true
}

// parseBufferDecl assembles a ".buffer NAME TARGET WxH [file]" line.
func parseBufferDecl(s string, lineNo int) (BufferDecl, error) {
	fields := strings.Fields(s)
	if len(fields) < 4 || fields[0] != ".buffer" {
		return BufferDecl{}, &Error{lineNo, "malformed .buffer directive: " + s}
	}
	dimX, dimY, err := parseDims(fields[3])
	if err != nil {
		return BufferDecl{}, &Error{lineNo, err.Error()}
	}
	bd := BufferDecl{Name: fields[1], Target: fields[2], DimX: dimX, DimY: dimY, Line: lineNo}
	if len(fields) >= 5 {
		bd.File = fields[4]
	}
	switch bd.Target {
	case "dram", "sp0", "sp1":
	default:
		return BufferDecl{}, &Error{lineNo, "unknown buffer target " + bd.Target}
	}
	return bd, nil
}

func parseDims(s string) (int, int, error) {
	if i := strings.IndexByte(s, 'x'); i >= 0 {
		w, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, 0, errors.New("bad buffer width: " + s)
		}
		h, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, errors.New("bad buffer height: " + s)
		}
		return w, h, nil
	}
	w, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, errors.New("bad buffer dimensions: " + s)
	}
	return w, 1, nil
}

// assembleLine parses one instruction line into an isa.Instruction,
// resolving any label reference against labels (already fully
// populated by scanLabels before this runs).
func assembleLine(s string, lineNo int, labels map[string]int) (isa.Instruction, error) {
	mnemonic, rest := getName(s)
	spec, ok := opTable[strings.ToUpper(mnemonic)]
	if !ok {
		return isa.Instruction{}, &Error{lineNo, "unknown opcode " + mnemonic}
	}

	operands, err := splitOperands(rest)
	if err != nil {
		return isa.Instruction{}, &Error{lineNo, err.Error()}
	}

	insn := isa.Instruction{Op: spec.op}
	if err := spec.assemble(&insn, operands, labels); err != nil {
		return isa.Instruction{}, &Error{lineNo, err.Error()}
	}
	return insn, nil
}

// splitOperands breaks the text after the mnemonic into comma-separated,
// trimmed operand strings. An empty remainder yields zero operands.
func splitOperands(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, errors.New("empty operand in: " + s)
		}
		out[i] = p
	}
	return out, nil
}

// getName reads a leading identifier (the mnemonic or a directive
// keyword) and returns it along with the unconsumed remainder of the
// line, mirroring assemble.go's getName helper.
func getName(s string) (string, string) {
	s = skipSpace(s)
	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func skipSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

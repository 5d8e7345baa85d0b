/*
   Sim-D: post-run inspector console.

   Grounded on command/reader/reader.go's liner-driven prompt loop
   (liner.NewLiner, SetCtrlCAborts, SetCompleter, line.Prompt in a for
   loop, errors.Is(err, liner.ErrPromptAborted) to exit cleanly) and
   command/parser/parser.go's table-driven dispatch (a []cmd slice
   matched by minimum-prefix length). The teacher's table carries device
   attach/detach/set/show commands for a mainframe's channel subsystem;
   a finished cluster run has nothing left to attach or step, so the
   table here is a much smaller, read-only set built the same way:
   match by prefix, dispatch to a process function, repeat until the
   function says to quit.

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

// Package console implements the optional "-D interactive" REPL for
// inspecting a cluster's final state: register file, scoreboard,
// control stack, work-group slots, and DRAM/scratchpad contents.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/simd-sim/simd/internal/cluster"
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/sasm"
)

type cmd struct {
	name    string
	min     int
	process func(con *Console, args []string) (bool, error)
}

var cmdList = []cmd{
	{name: "regs", min: 1, process: cmdRegs},
	{name: "sb", min: 1, process: cmdSB},
	{name: "cstack", min: 1, process: cmdCStack},
	{name: "wg", min: 1, process: cmdWG},
	{name: "mem", min: 1, process: cmdMem},
	{name: "quit", min: 1, process: cmdQuit},
	{name: "help", min: 1, process: cmdHelp},
}

// Console pairs a finished cluster with the inspector commands that
// read it.
type Console struct {
	c *cluster.Cluster
}

// New wraps c, a cluster whose kernel has already run to completion,
// for read-only inspection.
func New(c *cluster.Cluster) *Console {
	return &Console{c: c}
}

// Run drives the REPL until the "quit" command or an aborted prompt
// (Ctrl-D/Ctrl-C).
func (con *Console) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(in string) []string {
		return completeCmd(in)
	})

	for {
		input, err := line.Prompt("simd> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("error reading line: " + err.Error())
			return
		}
		line.AppendHistory(input)

		quit, err := con.process(input)
		if err != nil {
			fmt.Println("error: " + err.Error())
		}
		if quit {
			return
		}
	}
}

func (con *Console) process(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	match := matchCmd(name)
	switch len(match) {
	case 0:
		return false, errors.New("command not found: " + name)
	case 1:
		return match[0].process(con, args)
	default:
		return false, errors.New("ambiguous command: " + name)
	}
}

func matchCmd(name string) []cmd {
	var match []cmd
	for _, m := range cmdList {
		if len(name) >= m.min && strings.HasPrefix(m.name, name) {
			match = append(match, m)
		}
	}
	return match
}

func completeCmd(in string) []string {
	var out []string
	for _, m := range cmdList {
		if strings.HasPrefix(m.name, in) {
			out = append(out, m.name+" ")
		}
	}
	return out
}

// cmdRegs dumps a single register's current value: "regs s0",
// "regs v1", "regs vc.ctrl_run".
func cmdRegs(con *Console, args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: regs <register>")
	}
	reg, err := sasm.ParseRegister(args[0])
	if err != nil {
		return false, err
	}
	vals := con.c.ReadRegister(isa.RegOperand(reg))
	fmt.Printf("%s = %v\n", args[0], vals)
	return false, nil
}

// cmdSB dumps the shared scoreboard's pending-write population for one
// slot: "sb 0".
func cmdSB(con *Console, args []string) (bool, error) {
	slot, err := parseSlot(args)
	if err != nil {
		return false, err
	}
	pop := con.c.Scoreboard().Population(slot)
	fmt.Printf("slot %d: population=%#032b cpop_stall=%v\n", slot, pop, con.c.Scoreboard().CPopStall(slot))
	return false, nil
}

// cmdCStack dumps one slot's control stack: stack pointer, overflow
// flag, and top entry, "cstack 0".
func cmdCStack(con *Console, args []string) (bool, error) {
	slot, err := parseSlot(args)
	if err != nil {
		return false, err
	}
	cs := con.c.CStack()
	top := cs.Top(slot)
	fmt.Printf("slot %d: sp=%d overflow=%v top={mask=%v pc=%d type=%v}\n",
		slot, cs.SP(slot), cs.Overflow(slot), top.Mask, top.PC, top.Type)
	return false, nil
}

// cmdWG dumps one slot's work-group state and program counter: "wg 0".
func cmdWG(con *Console, args []string) (bool, error) {
	slot, err := parseSlot(args)
	if err != nil {
		return false, err
	}
	fmt.Printf("slot %d: state=%s pc=%d\n", slot, con.c.SlotState(slot), con.c.PC(slot))
	return false, nil
}

// cmdMem dumps one word from DRAM or a slot's scratchpad: "mem dram
// 0x1000", "mem sp0 64", "mem sp1 128".
func cmdMem(con *Console, args []string) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: mem <dram|sp0|sp1> <addr>")
	}
	addr, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return false, errors.New("address must be a number: " + args[1])
	}

	switch args[0] {
	case "dram":
		bank, row, col := con.c.DRAM().Translate(uint32(addr))
		val := con.c.DRAM().Store().GetWord(bank, row, col)
		fmt.Printf("dram[%#x] (bank=%d row=%d col=%d) = %#x\n", addr, bank, row, col, val)
	case "sp0":
		fmt.Printf("sp0[%#x] = %#x\n", addr, con.c.Scratchpad(0).Array().GetWord(uint32(addr)))
	case "sp1":
		fmt.Printf("sp1[%#x] = %#x\n", addr, con.c.Scratchpad(1).Array().GetWord(uint32(addr)))
	default:
		return false, errors.New("unknown mem target: " + args[0])
	}
	return false, nil
}

func cmdQuit(_ *Console, _ []string) (bool, error) {
	return true, nil
}

func cmdHelp(_ *Console, _ []string) (bool, error) {
	fmt.Println("commands: regs <reg>, sb <slot>, cstack <slot>, wg <slot>, mem <dram|sp0|sp1> <addr>, quit")
	return false, nil
}

func parseSlot(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("usage: <cmd> <slot>")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 0 || slot > 1 {
		return 0, errors.New("slot must be 0 or 1: " + args[0])
	}
	return slot, nil
}

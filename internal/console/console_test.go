/*
 * Sim-D inspector console test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package console

import (
	"testing"

	"github.com/simd-sim/simd/internal/cluster"
	"github.com/simd-sim/simd/internal/isa"
	"github.com/simd-sim/simd/internal/workgroup"
)

func newTestConsole() *Console {
	cfg := cluster.DefaultConfig()
	c := cluster.New(cfg, []isa.Instruction{{Op: isa.OpNOP}}, 32, 1, 32)
	return New(c)
}

func TestProcessQuitCommand(t *testing.T) {
	con := newTestConsole()
	quit, err := con.process("quit")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !quit {
		t.Fatal("quit command should stop the REPL")
	}
}

func TestProcessUnknownCommand(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("bogus"); err == nil {
		t.Fatal("expected an error for an unrecognized command")
	}
}

func TestProcessBlankLine(t *testing.T) {
	con := newTestConsole()
	quit, err := con.process("   ")
	if err != nil || quit {
		t.Fatalf("process(blank) = %v, %v, want false, nil", quit, err)
	}
}

func TestProcessRegsReadsScalar(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("regs s0"); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestProcessRegsRejectsBadRegister(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("regs bogus"); err == nil {
		t.Fatal("expected an error for an unrecognized register")
	}
}

func TestProcessRegsRequiresOneArg(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("regs"); err == nil {
		t.Fatal("expected an error for a missing register argument")
	}
}

func TestProcessSBReportsPopulation(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("sb 0"); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestProcessSBRejectsBadSlot(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("sb 7"); err == nil {
		t.Fatal("expected an error for an out-of-range slot")
	}
}

func TestProcessCStackReportsState(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("cstack 1"); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestProcessWGReportsState(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("wg 0"); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestProcessMemDRAM(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("mem dram 0x100"); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestProcessMemScratchpad(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("mem sp0 64"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := con.process("mem sp1 64"); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestProcessMemRejectsUnknownTarget(t *testing.T) {
	con := newTestConsole()
	if _, err := con.process("mem bogus 0"); err == nil {
		t.Fatal("expected an error for an unrecognized mem target")
	}
}

func TestMatchCmdSingleLetterPrefix(t *testing.T) {
	match := matchCmd("s")
	if len(match) != 1 || match[0].name != "sb" {
		t.Fatalf("matchCmd(\"s\") = %+v, want exactly [sb]", match)
	}
}

func TestMatchCmdUniquePrefix(t *testing.T) {
	match := matchCmd("cs")
	if len(match) != 1 || match[0].name != "cstack" {
		t.Fatalf("matchCmd(\"cs\") = %+v, want exactly [cstack]", match)
	}
}

func TestMatchCmdNoMatch(t *testing.T) {
	if match := matchCmd("zz"); len(match) != 0 {
		t.Fatalf("matchCmd(\"zz\") = %+v, want no matches", match)
	}
}

func TestCompleteCmd(t *testing.T) {
	out := completeCmd("w")
	if len(out) != 1 || out[0] != "wg " {
		t.Fatalf("completeCmd(\"w\") = %v, want [\"wg \"]", out)
	}
}

func TestSlotStateString(t *testing.T) {
	con := newTestConsole()
	if got := con.c.SlotState(0); got != workgroup.Idle {
		t.Errorf("SlotState(0) = %v, want Idle", got)
	}
}

/*
 * Sim-D DRAM command generator test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package dram

import "testing"

func TestAddressTranslateBitFields(t *testing.T) {
	cfg := DefaultConfig()
	g := NewCmdGen(cfg)

	cases := []struct {
		name                   string
		addr                   uint32
		bank, row, col         uint32
	}{
		{"zero", 0, 0, 0, 0},
		{"row bit", 1 << 16, 0, 1, 0},
		{"bank group bit", 1 << 14, 2, 0, 0},
		{"bank low bit", 1 << 6, 1, 0, 0},
		{"col bits", 128, 0, 0, 8},
	}
	for _, c := range cases {
		bank, row, col := g.AddressTranslate(c.addr)
		if bank != c.bank || row != c.row || col != c.col {
			t.Errorf("%s: addr=%#x -> bank=%d row=%d col=%d, want bank=%d row=%d col=%d",
				c.name, c.addr, bank, row, col, c.bank, c.row, c.col)
		}
	}
}

func TestAcceptSetsActOnFirstTouchAndClosesOnRowChange(t *testing.T) {
	cfg := DefaultConfig()
	g := NewCmdGen(cfg)

	req := BurstRequest{Addr: 0, AddrNext: 1 << 14, WordMask: 0xffff}
	g.Accept(req)

	cmd, ok := g.Peek(0)
	if !ok {
		t.Fatal("expected a queued command on bank 0")
	}
	if !cmd.Act {
		t.Error("first touch of a bank must request an activate")
	}
	if !cmd.PrePost {
		t.Error("a burst whose successor targets a different bank group must close its row")
	}
	if !g.AllPrecharged() {
		t.Error("predicted post-burst state should show bank 0 closed")
	}
	if g.QueuesEmpty() {
		t.Error("bank 0's queue must not report empty before Pop")
	}

	g.ClearAct(0)
	cmd, _ = g.Peek(0)
	if cmd.Act {
		t.Error("ClearAct must drop the Act flag without popping the entry")
	}

	g.Pop(0)
	if g.QueuesEmpty() == false {
		t.Error("Pop must drain the only queued command")
	}
}

func TestAcceptKeepsRowOpenWhenNextBurstContinuesIt(t *testing.T) {
	cfg := DefaultConfig()
	g := NewCmdGen(cfg)

	req := BurstRequest{Addr: 0, AddrNext: 0, WordMask: 0xffff}
	g.Accept(req)

	cmd, _ := g.Peek(0)
	if cmd.PrePost {
		t.Error("a contiguous same-row successor must not trigger an early close")
	}
	if g.AllPrecharged() {
		t.Error("bank 0 should remain open (not precharged) when its row stays active")
	}
}

func TestAcceptSecondTouchOfOpenRowSkipsAct(t *testing.T) {
	cfg := DefaultConfig()
	g := NewCmdGen(cfg)

	g.Accept(BurstRequest{Addr: 0, AddrNext: 0, WordMask: 0xffff})
	g.Pop(0)
	g.Accept(BurstRequest{Addr: 0, AddrNext: 0, WordMask: 0xffff})

	cmd, _ := g.Peek(0)
	if cmd.Act {
		t.Error("a second burst to the still-open row must not request another activate")
	}
}

func TestClearPrePreDropsFlagWithoutPopping(t *testing.T) {
	cfg := DefaultConfig()
	g := NewCmdGen(cfg)

	// Open bank 0's row first, under ALAP, so a later access to a
	// different row on the same bank has something to close early.
	g.Accept(BurstRequest{Addr: 0, AddrNext: 0, WordMask: 0xffff, PrePol: PrechargeALAP})
	g.Pop(0)

	g.Accept(BurstRequest{Addr: 1 << 16, AddrNext: 1 << 16, WordMask: 0xffff, PrePol: PrechargeALAP})

	cmd, ok := g.Peek(0)
	if !ok {
		t.Fatal("expected a queued command")
	}
	if !cmd.PrePre {
		t.Fatal("accessing a different row on an already-open bank under ALAP must request an early close")
	}

	g.ClearPrePre(0)
	cmd, ok = g.Peek(0)
	if !ok {
		t.Fatal("ClearPrePre must not pop the entry")
	}
	if cmd.PrePre {
		t.Error("ClearPrePre must clear the pre-activate-precharge flag")
	}
}

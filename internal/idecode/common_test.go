/*
 * Sim-D IDecode common-logic test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package idecode

import (
	"testing"

	"github.com/simd-sim/simd/internal/isa"
)

func testConfig() Config {
	return Config{FPUs: 32, RCPUs: 8, IexecStages: 3}
}

func TestAddImplicitSrcLoadStoreOffsets(t *testing.T) {
	op := isa.Instruction{Op: isa.OpLDGLIN}
	AddImplicitSrc(&op)
	if op.NumSrc != 2 {
		t.Fatalf("NumSrc = %d, want 2", op.NumSrc)
	}
	if op.Src[0].Kind != isa.OperandImm || op.Src[0].Imm != 0 {
		t.Errorf("src0 = %+v, want imm 0", op.Src[0])
	}
	if op.Src[1].Kind != isa.OperandImm || op.Src[1].Imm != 0 {
		t.Errorf("src1 = %+v, want imm 0", op.Src[1])
	}
}

func TestAddImplicitSrcExit(t *testing.T) {
	op := isa.Instruction{Op: isa.OpEXIT}
	AddImplicitSrc(&op)
	if op.NumSrc != 1 || op.Src[0].Reg.Row != isa.VSPOne {
		t.Fatalf("EXIT with no operand should get VSP.one, got %+v", op)
	}
}

func TestAddImplicitSrcCallKeepsExplicitTarget(t *testing.T) {
	op := isa.Instruction{Op: isa.OpCALL, NumSrc: 1, Src: [3]isa.Operand{isa.RegOperand(isa.NewScalar(0, isa.KindPR, 2))}}
	AddImplicitSrc(&op)
	if op.NumSrc != 2 || op.Src[1].Reg.Row != isa.VSPOne {
		t.Fatalf("CALL with one explicit src should gain VSP.one as second, got %+v", op)
	}
	if op.Src[0].Reg.Row != 2 {
		t.Fatal("CALL must not overwrite its explicit first source (the call target)")
	}
}

func TestAddImplicitSrcBufferIndexedRoutesMemIdx(t *testing.T) {
	for _, op := range []int{isa.OpLDGBIDX, isa.OpSTGBIDX, isa.OpLDGIDXIT, isa.OpSTGIDXIT} {
		ins := isa.Instruction{Op: op}
		AddImplicitSrc(&ins)
		if ins.NumSrc != 2 {
			t.Fatalf("op %d: NumSrc = %d, want 2", op, ins.NumSrc)
		}
		if ins.Src[0].Kind != isa.OperandImm || ins.Src[0].Imm != 0 {
			t.Errorf("op %d: src0 = %+v, want imm 0 placeholder", op, ins.Src[0])
		}
		if ins.Src[1].Kind != isa.OperandReg || ins.Src[1].Reg.Kind != isa.KindVSP || ins.Src[1].Reg.Row != isa.VSPMemIdx {
			t.Errorf("op %d: src1 = %+v, want vc.mem_idx", op, ins.Src[1])
		}
	}
}

func TestAddImplicitSrcCPUSH(t *testing.T) {
	cases := []struct {
		op  int
		row int
	}{
		{isa.OpCPUSHIf, isa.VSPCtrlRun},
		{isa.OpCPUSHBrk, isa.VSPCtrlBreak},
		{isa.OpCPUSHRet, isa.VSPCtrlRet},
	}
	for _, c := range cases {
		op := isa.Instruction{Op: c.op, NumSrc: 1, Src: [3]isa.Operand{isa.RegOperand(isa.NewScalar(0, isa.KindPR, 0))}}
		AddImplicitSrc(&op)
		if op.NumSrc != 2 || op.Src[1].Reg.Row != c.row {
			t.Errorf("op %d: want implicit src row %d, got %+v", c.op, c.row, op)
		}
	}
}

func TestProcessImplicitDstBranchWritesCtrlRun(t *testing.T) {
	c := NewCommon(testConfig())
	op := isa.Instruction{Op: isa.OpBRA}
	c.ProcessImplicitDst(&op)
	if !op.HasDst || op.Dst.Reg.Kind != isa.KindVSP || op.Dst.Reg.Row != isa.VSPCtrlRun {
		t.Fatalf("BRA must destine ctrl_run, got %+v", op.Dst)
	}
}

func TestProcessImplicitDstBufferIndexedWritesMemData(t *testing.T) {
	c := NewCommon(testConfig())
	op := isa.Instruction{Op: isa.OpLDGBIDX}
	c.ProcessImplicitDst(&op)
	if !op.HasDst || op.Dst.Reg.Row != isa.VSPMemData {
		t.Fatalf("LDGBIDX must destine mem_data, got %+v", op.Dst)
	}
}

func TestProcessImplicitDstCommitsOnLastWarp(t *testing.T) {
	c := NewCommon(testConfig())
	c.activeWarp, c.lastWarp = 2, 2
	op := isa.Instruction{Op: isa.OpBRA}
	c.ProcessImplicitDst(&op)
	if !op.Commit() {
		t.Fatal("a CMASK-writing op at the last warp must commit")
	}

	c.activeWarp, c.lastWarp = 0, 2
	op = isa.Instruction{Op: isa.OpBRA}
	c.ProcessImplicitDst(&op)
	if op.Commit() {
		t.Fatal("a CMASK-writing op before the last warp must not commit")
	}
}

func TestSelectOpInjectsCPOPOnNoActiveThreads(t *testing.T) {
	c := NewCommon(testConfig())
	var op isa.Instruction
	op.MarkDead()
	pc := 0

	c.SelectOp(&op, &pc, SelectInput{PipeFlush: true})
	if !c.cpopCanInject {
		t.Fatal("a flush with no injected op in flight must arm cpop_can_inject")
	}

	c.SelectOp(&op, &pc, SelectInput{ThreadActive: false, LastWarpInput: 4})
	if op.Op != isa.OpCPOP || !op.Injected() {
		t.Fatalf("expected an injected CPOP, got %+v", op)
	}
	if c.lastWarp != 4 {
		t.Fatalf("lastWarp = %d, want 4", c.lastWarp)
	}
	if c.cpopCanInject {
		t.Fatal("cpop_can_inject must clear once the CPOP has been injected")
	}
}

func TestSelectOpFetchesNewInstructionWhenIdle(t *testing.T) {
	c := NewCommon(testConfig())
	var op isa.Instruction
	op.MarkDead()
	pc := 0

	fetched := isa.Instruction{Op: isa.OpADD}
	c.SelectOp(&op, &pc, SelectInput{ThreadActive: true, Fetched: fetched, FetchedPC: 7})
	if op.Op != isa.OpADD || pc != 7 {
		t.Fatalf("expected fetched ADD at pc 7, got op=%+v pc=%d", op, pc)
	}
}

func TestSidivStallCounters(t *testing.T) {
	c := NewCommon(Config{FPUs: 32, RCPUs: 8, IexecStages: 3})
	c.SetSidivStallCounters()
	if c.sidivIssueDistStall != 8 {
		t.Fatalf("issue dist stall = %d, want 8", c.sidivIssueDistStall)
	}
	if c.sidivPipeStall != 5 {
		t.Fatalf("pipe stall = %d, want 8-3=5", c.sidivPipeStall)
	}

	op := isa.Instruction{Op: isa.OpADD}
	if c.CanIssue(&op, false) {
		t.Fatal("an unrelated op must still stall behind an outstanding sidiv pipe stall")
	}
	for i := 0; i < 5; i++ {
		c.DecrementSidivStallCounters()
	}
	if !c.CanIssue(&op, false) {
		t.Fatal("after the pipe stall drains, other ops must be able to issue")
	}
}

func TestSidivStallCountersNeverUnderflowWithWideIexec(t *testing.T) {
	c := NewCommon(Config{FPUs: 32, RCPUs: 8, IexecStages: 16})
	c.SetSidivStallCounters()
	if c.sidivPipeStall != 0 {
		t.Fatalf("pipe stall = %d, want 0 when iexec is wider than 8 stages", c.sidivPipeStall)
	}
}

func TestCanIssueCPopStallsOnOutstandingCStackWrite(t *testing.T) {
	c := NewCommon(testConfig())
	op := isa.Instruction{Op: isa.OpCPOP}
	if c.CanIssue(&op, true) {
		t.Fatal("CPOP must stall while a CSTACK write is outstanding")
	}
	if !c.CanIssue(&op, false) {
		t.Fatal("CPOP must be free to issue once no CSTACK write is outstanding")
	}
}

/*
 * Sim-D run configuration test cases.
 *
 * Copyright 2024, Richard Cornwell
 */

package config

import (
	"testing"

	"github.com/simd-sim/simd/internal/debugtrace"
)

func validConfig() Config {
	c := New()
	c.DimX, c.DimY = 64, 1
	c.Program = "kernel.sas"
	return c
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsMissingDimensions(t *testing.T) {
	c := validConfig()
	c.DimX = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for missing kernel dimensions")
	}
}

func TestValidateRejectsWidthNotDividingDimX(t *testing.T) {
	c := validConfig()
	c.DimX = 65
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a kernel width not a multiple of the work-group width")
	}
}

func TestValidateRejectsShallowPipeline(t *testing.T) {
	c := validConfig()
	c.PipeDepth = 2
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an execute-pipeline depth below 3")
	}
}

func TestValidateRejectsMissingProgram(t *testing.T) {
	c := validConfig()
	c.Program = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a missing kernel program")
	}
}

func TestSetDebugOptionsParsesCommaList(t *testing.T) {
	c := New()
	if err := c.SetDebugOptions("compute,dram"); err != nil {
		t.Fatalf("SetDebugOptions: %v", err)
	}
	want := debugtrace.Compute | debugtrace.DRAM
	if c.Debug != want {
		t.Errorf("Debug = %#x, want %#x", c.Debug, want)
	}
}

func TestSetDebugOptionsRejectsUnknownName(t *testing.T) {
	c := New()
	if err := c.SetDebugOptions("bogus"); err == nil {
		t.Fatal("expected an error for an unknown debug option")
	}
}

func TestSetDebugOptionsInteractive(t *testing.T) {
	c := New()
	if err := c.SetDebugOptions("interactive,compute"); err != nil {
		t.Fatalf("SetDebugOptions: %v", err)
	}
	if !c.Interactive {
		t.Error("Interactive = false, want true")
	}
	if c.Debug != debugtrace.Compute {
		t.Errorf("Debug = %#x, want %#x", c.Debug, debugtrace.Compute)
	}
}

func TestSetSchedulerOptionsParsesCommaList(t *testing.T) {
	c := New()
	if err := c.SetSchedulerOptions("no_parallel_dram_sp,stop_sim_fini"); err != nil {
		t.Fatalf("SetSchedulerOptions: %v", err)
	}
	want := NoParallelDRAMSP | StopSimFini
	if c.Scheduler != want {
		t.Errorf("Scheduler = %#x, want %#x", c.Scheduler, want)
	}
}

func TestParseBufferIO(t *testing.T) {
	io, err := ParseBufferIO("in,data.csv")
	if err != nil {
		t.Fatalf("ParseBufferIO: %v", err)
	}
	if io.Buffer != "in" || io.File != "data.csv" {
		t.Errorf("ParseBufferIO = %+v, want {in data.csv}", io)
	}
}

func TestParseBufferIORejectsMissingComma(t *testing.T) {
	if _, err := ParseBufferIO("nocomma"); err == nil {
		t.Fatal("expected an error for a buf,file argument with no comma")
	}
}

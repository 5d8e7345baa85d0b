/*
   Sim-D: DDR4 timing-bin constants.

   Grounded on original_source/src/mc/control/CmdArb_DDR4.h's xml_map,
   which selects a DRAMPower XML timing file by (speed, organisation).
   Rather than parse a JEDEC datasheet at run time via libdrampower, the
   one bin Sim-D targets (DDR4_3200AA, DDR4_8Gb_x16) is reproduced here
   as plain constants — a spec Non-goal explicitly excludes carrying a
   full timing-bin catalog; only this bin needs to be exact enough to
   drive the arbiter's admissibility checks.

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

package dram

// Timing holds the DRAM-cycle counts the arbiter's admissibility checks
// are built from. All units are DRAM clock cycles (DDR4 is double data
// rate on the bus, but the control-side clock in_clk this package steps
// on is the single-data-rate command clock).
type Timing struct {
	RCD int // ACT -> CAS, same bank
	CAS int // CL: read CAS -> first read data
	CWL int // CAS write latency: write CAS -> first write data
	RP  int // PRE -> ACT, same bank
	RAS int // ACT -> PRE, same bank
	RC  int // ACT -> ACT, same bank (RAS+RP)
	WR  int // last write burst -> PRE, same bank
	RTP int // last read burst -> PRE, same bank

	RRDS int // ACT -> ACT, different bank group
	RRDL int // ACT -> ACT, same bank group
	FAW  int // four-activate window, any bank

	CCDS int // CAS -> CAS, different bank group
	CCDL int // CAS -> CAS, same bank group

	RFC  int // REF -> next ACT
	REFI int // average refresh interval
}

// DefaultTiming is the DDR4_3200AA / DDR4_8Gb_x16 bin CmdArb_DDR4's
// xml_map selects by default.
var DefaultTiming = Timing{
	RCD: 22, CAS: 22, CWL: 16,
	RP: 22, RAS: 52, RC: 74,
	WR: 24, RTP: 12,
	RRDS: 4, RRDL: 8, FAW: 26,
	CCDS: 4, CCDL: 8,
	RFC: 350, REFI: 12480,
}

package main

import "testing"

func TestParseDim(t *testing.T) {
	tests := []struct {
		in      string
		x, y    int
		wantErr bool
	}{
		{"64,32", 64, 32, false},
		{"1,1", 1, 1, false},
		{"64", 0, 0, true},
		{"64,abc", 0, 0, true},
		{"abc,64", 0, 0, true},
	}
	for _, tt := range tests {
		x, y, err := parseDim(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseDim(%q): expected an error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDim(%q): %v", tt.in, err)
			continue
		}
		if x != tt.x || y != tt.y {
			t.Errorf("parseDim(%q) = %d,%d, want %d,%d", tt.in, x, y, tt.x, tt.y)
		}
	}
}

func TestBufAllocatorAssignsDistinctRegions(t *testing.T) {
	a := newBufAllocator()

	addr1, err := a.alloc("dram", 8, 8)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if addr1 != 0 {
		t.Errorf("first dram alloc = %d, want 0", addr1)
	}

	addr2, err := a.alloc("dram", 4, 4)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if want := uint32(8 * 8 * 4); addr2 != want {
		t.Errorf("second dram alloc = %d, want %d", addr2, want)
	}

	sp0, err := a.alloc("sp0", 2, 2)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if sp0 != 0 {
		t.Errorf("first sp0 alloc = %d, want 0 (independent of dram's offset)", sp0)
	}
}

func TestBufAllocatorRejectsUnknownTarget(t *testing.T) {
	a := newBufAllocator()
	if _, err := a.alloc("bogus", 1, 1); err == nil {
		t.Fatal("expected an error for an unknown buffer target")
	}
}

func TestBufArgListAccumulates(t *testing.T) {
	var l bufArgList
	if err := l.Set("a,1.bin", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := l.Set("b,2.bin", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(l) != 2 || l[0] != "a,1.bin" || l[1] != "b,2.bin" {
		t.Errorf("bufArgList = %v, want [a,1.bin b,2.bin]", l)
	}
}

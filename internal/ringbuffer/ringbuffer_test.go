package ringbuffer

import "testing"

func TestSwapHeadSingleEntry(t *testing.T) {
	rb := New[int](1)

	got := rb.SwapHead(42)
	if got != 42 {
		t.Fatalf("single-entry ringbuffer should read back what it just wrote, got %d", got)
	}

	got = rb.SwapHead(7)
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestSwapHeadShiftsThroughStages(t *testing.T) {
	rb := New[int](3)

	for i := 1; i <= 3; i++ {
		rb.SwapHead(i)
	}
	// After three pushes of 1,2,3 into three stages, 1 has already been
	// returned by the third push; the oldest stage still in the ring holds 2.
	if got := *rb.Top(); got != 2 {
		t.Fatalf("top = %d, want 2", got)
	}

	out := rb.SwapHead(4)
	if out != 2 {
		t.Fatalf("evicted entry = %d, want 2", out)
	}
	if got := *rb.Top(); got != 3 {
		t.Fatalf("top after shift = %d, want 3", got)
	}
}

func TestStagePanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range stage")
		}
	}()
	rb := New[int](2)
	rb.Stage(5)
}

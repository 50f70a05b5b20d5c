package ringbuf

import (
	"testing"

	"chartsim/internal/model"
)

func upd(i int) model.Update {
	return model.Update{Asset: "BTC", TF: 60, Candle: model.Candle{Time: int64(i) * 60_000, Close: float64(i)}}
}

func TestPushPop_FIFO(t *testing.T) {
	r := New(8)

	for i := 0; i < 5; i++ {
		if !r.Push(upd(i)) {
			t.Fatalf("push %d failed on non-full buffer", i)
		}
	}
	if r.Len() != 5 {
		t.Fatalf("len: got %d, want 5", r.Len())
	}

	for i := 0; i < 5; i++ {
		u, ok := r.Pop()
		if !ok {
			t.Fatalf("pop %d failed on non-empty buffer", i)
		}
		if u.Close != float64(i) {
			t.Errorf("pop %d: got close %v, want %d (FIFO order)", i, u.Close, i)
		}
	}

	if _, ok := r.Pop(); ok {
		t.Error("pop on empty buffer should fail")
	}
}

func TestPush_OverflowCountsAndDrops(t *testing.T) {
	r := New(4) // capacity 4 exactly (power of two)

	for i := 0; i < 4; i++ {
		if !r.Push(upd(i)) {
			t.Fatalf("push %d failed before capacity", i)
		}
	}
	if r.Push(upd(99)) {
		t.Error("push on full buffer should fail")
	}
	if r.Overflow() != 1 {
		t.Errorf("overflow: got %d, want 1", r.Overflow())
	}

	// The dropped update must not have overwritten anything.
	u, _ := r.Pop()
	if u.Close != 0 {
		t.Errorf("head after overflow: got %v, want 0", u.Close)
	}
}

func TestNew_RoundsUpToPowerOfTwo(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{0, 2}, {1, 2}, {3, 4}, {5, 8}, {8, 8}, {1000, 1024},
	} {
		if got := New(tc.in).Cap(); got != tc.want {
			t.Errorf("New(%d).Cap(): got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestWrapAround(t *testing.T) {
	r := New(4)

	// Fill, drain, fill again: indices must wrap cleanly.
	for round := 0; round < 10; round++ {
		for i := 0; i < 4; i++ {
			r.Push(upd(round*4 + i))
		}
		for i := 0; i < 4; i++ {
			u, ok := r.Pop()
			if !ok || u.Close != float64(round*4+i) {
				t.Fatalf("round %d pop %d: got %v ok=%v", round, i, u.Close, ok)
			}
		}
	}
}

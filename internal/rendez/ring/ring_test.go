package ring

import "testing"

func TestFillDrain(t *testing.T) {
	b := New[int](2)
	if !b.IsEmpty() || b.IsFull() {
		t.Fatalf("new buffer should be empty")
	}
	b.Push(1)
	b.Push(2)
	if !b.IsFull() {
		t.Fatalf("expected full after 2 pushes into capacity 2")
	}
	if got := b.Pop(); got != 1 {
		t.Errorf("Pop() = %d, want 1", got)
	}
	b.Push(3)
	if got := b.Pop(); got != 2 {
		t.Errorf("Pop() = %d, want 2", got)
	}
	if got := b.Pop(); got != 3 {
		t.Errorf("Pop() = %d, want 3", got)
	}
	if !b.IsEmpty() {
		t.Errorf("expected empty after draining")
	}
}

func TestWraparound(t *testing.T) {
	b := New[int](3)
	for i := 0; i < 100; i++ {
		b.Push(i)
		if got := b.Peek(); got != i {
			t.Fatalf("Peek() = %d, want %d", got, i)
		}
		if got := b.Pop(); got != i {
			t.Fatalf("Pop() = %d, want %d", got, i)
		}
	}
}

func TestPushOnFullPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic pushing onto a full buffer")
		}
	}()
	b := New[int](1)
	b.Push(1)
	b.Push(2)
}

func TestPopOnEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping an empty buffer")
		}
	}()
	New[int](1).Pop()
}

func TestNewInvalidCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic constructing a zero-capacity buffer")
		}
	}()
	New[int](0)
}

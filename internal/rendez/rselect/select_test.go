package rselect

import (
	"context"
	"testing"
	"time"

	"sutext.github.io/cable/internal/rendez"
)

// Select readiness across two empty channels; a send on one
// resolves the select with that case's value.
func TestSelectReadiness(t *testing.T) {
	x, err := rendez.NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel(x): %v", err)
	}
	y, err := rendez.NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel(y): %v", err)
	}

	var got int
	var which string
	done := make(chan struct{})
	go func() {
		idx, err := Select(context.Background(),
			Recv(x, func(v int) { got = v; which = "x" }),
			Recv(y, func(v int) { got = v; which = "y" }),
		)
		if err != nil {
			t.Errorf("Select: %v", err)
		}
		if idx != 1 {
			t.Errorf("Select returned case %d, want 1 (y)", idx)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond) // let Select register its waiters
	if err := y.Send(42); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Select did not return within 2s (liveness)")
	}
	if which != "y" || got != 42 {
		t.Errorf("got (%s, %d), want (y, 42)", which, got)
	}
}

// A selector's follow-up TryReceive can lose a race to another
// receiver; Select must re-park rather than error or panic.
func TestSelectTolerateFalsePositive(t *testing.T) {
	x, err := rendez.NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	drained := make(chan struct{})
	go func() {
		<-drained
		if _, err := x.Receive(); err != nil {
			t.Errorf("competing Receive: %v", err)
		}
	}()

	resultCh := make(chan int, 1)
	go func() {
		idx, err := Select(context.Background(), Recv(x, func(v int) { resultCh <- v }))
		if err != nil {
			t.Errorf("Select: %v", err)
		}
		if idx != 0 {
			t.Errorf("Select returned case %d, want 0", idx)
		}
	}()

	time.Sleep(10 * time.Millisecond)
	if err := x.Send(1); err != nil {
		t.Fatalf("Send(1): %v", err)
	}
	close(drained) // let the competing receiver race the selector

	time.Sleep(10 * time.Millisecond)
	if err := x.Send(2); err != nil {
		t.Fatalf("Send(2): %v", err)
	}

	select {
	case v := <-resultCh:
		if v != 1 && v != 2 {
			t.Errorf("Select delivered %d, want 1 or 2", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Select never delivered a value after a false positive")
	}
}

func TestSelectContextCancel(t *testing.T) {
	x, err := rendez.NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = Select(ctx, Recv(x, func(int) {}))
	if err == nil {
		t.Fatal("expected context deadline error, got nil")
	}
}

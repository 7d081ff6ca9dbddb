package rendez

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewChannelInvalidCapacity(t *testing.T) {
	if _, err := NewChannel[int](0); err == nil {
		t.Fatal("expected InvalidArgument error for capacity 0")
	} else if e, ok := err.(*Error); !ok || e.Kind != InvalidArgument {
		t.Errorf("got %v, want an InvalidArgument *Error", err)
	}
}

// Buffer fill/drain.
func TestBufferFillDrain(t *testing.T) {
	ch, err := NewChannel[int](2)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	if err := ch.Send(1); err != nil {
		t.Fatalf("Send(1): %v", err)
	}
	if err := ch.Send(2); err != nil {
		t.Fatalf("Send(2): %v", err)
	}
	if ch.TrySend(3) {
		t.Fatal("TrySend(3) should fail, buffer is full")
	}
	if v, err := ch.Receive(); err != nil || v != 1 {
		t.Errorf("Receive() = (%d, %v), want (1, nil)", v, err)
	}
	if !ch.TrySend(3) {
		t.Fatal("TrySend(3) should succeed after draining one slot")
	}
	if v, err := ch.Receive(); err != nil || v != 2 {
		t.Errorf("Receive() = (%d, %v), want (2, nil)", v, err)
	}
	if v, err := ch.Receive(); err != nil || v != 3 {
		t.Errorf("Receive() = (%d, %v), want (3, nil)", v, err)
	}
}

// Rendezvous — a parked receiver is handed the value directly,
// bypassing the buffer.
func TestRendezvous(t *testing.T) {
	ch, err := NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	recvResult := make(chan int, 1)
	go func() {
		v, err := ch.Receive()
		if err != nil {
			t.Errorf("Receive: %v", err)
			return
		}
		recvResult <- v
	}()
	time.Sleep(10 * time.Millisecond) // ensure the receiver is parked
	if err := ch.Send(42); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case v := <-recvResult:
		if v != 42 {
			t.Errorf("Receive got %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("rendezvous receive never returned")
	}
	if ch.Len() != 0 {
		t.Errorf("buffer should stay empty across a direct handoff, got Len()=%d", ch.Len())
	}
}

// Closing a channel cancels a parked receiver.
func TestCloseCancelsReceiver(t *testing.T) {
	ch, err := NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	errCh := make(chan error, 1)
	go func() {
		_, err := ch.Receive()
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)
	ch.Close()
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Receive error = %v, want ChannelClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("parked Receive was not cancelled by Close")
	}
}

// Close preserves already-buffered values for draining.
func TestClosePreservesBuffered(t *testing.T) {
	ch, err := NewChannel[int](3)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	if err := ch.Send(1); err != nil {
		t.Fatalf("Send(1): %v", err)
	}
	if err := ch.Send(2); err != nil {
		t.Fatalf("Send(2): %v", err)
	}
	ch.Close()
	if v, err := ch.Receive(); err != nil || v != 1 {
		t.Errorf("Receive() = (%d, %v), want (1, nil)", v, err)
	}
	if v, err := ch.Receive(); err != nil || v != 2 {
		t.Errorf("Receive() = (%d, %v), want (2, nil)", v, err)
	}
	if _, err := ch.Receive(); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive() error = %v, want ChannelClosed", err)
	}
}

func TestSendOnClosedFailsImmediately(t *testing.T) {
	ch, _ := NewChannel[int](1)
	ch.Close()
	if err := ch.Send(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Send on closed channel = %v, want ChannelClosed", err)
	}
	if ch.TrySend(1) {
		t.Error("TrySend on closed channel should report false")
	}
}

func TestCloseIdempotent(t *testing.T) {
	ch, _ := NewChannel[int](1)
	ch.Close()
	ch.Close() // must not panic or block
	if !ch.IsClosed() {
		t.Error("IsClosed() should be true after Close")
	}
}

func TestTryReceiveEmpty(t *testing.T) {
	ch, _ := NewChannel[int](1)
	if _, ok := ch.TryReceive(); ok {
		t.Error("TryReceive on an empty open channel should report false")
	}
	ch.Close()
	if _, ok := ch.TryReceive(); ok {
		t.Error("TryReceive on an empty closed channel should report false, not park or error")
	}
}

func TestSendAsyncReceiveAsync(t *testing.T) {
	ch, _ := NewChannel[int](1)
	fut := ch.SendAsync(7)
	if _, err := fut.Wait(context.Background()); err != nil {
		t.Fatalf("SendAsync future: %v", err)
	}
	rfut := ch.ReceiveAsync()
	v, err := rfut.Wait(context.Background())
	if err != nil || v != 7 {
		t.Errorf("ReceiveAsync future = (%d, %v), want (7, nil)", v, err)
	}
}

func TestSendAsyncParksThenCompletes(t *testing.T) {
	ch, _ := NewChannel[int](1)
	if err := ch.Send(1); err != nil {
		t.Fatalf("Send: %v", err)
	}
	fut := ch.SendAsync(2) // buffer is full, this parks a sender
	select {
	case <-fut.Done():
		t.Fatal("SendAsync future resolved before any receiver drained the buffer")
	case <-time.After(20 * time.Millisecond):
	}
	if v, err := ch.Receive(); err != nil || v != 1 {
		t.Fatalf("Receive() = (%d, %v), want (1, nil)", v, err)
	}
	if _, err := fut.Wait(context.Background()); err != nil {
		t.Errorf("SendAsync future: %v", err)
	}
	if v, err := ch.Receive(); err != nil || v != 2 {
		t.Errorf("Receive() = (%d, %v), want (2, nil)", v, err)
	}
}

// Package rendez_bridge adapts internal/rendez to the rest of the cable
// module: a Selectable wrapper for native Go channels (so a rendez.Channel
// can be multiplexed alongside raft's Ready() channel or a shutdown signal
// in one rselect.Select call), and a draining helper that logs through
// xlog the way internal/muticast already does.
package rendez_bridge

import (
	"context"
	"sync"

	"sutext.github.io/cable/internal/rendez"
	"sutext.github.io/cable/internal/rendez/rselect"
	"sutext.github.io/cable/xlog"
)

// NativeChan adapts a receive-only Go channel to the rendez.Selectable
// contract, so a caller that already holds a raw channel — raft's
// Node.Ready(), a ticker's C, a shutdown signal — can register it
// alongside one or more rendez.Channel values in a single rselect.Select,
// instead of hand-writing a native select statement the way
// broker.(*broker).run's raft loop does today.
//
// A NativeChan is meant for the same single-flight usage pattern
// rselect.Select itself drives: AddWaiter is called at most once before
// the matching RemoveWaiter. It is not safe to call AddWaiter again while
// a previous registration is still outstanding.
type NativeChan[T any] struct {
	ch <-chan T

	mu      sync.Mutex
	pending chan T       // holds a value consumed by the forwarding goroutine, for TryReceive to pick up
	stop    chan struct{} // closed by RemoveWaiter to abandon an in-flight registration
}

// FromChan wraps ch for use as an rselect source via Recv, below.
func FromChan[T any](ch <-chan T) *NativeChan[T] {
	return &NativeChan[T]{ch: ch, pending: make(chan T, 1)}
}

// TryReceive performs a non-blocking receive, preferring a value a prior
// AddWaiter registration already consumed on ch's behalf.
func (n *NativeChan[T]) TryReceive() (T, bool) {
	select {
	case v := <-n.pending:
		return v, true
	default:
	}
	select {
	case v, ok := <-n.ch:
		if !ok {
			var zero T
			return zero, false
		}
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// AddWaiter satisfies rendez.Selectable by spawning one goroutine that
// blocks on ch and fires w when a value (or closure) arrives, stashing any
// consumed value in n.pending so the follow-up TryReceive still sees it.
func (n *NativeChan[T]) AddWaiter(w *rendez.Waiter) bool {
	n.mu.Lock()
	stop := make(chan struct{})
	n.stop = stop
	n.mu.Unlock()

	go func() {
		select {
		case v, ok := <-n.ch:
			if ok {
				n.pending <- v
			}
			w.Signal()
		case <-stop:
		}
	}()
	return false
}

// RemoveWaiter abandons the in-flight forwarding goroutine registered by
// the matching AddWaiter, if it hasn't already fired.
func (n *NativeChan[T]) RemoveWaiter(w *rendez.Waiter) {
	n.mu.Lock()
	stop := n.stop
	n.stop = nil
	n.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// Recv builds an rselect.Case from a native channel source, the
// counterpart of rselect.Recv for rendez.Channel sources — e.g. to select
// over a rendez.Channel of outbound packets alongside raft's Ready():
//
//	rselect.Select(ctx,
//	    rselect.Recv(outbound, handleOutbound),
//	    rendez_bridge.Recv(node.Ready(), handleReady),
//	)
func Recv[T any](ch <-chan T, fn func(T)) rselect.Case {
	nc := FromChan(ch)
	return rselect.FromSelectable[T](nc, nc.TryReceive, fn)
}

// Bridge forwards every value a *rendez.Channel[T] yields to a sink,
// logging through xlog under the "RENDEZ" group rather than making
// rendez.Channel itself take a logging dependency on its hot path.
type Bridge[T any] struct {
	ch     *rendez.Channel[T]
	logger *xlog.Logger
}

// New constructs a Bridge around ch.
func New[T any](ch *rendez.Channel[T]) *Bridge[T] {
	return &Bridge[T]{ch: ch, logger: xlog.With("GROUP", "RENDEZ")}
}

// Drain forwards every value ch yields to sink until ctx ends or ch
// closes. It returns the reason it stopped.
func (b *Bridge[T]) Drain(ctx context.Context, sink func(T)) error {
	for {
		v, err := b.ch.ReceiveAsync().Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Debug("drain stopped: context ended")
			} else {
				b.logger.Debug("drain stopped: channel closed")
			}
			return err
		}
		sink(v)
	}
}

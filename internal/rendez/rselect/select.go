// Package rselect implements a select multiplexer: given several
// rendez.Selectable cases, it waits until one becomes ready and
// dispatches its callback, the way a native Go select statement dispatches
// the first ready case but across rendez.Channel values instead of native
// channels.
package rselect

import (
	"context"

	"sutext.github.io/cable/internal/rendez"
)

// Case pairs a Selectable with a non-blocking probe and a callback to run
// when the probe succeeds. Build one with Recv.
type Case struct {
	sel   rendez.Selectable
	probe func() bool // TryReceive-shaped: returns true and invokes the callback as a side effect if a value was taken
}

// Recv builds a Case over ch: on readiness, it performs ch.TryReceive and,
// if a value was actually taken, invokes fn with it.
func Recv[T any](ch *rendez.Channel[T], fn func(T)) Case {
	return FromSelectable[T](ch, ch.TryReceive, fn)
}

// FromSelectable builds a Case from any Selectable paired with a
// TryReceive-shaped probe, for sources that aren't a *rendez.Channel —
// see package rendez_bridge, which adapts native Go channels this way.
func FromSelectable[T any](sel rendez.Selectable, tryReceive func() (T, bool), fn func(T)) Case {
	return Case{
		sel: sel,
		probe: func() bool {
			v, ok := tryReceive()
			if !ok {
				return false
			}
			fn(v)
			return true
		},
	}
}

// Select evaluates cases optimistically in order, dispatching the first
// whose probe succeeds. If none are immediately ready, it registers a
// single shared Waiter with every case's Selectable and blocks until one
// fires, then re-probes from the top — tolerating the false positives the
// Selectable contract allows. It returns the index of the dispatched
// case, or -1 and a non-nil error if ctx ends first.
func Select(ctx context.Context, cases ...Case) (int, error) {
	w := rendez.NewWaiter()
	first := true
	for {
		for i, c := range cases {
			if c.probe() {
				return i, nil
			}
		}
		if !first {
			// Rearm the same Waiter instead of allocating a fresh one for
			// every re-probe round; it was fully removed from every case
			// at the end of the previous round, so no stale fire races it.
			w.Reset()
		}
		first = false
		fired := false
		for _, c := range cases {
			if c.sel.AddWaiter(w) {
				fired = true
			}
		}
		if !fired {
			select {
			case <-w.Done():
			case <-ctx.Done():
				for _, c := range cases {
					c.sel.RemoveWaiter(w)
				}
				return -1, ctx.Err()
			}
		}
		for _, c := range cases {
			c.sel.RemoveWaiter(w)
		}
		// Loop back to step 1: re-probe now that something may be ready.
	}
}

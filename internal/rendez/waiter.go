package rendez

import "sync"

// Waiter is the one-shot, notification-only signal a select multiplexer
// registers with one or more Selectables (see package rselect). Receiving
// on Done means "a value may be ready — come look", not "a value is
// reserved for you": the channel's selects queue is notification-only, so
// callers must follow up with TryReceive and tolerate false positives.
type Waiter struct {
	node[*Waiter]
	mu    sync.Mutex
	fired bool
	ch    chan struct{}
}

// NewWaiter constructs an armed, unfired Waiter.
func NewWaiter() *Waiter {
	return &Waiter{ch: make(chan struct{})}
}

func (w *Waiter) linkNode() *node[*Waiter] { return &w.node }

// Done returns the channel that closes the first time fire succeeds.
func (w *Waiter) Done() <-chan struct{} { return w.ch }

// fire signals w, reporting whether this call was the one that did it. A
// Waiter fires at most once; later calls are no-ops.
func (w *Waiter) fire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fired {
		return false
	}
	w.fired = true
	close(w.ch)
	return true
}

// Signal fires w from outside this package's own completion paths. It is
// exported for bridges that forward readiness from a foreign source (see
// internal/rendez_bridge.NativeChan) into the same one-shot contract
// AddWaiter/notifySelects use internally.
func (w *Waiter) Signal() bool { return w.fire() }

// Reset rearms w for another round of registration. Callers must ensure w
// has first been removed from every Selectable it was previously
// registered with (RemoveWaiter), or a stale fire could race a fresh one.
func (w *Waiter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fired = false
	w.ch = make(chan struct{})
}

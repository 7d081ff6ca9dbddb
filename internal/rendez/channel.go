package rendez

import (
	"sync"

	"sutext.github.io/cable/internal/rendez/ring"
	"sutext.github.io/cable/internal/result"
)

// sender is a parked Send waiting for a receiver to drain the full buffer.
type sender[T any] struct {
	node[*sender[T]]
	value T
	done  chan result.Result[struct{}]
}

func (s *sender[T]) linkNode() *node[*sender[T]] { return &s.node }

// receiver is a parked Receive waiting for the empty-and-open buffer to
// gain a value, or for the channel to close.
type receiver[T any] struct {
	node[*receiver[T]]
	done chan result.Result[T]
}

func (r *receiver[T]) linkNode() *node[*receiver[T]] { return &r.node }

// Channel is a bounded, typed, FIFO channel between concurrently scheduled
// goroutines. The zero value is not usable; construct one with NewChannel.
type Channel[T any] struct {
	mu        sync.Mutex
	buf       *ring.Buffer[T]
	senders   waitList[*sender[T]]
	receivers waitList[*receiver[T]]
	selects   waitList[*Waiter]
	closed    bool
}

// NewChannel constructs a Channel with room for capacity pending values.
// capacity must be at least 1.
func NewChannel[T any](capacity int) (*Channel[T], error) {
	if capacity < 1 {
		return nil, newError(InvalidArgument, "NewChannel")
	}
	return &Channel[T]{buf: ring.New[T](capacity)}, nil
}

// Len reports the number of values currently buffered.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// Cap reports the channel's fixed capacity.
func (c *Channel[T]) Cap() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Cap()
}

// IsClosed reports whether Close has been called. Once true it never
// reverts.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// AsSender narrows c to the Sender[T] capability set.
func (c *Channel[T]) AsSender() Sender[T] { return c }

// AsReceiver narrows c to the Receiver[T] capability set.
func (c *Channel[T]) AsReceiver() Receiver[T] { return c }

// Send blocks until v is accepted into the channel (buffered or handed
// directly to a parked receiver), or fails immediately with a Closed error.
func (c *Channel[T]) Send(v T) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return newError(Closed, "Send")
	}
	switch {
	case c.buf.Len() > 0 && !c.buf.IsFull():
		c.buf.Push(v)
		c.mu.Unlock()
		return nil
	case c.buf.Len() == 0:
		if r, ok := c.receivers.popFront(); ok {
			c.mu.Unlock()
			r.done <- result.OK(v)
			return nil
		}
		c.buf.Push(v)
		c.notifySelects()
		c.mu.Unlock()
		return nil
	default: // isFull
		s := &sender[T]{value: v, done: make(chan result.Result[struct{}], 1)}
		c.senders.pushBack(s)
		c.mu.Unlock()
		res := <-s.done
		return res.Error()
	}
}

// TrySend attempts the same transition as Send but never parks: it reports
// false instead of blocking when the buffer is full, and false if closed.
func (c *Channel[T]) TrySend(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	switch {
	case c.buf.Len() > 0 && !c.buf.IsFull():
		c.buf.Push(v)
		return true
	case c.buf.Len() == 0:
		if r, ok := c.receivers.popFront(); ok {
			r.done <- result.OK(v)
			return true
		}
		c.buf.Push(v)
		c.notifySelects()
		return true
	default: // isFull
		return false
	}
}

// SendAsync has Send's semantics but returns immediately with a Future that
// resolves once the send completes, rather than blocking the caller.
func (c *Channel[T]) SendAsync(v T) *Future[struct{}] {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return completedFuture(struct{}{}, newError(Closed, "SendAsync"))
	}
	switch {
	case c.buf.Len() > 0 && !c.buf.IsFull():
		c.buf.Push(v)
		c.mu.Unlock()
		return completedFuture(struct{}{}, nil)
	case c.buf.Len() == 0:
		if r, ok := c.receivers.popFront(); ok {
			c.mu.Unlock()
			r.done <- result.OK(v)
			return completedFuture(struct{}{}, nil)
		}
		c.buf.Push(v)
		c.notifySelects()
		c.mu.Unlock()
		return completedFuture(struct{}{}, nil)
	default: // isFull
		s := &sender[T]{value: v, done: make(chan result.Result[struct{}], 1)}
		c.senders.pushBack(s)
		c.mu.Unlock()
		return &Future[struct{}]{ch: s.done}
	}
}

// Receive blocks until a value is available or the channel closes with
// nothing left to drain.
func (c *Channel[T]) Receive() (T, error) {
	c.mu.Lock()
	if !c.buf.IsEmpty() {
		v := c.buf.Pop()
		c.wakeOneSenderLocked()
		c.mu.Unlock()
		return v, nil
	}
	if c.closed {
		c.mu.Unlock()
		var zero T
		return zero, newError(Closed, "Receive")
	}
	r := &receiver[T]{done: make(chan result.Result[T], 1)}
	c.receivers.pushBack(r)
	c.mu.Unlock()
	res := <-r.done
	return res.Value(), res.Error()
}

// TryReceive never parks: it returns (zero, false) whenever the buffer is
// empty, whether the channel is open or closed.
func (c *Channel[T]) TryReceive() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.IsEmpty() {
		var zero T
		return zero, false
	}
	v := c.buf.Pop()
	c.wakeOneSenderLocked()
	return v, true
}

// ReceiveAsync has Receive's semantics but returns immediately with a
// Future that resolves once a value is available or the channel closes.
func (c *Channel[T]) ReceiveAsync() *Future[T] {
	c.mu.Lock()
	if !c.buf.IsEmpty() {
		v := c.buf.Pop()
		c.wakeOneSenderLocked()
		c.mu.Unlock()
		return completedFuture(v, nil)
	}
	if c.closed {
		c.mu.Unlock()
		var zero T
		return completedFuture(zero, newError(Closed, "ReceiveAsync"))
	}
	r := &receiver[T]{done: make(chan result.Result[T], 1)}
	c.receivers.pushBack(r)
	c.mu.Unlock()
	return &Future[T]{ch: r.done}
}

// Close is idempotent. It marks the channel closed and cancels every
// parked receiver with a Closed error. Already-buffered values, and senders
// parked on a full buffer, are left untouched: a parked sender has no
// queue slot to occupy until a receiver frees one, so leaving it parked
// lets a final drain still recover its value instead of discarding it.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for {
		r, ok := c.receivers.popFront()
		if !ok {
			break
		}
		r.done <- result.Err[T](newError(Closed, "Receive"))
	}
}

// wakeOneSenderLocked moves one parked sender's value into the buffer and
// completes it, preserving global FIFO order: the buffered value
// this call's caller just consumed was the oldest, and every parked sender
// arrived after every value that was ever buffered.
func (c *Channel[T]) wakeOneSenderLocked() {
	s, ok := c.senders.popFront()
	if !ok {
		return
	}
	assertf(!c.buf.IsFull(), "Receive", "buffer full while waking a parked sender")
	c.buf.Push(s.value)
	s.done <- result.OK(struct{}{})
}

// notifySelects signals the first selector in the selects FIFO whose
// Waiter can still be fired, popping and skipping over ones that were
// already fired (by AddWaiter, or by another Selectable sharing the same
// Waiter) and continuing to the next until one actually wakes or the queue
// is empty.
func (c *Channel[T]) notifySelects() {
	for {
		w, ok := c.selects.popFront()
		if !ok {
			return
		}
		if w.fire() {
			return
		}
	}
}

// AddWaiter registers w to be notified when the channel may have become
// receivable. If the buffer is already non-empty, w is fired immediately
// (and AddWaiter reports true) in addition to being enqueued; w stays in
// the selects queue until RemoveWaiter is called or a later notifySelects
// pops it, since the firing here is only ever a hint — see notifySelects and Waiter.fire for the one-shot
// guarantee that makes a redundant fire harmless.
func (c *Channel[T]) AddWaiter(w *Waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selects.pushBack(w)
	if !c.buf.IsEmpty() {
		return w.fire()
	}
	return false
}

// RemoveWaiter unregisters w. It is a no-op if w is not currently
// registered on c.
func (c *Channel[T]) RemoveWaiter(w *Waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selects.remove(w)
}

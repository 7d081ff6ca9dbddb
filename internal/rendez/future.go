package rendez

import (
	"context"

	"sutext.github.io/cable/internal/result"
)

// Future is the handle SendAsync and ReceiveAsync return. It is backed
// directly by the same one-shot completion channel the parked sender or
// receiver would otherwise block on, so returning a Future never costs an
// extra goroutine: the completing side (another Send/Receive/Close call)
// writes straight into it.
type Future[T any] struct {
	ch <-chan result.Result[T]
}

// Done returns a channel that delivers the outcome exactly once, suitable
// for use as a case in a native select statement alongside other work.
func (f *Future[T]) Done() <-chan result.Result[T] { return f.ch }

// Wait blocks until the future resolves or ctx ends, whichever comes
// first. A ctx expiry does not cancel the underlying operation: a send
// still parked on a full buffer stays parked, and completes or leaks on
// its own schedule, even if its caller stopped waiting.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case r := <-f.ch:
		return r.Value(), r.Error()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// completedFuture returns a Future that is already resolved, for the
// immediate-completion paths of SendAsync/ReceiveAsync.
func completedFuture[T any](v T, err error) *Future[T] {
	ch := make(chan result.Result[T], 1)
	if err != nil {
		ch <- result.Err[T](err)
	} else {
		ch <- result.OK(v)
	}
	return &Future[T]{ch: ch}
}

package rendez

// Sender is the producer-side capability set of a Channel[T]. Callers that
// should only ever push values narrow a *Channel[T] to this interface via
// (*Channel[T]).AsSender, the way a native Go chan<- T narrows a
// bidirectional channel.
type Sender[T any] interface {
	Send(v T) error
	SendAsync(v T) *Future[struct{}]
	TrySend(v T) bool
	Close()
	IsClosed() bool
}

// Receiver is the consumer-side capability set of a Channel[T].
type Receiver[T any] interface {
	Receive() (T, error)
	ReceiveAsync() *Future[T]
	TryReceive() (T, bool)
}

// Selectable is the capability a select multiplexer depends on. It never
// depends on the concrete Channel type, only on this contract — the same
// way broker depends on raft's Node interface rather than *raft.raft.
type Selectable interface {
	AddWaiter(w *Waiter) bool
	RemoveWaiter(w *Waiter)
}

var (
	_ Sender[int]    = (*Channel[int])(nil)
	_ Receiver[int]  = (*Channel[int])(nil)
	_ Selectable     = (*Channel[int])(nil)
)

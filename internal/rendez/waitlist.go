package rendez

// node is embedded by every parked actor (sender, receiver, Waiter) so it
// can be linked into a waitList without a second allocation per entry,
// instead of paying for a doubly-linked, heap-boxed container/list
// Element per entry.
// It is parameterized by the owning entry type so the list can walk E
// values directly instead of type-erased pointers.
type node[E any] struct {
	next E
	// linked reports whether this node is currently in a waitList, so
	// remove can be a no-op on an already-unlinked entry instead of
	// silently scanning a list it isn't in.
	linked bool
}

// entry is implemented by sender[T], receiver[T] and *Waiter so a single
// generic waitList[E] can hold any of the three kinds of parked actor a
// Channel tracks: pending senders, pending receivers, pending selectors.
type entry[E any] interface {
	linkNode() *node[E]
}

// waitList is a singly-linked FIFO of parked actors with O(1) push/pop at
// the respective ends and O(n) removal by identity. It is not safe for
// concurrent use; callers hold Channel.mu while touching it.
type waitList[E entry[E]] struct {
	head, tail E
	n          int
}

// pushBack enqueues e at the tail.
func (q *waitList[E]) pushBack(e E) {
	n := e.linkNode()
	var zero E
	n.next = zero
	n.linked = true
	if q.n == 0 {
		q.head = e
	} else {
		q.tail.linkNode().next = e
	}
	q.tail = e
	q.n++
}

// popFront dequeues and returns the head entry. ok is false if the list is
// empty.
func (q *waitList[E]) popFront() (e E, ok bool) {
	if q.n == 0 {
		return e, false
	}
	e = q.head
	n := e.linkNode()
	n.linked = false
	q.n--
	if q.n == 0 {
		var zero E
		q.head, q.tail = zero, zero
	} else {
		q.head = n.next
	}
	var zero E
	n.next = zero
	return e, true
}

// remove deletes target from the list if present, reporting whether it was
// found. O(n) — acceptable for the small per-channel fan-outs this package
// targets; only RemoveWaiter calls this, on a list sized to the number of
// cases in one rselect.Select call.
func (q *waitList[E]) remove(target E) bool {
	tn := target.linkNode()
	if !tn.linked {
		return false
	}
	if any(q.head) == any(target) {
		_, _ = q.popFront()
		return true
	}
	prev := q.head
	for {
		pn := prev.linkNode()
		cur := pn.next
		var zero E
		if any(cur) == any(zero) {
			return false
		}
		cn := cur.linkNode()
		if any(cur) == any(target) {
			pn.next = cn.next
			if any(q.tail) == any(target) {
				q.tail = prev
			}
			cn.linked = false
			cn.next = zero
			q.n--
			return true
		}
		prev = cur
	}
}

func (q *waitList[E]) len() int { return q.n }

func (q *waitList[E]) empty() bool { return q.n == 0 }

// Package rendez implements a typed, bounded, FIFO channel with rendezvous
// send/receive, non-blocking try-operations, async futures, and a
// Selectable contract a multiplexer (package rselect) can register against.
//
// It generalizes two patterns: a ring-buffer-plus-waiters task queue (the
// design of the former internal/mq package, since removed from this
// module), and internal/safe.Chan's generic closed-channel wrapper.
package rendez

// package bridge moves discrete events from a control goroutine to a
// real-time consumer without ever blocking either of them.
package bridge

import (
	"sync/atomic"

	"github.com/pfcm/blep/internal/buffer"
)

// DefaultCapacity is the queue size used when none is given.
const DefaultCapacity = 256

// Bridge is a bounded single-producer, single-consumer queue. When it is full
// Push drops the value being pushed, so whatever is already queued is
// delivered in order and the producer carries on. After Close the consumer
// still sees everything pushed before it, then nothing.
type Bridge[T any] struct {
	ring    *buffer.Ring[T]
	closed  atomic.Bool
	dropped atomic.Uint64
}

// New creates a Bridge holding at least capacity values; zero or less means
// DefaultCapacity.
func New[T any](capacity int) *Bridge[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bridge[T]{ring: buffer.NewRing[T](capacity)}
}

// Push enqueues v. It reports false if v was dropped, either because the
// queue is full or because the bridge is closed.
func (b *Bridge[T]) Push(v T) bool {
	if b.closed.Load() {
		return false
	}
	if !b.ring.Push(v) {
		b.dropped.Add(1)
		return false
	}
	return true
}

// Poll returns the next value if one is queued. It never blocks.
func (b *Bridge[T]) Poll() (T, bool) {
	return b.ring.Pop()
}

// Close marks the producer side as gone. It is safe to call more than once.
func (b *Bridge[T]) Close() { b.closed.Store(true) }

// Closed reports whether Close has been called.
func (b *Bridge[T]) Closed() bool { return b.closed.Load() }

// Dropped is the number of values refused because the queue was full.
func (b *Bridge[T]) Dropped() uint64 { return b.dropped.Load() }

// Len is the number of values waiting to be polled.
func (b *Bridge[T]) Len() int { return b.ring.Len() }

// Cap is the most values that can be queued at once.
func (b *Bridge[T]) Cap() int { return b.ring.Cap() }

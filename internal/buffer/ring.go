// package buffer provides a lock-free ring buffer for handing values from
// one goroutine to another.
package buffer

import "sync/atomic"

// Ring is a bounded single-producer, single-consumer FIFO. One goroutine may
// call Push and one other goroutine may call Pop concurrently; neither ever
// blocks or allocates.
type Ring[T any] struct {
	buf  []T
	mask uint64

	// head is the next slot to read and is only written by the consumer.
	// tail is the next slot to write and is only written by the producer.
	head atomic.Uint64
	_    [56]byte // keep head and tail on separate cache lines
	tail atomic.Uint64
}

// NewRing allocates a Ring holding at least size values. The capacity is
// rounded up to a power of two.
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		panic("buffer: ring size must be positive")
	}
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring[T]{
		buf:  make([]T, n),
		mask: uint64(n - 1),
	}
}

// Push appends v, reporting false without modifying the ring if it is full.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// Pop removes and returns the oldest value, if there is one.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, false
	}
	i := head & r.mask
	v := r.buf[i]
	r.buf[i] = zero
	r.head.Store(head + 1)
	return v, true
}

// Len is the number of values currently queued. It is only a snapshot when
// called concurrently with Push or Pop.
func (r *Ring[T]) Len() int {
	// head first: it never passes a tail loaded after it.
	head := r.head.Load()
	return int(r.tail.Load() - head)
}

// Cap is the number of values the ring can hold.
func (r *Ring[T]) Cap() int { return len(r.buf) }

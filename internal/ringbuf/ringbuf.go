// Package ringbuf provides the fixed-capacity byte ring that sits between the
// sample tick handler and the storage writer.
//
// One goroutine writes (the tick handler) and one goroutine reads (the
// supervisory loop). No locks are taken: the producer publishes head only
// after its copy has completed, and the consumer publishes tail only after its
// copy has completed, so each side always sees a consistent view of the bytes
// it is allowed to touch.
//
// One slot is never used: head == tail always means empty, so a Ring of
// capacity N holds at most N-1 bytes.
package ringbuf

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrTooLarge is returned when a request can never fit, regardless of
	// occupancy. Nothing is modified.
	ErrTooLarge = errors.New("ringbuf: request not smaller than capacity")

	// ErrOverflow is returned by Write when the data does not fit right now.
	// Nothing is copied and the sticky overflow flag is set.
	ErrOverflow = errors.New("ringbuf: overflow")

	// ErrCapacity is returned by New for capacities that are not a power of two.
	ErrCapacity = errors.New("ringbuf: capacity must be a power of two >= 2")
)

// Ring is a single-producer single-consumer byte ring buffer.
type Ring struct {
	buf  []byte
	mask uint32

	head     atomic.Uint32 // written by producer
	tail     atomic.Uint32 // written by consumer
	overflow atomic.Bool   // set by producer, cleared by Reset
}

// New creates a Ring with the given capacity, which must be a power of two.
func New(capacity int) (*Ring, error) {
	if capacity < 2 || capacity&(capacity-1) != 0 || capacity > 1<<31 {
		return nil, ErrCapacity
	}
	return &Ring{
		buf:  make([]byte, capacity),
		mask: uint32(capacity - 1),
	}, nil
}

// Cap returns the storage capacity. Usable capacity is Cap()-1.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Used returns the number of buffered bytes.
func (r *Ring) Used() int {
	return used(r.head.Load(), r.tail.Load(), r.mask)
}

// Free returns the number of bytes that can be written right now.
func (r *Ring) Free() int {
	return len(r.buf) - 1 - r.Used()
}

// Overflow reports whether any write was dropped since the last Reset.
func (r *Ring) Overflow() bool {
	return r.overflow.Load()
}

// Write copies all of p into the ring or nothing at all.
func (r *Ring) Write(p []byte) error {
	n := len(p)
	if n >= len(r.buf) {
		return ErrTooLarge
	}

	head := r.head.Load()
	tail := r.tail.Load()
	if len(r.buf)-1-used(head, tail, r.mask) < n {
		r.overflow.Store(true)
		return ErrOverflow
	}

	// Split the copy when it runs past the end of the backing array.
	first := copy(r.buf[head:], p)
	if first < n {
		copy(r.buf, p[first:])
	}

	r.head.Store((head + uint32(n)) & r.mask)
	return nil
}

// Read copies up to len(p) bytes out of the ring and returns how many were
// copied. Asking for more than is buffered is not an error.
func (r *Ring) Read(p []byte) (int, error) {
	if len(p) >= len(r.buf) {
		return 0, ErrTooLarge
	}

	head := r.head.Load()
	tail := r.tail.Load()
	n := len(p)
	if u := used(head, tail, r.mask); n > u {
		n = u
	}
	if n == 0 {
		return 0, nil
	}

	first := copy(p[:n], r.buf[tail:])
	if first < n {
		copy(p[first:n], r.buf)
	}

	r.tail.Store((tail + uint32(n)) & r.mask)
	return n, nil
}

// Reset empties the ring and clears the overflow flag. The producer must not
// be writing while Reset runs.
func (r *Ring) Reset() {
	r.tail.Store(0)
	r.head.Store(0)
	r.overflow.Store(false)
}

func used(head, tail, mask uint32) int {
	return int((head - tail) & mask)
}

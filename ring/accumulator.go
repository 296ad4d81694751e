// SPDX-License-Identifier: EPL-2.0

package ring

import "fmt"

// MinReservation is the smallest capacity Reservation returns.
const MinReservation = 2048

// Reservation is the capacity for a direction with the given device
// buffer and user window, both in frames: twice the larger of the two
// windows in samples, and never below MinReservation.
func Reservation(deviceFrames, channels, windowFrames int) int {
	return max(2*max(deviceFrames, windowFrames)*channels, MinReservation)
}

// Accumulator is a growable FIFO of T backed by a circular slice.
type Accumulator[T any] struct {
	buf   []T
	head  int
	count int
}

// New returns an empty Accumulator with the given capacity reserved.
func New[T any](capacity int) *Accumulator[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Accumulator[T]{buf: make([]T, capacity)}
}

// Len is the number of queued elements.
func (a *Accumulator[T]) Len() int { return a.count }

// Cap is the current storage size.
func (a *Accumulator[T]) Cap() int { return len(a.buf) }

// CapacityRemaining is how many elements fit before Append must grow.
func (a *Accumulator[T]) CapacityRemaining() int { return len(a.buf) - a.count }

// Clear drops every queued element and keeps the storage.
func (a *Accumulator[T]) Clear() {
	a.head = 0
	a.count = 0
}

// Append pushes s to the back.
func (a *Accumulator[T]) Append(s ...T) {
	if len(s) == 0 {
		return
	}
	if len(s) > a.CapacityRemaining() {
		a.grow(a.count + len(s))
	}

	tail := (a.head + a.count) % len(a.buf)
	n := copy(a.buf[tail:], s)
	copy(a.buf, s[n:])
	a.count += len(s)
}

// TakeFront removes the first n elements and returns them in a new
// slice. It panics when fewer than n elements are queued.
func (a *Accumulator[T]) TakeFront(n int) []T {
	out := make([]T, n)
	a.TakeFrontInto(out)

	return out
}

// TakeFrontInto removes len(dst) elements from the front into dst. It
// panics when fewer than len(dst) elements are queued.
func (a *Accumulator[T]) TakeFrontInto(dst []T) {
	n := len(dst)
	if n > a.count {
		panic(fmt.Sprintf("ring: take of %d elements with only %d queued", n, a.count))
	}
	if n == 0 {
		return
	}

	end := min(a.head+n, len(a.buf))
	c := copy(dst, a.buf[a.head:end])
	copy(dst[c:], a.buf[:n-c])

	a.head = (a.head + n) % len(a.buf)
	a.count -= n
	if a.count == 0 {
		a.head = 0
	}
}

// Peek copies up to len(dst) queued elements from the front into dst
// without removing them and returns how many were copied.
func (a *Accumulator[T]) Peek(dst []T) int {
	n := min(len(dst), a.count)
	end := min(a.head+n, len(a.buf))
	c := copy(dst[:n], a.buf[a.head:end])
	copy(dst[c:n], a.buf[:n-c])

	return n
}

func (a *Accumulator[T]) grow(need int) {
	size := max(2*len(a.buf), need)
	buf := make([]T, size)
	a.Peek(buf)
	a.buf = buf
	a.head = 0
}

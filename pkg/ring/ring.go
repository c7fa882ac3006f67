// Package ring provides a growable FIFO ring queue.
//
// Unlike a fixed-capacity circular buffer with overflow policies, Ring never
// drops: when full it doubles its backing array, preserving order. Ring is
// not synchronized - the owning component is expected to guard it together
// with any related state under a single lock.
package ring

// Ring is a growable FIFO queue backed by a circular slice.
type Ring[T any] struct {
	items []T
	head  int // next read position
	size  int
}

// New creates a Ring with an initial backing capacity.
// Capacities below 1 are raised to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends an item at the tail, growing the backing array if needed.
func (r *Ring[T]) Push(item T) {
	if r.size == len(r.items) {
		r.grow()
	}
	r.items[(r.head+r.size)%len(r.items)] = item
	r.size++
}

// Pop removes and returns the head item.
// Returns the zero value and false when the ring is empty.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	item := r.items[r.head]
	r.items[r.head] = zero // clear for GC
	r.head = (r.head + 1) % len(r.items)
	r.size--
	return item, true
}

// Peek returns the head item without removing it.
func (r *Ring[T]) Peek() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.items[r.head], true
}

// Len returns the number of queued items.
func (r *Ring[T]) Len() int {
	return r.size
}

// grow doubles the backing array, unwrapping the circular layout so the
// head lands at index 0.
func (r *Ring[T]) grow() {
	items := make([]T, len(r.items)*2)
	for i := 0; i < r.size; i++ {
		items[i] = r.items[(r.head+i)%len(r.items)]
	}
	r.items = items
	r.head = 0
}

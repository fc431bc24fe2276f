package buffer

// Ring is a fixed-capacity ring buffer. Once full, the oldest entry is
// overwritten. Not safe for concurrent use; callers hold their own lock.
type Ring[T any] struct {
	slots []T
	head  int
	size  int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		slots: make([]T, capacity),
	}
}

func (ring *Ring[T]) Push(value T) {
	if ring == nil || len(ring.slots) == 0 {
		return
	}

	if ring.size < len(ring.slots) {
		ring.slots[(ring.head+ring.size)%len(ring.slots)] = value
		ring.size++
		return
	}

	ring.slots[ring.head] = value
	ring.head = (ring.head + 1) % len(ring.slots)
}

func (ring *Ring[T]) Len() int {
	if ring == nil {
		return 0
	}
	return ring.size
}

// Snapshot returns the buffered entries in insertion order.
func (ring *Ring[T]) Snapshot() []T {
	if ring == nil || ring.size == 0 {
		return nil
	}

	entries := make([]T, ring.size)
	for index := 0; index < ring.size; index++ {
		entries[index] = ring.slots[(ring.head+index)%len(ring.slots)]
	}
	return entries
}

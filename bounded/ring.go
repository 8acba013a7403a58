package bounded

// ring is a fixed-size FIFO of values. It is not safe for concurrent use;
// the owning channel guards it with its mutex.
type ring[T any] struct {
	data []T
	head int
	n    int
}

func newRing[T any](size int) *ring[T] {
	return &ring[T]{data: make([]T, size)}
}

func (r *ring[T]) push(v T) {
	r.data[(r.head+r.n)%len(r.data)] = v
	r.n++
}

// pop removes the oldest value. The vacated slot is zeroed so the ring does
// not keep the value reachable.
func (r *ring[T]) pop() T {
	var zero T
	v := r.data[r.head]
	r.data[r.head] = zero
	r.head = (r.head + 1) % len(r.data)
	r.n--
	return v
}

func (r *ring[T]) len() int {
	return r.n
}

func (r *ring[T]) empty() bool {
	return r.n == 0
}

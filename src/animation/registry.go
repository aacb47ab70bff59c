package animation

import "math"

// Registry hands out integer handles for values owned by a host that can
// only pass numbers around, such as a browser page. Handles start at 1 and
// are never reused. A Registry is not safe for concurrent use.
type Registry[T any] struct {
	items map[int]T
	next  int
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: map[int]T{}, next: 1}
}

// Add stores v and returns its handle.
func (r *Registry[T]) Add(v T) int {
	h := r.next
	r.next++
	r.items[h] = v
	return h
}

// Lookup returns the value for a handle received as a float. NaN, infinite,
// fractional and unknown handles are reported as missing.
func (r *Registry[T]) Lookup(h float64) (T, bool) {
	var zero T
	id, ok := handle(h)
	if !ok {
		return zero, false
	}
	v, ok := r.items[id]
	return v, ok
}

// Remove drops a handle and returns the value it held.
func (r *Registry[T]) Remove(h float64) (T, bool) {
	v, ok := r.Lookup(h)
	if ok {
		id, _ := handle(h)
		delete(r.items, id)
	}
	return v, ok
}

// Len returns the number of live handles.
func (r *Registry[T]) Len() int { return len(r.items) }

func handle(h float64) (int, bool) {
	if math.IsNaN(h) || math.IsInf(h, 0) || h != math.Trunc(h) || h < 1 || h > math.MaxInt32 {
		return 0, false
	}
	return int(h), true
}

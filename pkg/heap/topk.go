// Package heap implements the bounded top-k pattern every index in
// this module uses to accumulate search results: a max-heap capped at
// k+1 entries so the single worst candidate can be evicted in
// O(log k) as better ones arrive. See spec.md §4.B.
package heap

import "github.com/therealutkarshpriyadarshi/vector/pkg/vector"

// BoundedTopK is a max-heap of (id, distance) pairs capped at k
// entries. Push is O(log k); draining to ascending order is O(k log k).
type BoundedTopK[E vector.Float, T vector.Id] struct {
	k    int
	data []vector.Neighbor[E, T]
}

// New returns a BoundedTopK that retains at most the k closest pushes.
func New[E vector.Float, T vector.Id](k int) *BoundedTopK[E, T] {
	return &BoundedTopK[E, T]{k: k, data: make([]vector.Neighbor[E, T], 0, k+1)}
}

// Len reports how many entries are currently held (at most k).
func (h *BoundedTopK[E, T]) Len() int { return len(h.data) }

// Push inserts (id, distance); if the heap now exceeds capacity k, the
// single worst (farthest) entry is evicted.
func (h *BoundedTopK[E, T]) Push(id T, distance E) {
	h.data = append(h.data, vector.Neighbor[E, T]{ID: id, Distance: distance})
	h.siftUp(len(h.data) - 1)
	if len(h.data) > h.k {
		h.popMax()
	}
}

// Worst returns the current farthest entry held, or false if empty.
// Useful for prune checks (e.g. "is this candidate even worth pushing").
func (h *BoundedTopK[E, T]) Worst() (vector.Neighbor[E, T], bool) {
	if len(h.data) == 0 {
		return vector.Neighbor[E, T]{}, false
	}
	return h.data[0], true
}

// Full reports whether the heap already holds k entries.
func (h *BoundedTopK[E, T]) Full() bool { return len(h.data) >= h.k }

// IntoSortedAscending drains the heap into ascending-distance order,
// per spec.md §4.B ("drained and reversed to yield ascending distance").
func (h *BoundedTopK[E, T]) IntoSortedAscending() []vector.Neighbor[E, T] {
	out := make([]vector.Neighbor[E, T], len(h.data))
	for i := len(h.data) - 1; i >= 0; i-- {
		out[i] = h.popMax()
	}
	return out
}

func (h *BoundedTopK[E, T]) popMax() vector.Neighbor[E, T] {
	top := h.data[0]
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	h.data = h.data[:last]
	if last > 0 {
		h.siftDown(0)
	}
	return top
}

func (h *BoundedTopK[E, T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.data[parent].Distance >= h.data[i].Distance {
			break
		}
		h.data[parent], h.data[i] = h.data[i], h.data[parent]
		i = parent
	}
}

func (h *BoundedTopK[E, T]) siftDown(i int) {
	n := len(h.data)
	for {
		left, right := 2*i+1, 2*i+2
		largest := i
		if left < n && h.data[left].Distance > h.data[largest].Distance {
			largest = left
		}
		if right < n && h.data[right].Distance > h.data[largest].Distance {
			largest = right
		}
		if largest == i {
			return
		}
		h.data[i], h.data[largest] = h.data[largest], h.data[i]
		i = largest
	}
}

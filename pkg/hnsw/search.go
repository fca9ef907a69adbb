package hnsw

import (
	"github.com/therealutkarshpriyadarshi/vector/pkg/heap"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// candHeap is an unbounded min-heap over (internal id, distance),
// used as searchLayer's expansion frontier. Distinct from
// heap.BoundedTopK (which is bounded and max-ordered, used here as
// the "top" accumulator) because the frontier must always pop the
// single nearest unexpanded candidate next.
type candHeap[E vector.Float] struct {
	data []vector.Neighbor[E, int]
}

func (h *candHeap[E]) Len() int { return len(h.data) }

func (h *candHeap[E]) Push(id int, d E) {
	h.data = append(h.data, vector.Neighbor[E, int]{ID: id, Distance: d})
	i := len(h.data) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.data[parent].Distance <= h.data[i].Distance {
			break
		}
		h.data[parent], h.data[i] = h.data[i], h.data[parent]
		i = parent
	}
}

func (h *candHeap[E]) Pop() vector.Neighbor[E, int] {
	top := h.data[0]
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	h.data = h.data[:last]
	if last > 0 {
		i, n := 0, len(h.data)
		for {
			l, r := 2*i+1, 2*i+2
			smallest := i
			if l < n && h.data[l].Distance < h.data[smallest].Distance {
				smallest = l
			}
			if r < n && h.data[r].Distance < h.data[smallest].Distance {
				smallest = r
			}
			if smallest == i {
				break
			}
			h.data[i], h.data[smallest] = h.data[smallest], h.data[i]
			i = smallest
		}
	}
	return top
}

// searchLayer is the core primitive (spec.md §4.H): a best-first
// frontier search at one layer, seeded from entries, bounded to ef
// results. Pop the nearest unexpanded candidate; stop once it is
// farther than the worst entry currently held (and top is already
// full). Deleted nodes (when useTombstones is set) never enter top
// but their neighborhoods are still traversed, so the graph stays
// navigable through them.
func (ix *Index[E, T]) searchLayer(entries []int, query []E, level, ef int, useTombstones bool) *heap.BoundedTopK[E, int] {
	visited := make(map[int]bool, len(ix.nodes))
	top := heap.New[E, int](ef)
	cand := &candHeap[E]{}

	for _, e := range entries {
		if visited[e] {
			continue
		}
		visited[e] = true
		d := vector.MustDistance(ix.nodes[e].Vec, query, ix.metric)
		if !useTombstones || !ix.isDeleted(e) {
			top.Push(e, d)
		}
		cand.Push(e, d)
	}

	for cand.Len() > 0 {
		c := cand.Pop()
		if worst, ok := top.Worst(); ok && top.Full() && c.Distance > worst.Distance {
			break
		}
		for _, n := range ix.neighborList(c.ID, level).snapshot() {
			if visited[n] {
				continue
			}
			visited[n] = true
			d := vector.MustDistance(ix.nodes[n].Vec, query, ix.metric)
			worst, ok := top.Worst()
			if !top.Full() || !ok || d < worst.Distance {
				cand.Push(n, d)
				if !useTombstones || !ix.isDeleted(n) {
					top.Push(n, d)
				}
			}
		}
	}

	return top
}

// Search returns the k nearest ids to query under the configured metric.
func (ix *Index[E, T]) Search(query []E, k int) []T {
	full := ix.SearchFull(query, k)
	out := make([]T, len(full))
	for i, n := range full {
		out[i] = n.ID
	}
	return out
}

// SearchFull descends greedily from the root through layers curLevel
// down to 1 (single-candidate greedy, spec.md §4.H), then runs
// searchLayer at layer 0 with ef = max(efSearch, k) and returns the
// closest k, ascending.
func (ix *Index[E, T]) SearchFull(query []E, k int) []vector.Neighbor[E, T] {
	if len(query) != ix.Dim {
		panic("hnsw: query dimension mismatch")
	}
	if len(ix.nodes) == 0 {
		return nil
	}

	cur := ix.rootID
	for l := ix.curLevel; l > 0; l-- {
		cur = ix.greedyStep(cur, query, l)
	}

	ef := ix.efSearch
	if k > ef {
		ef = k
	}
	top := ix.searchLayer([]int{cur}, query, 0, ef, ix.hasDeletion)
	sorted := top.IntoSortedAscending()
	if len(sorted) > k {
		sorted = sorted[:k]
	}

	out := make([]vector.Neighbor[E, T], len(sorted))
	for i, n := range sorted {
		out[i] = vector.Neighbor[E, T]{ID: ix.nodes[n.ID].ID, Distance: n.Distance}
	}
	return out
}

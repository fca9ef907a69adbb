package ssg

import (
	"sort"

	"github.com/therealutkarshpriyadarshi/vector/pkg/heap"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// scratchHeap is an unbounded min-heap over (internal id, distance),
// used to drain a node's unvisited neighbors in ascending order
// during search (spec.md §4.G "scratch min-heap").
type scratchHeap[E vector.Float] struct {
	data []vector.Neighbor[E, int]
}

func (h *scratchHeap[E]) Len() int { return len(h.data) }

func (h *scratchHeap[E]) Push(id int, d E) {
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

func (h *scratchHeap[E]) Pop() vector.Neighbor[E, int] {
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

// Search returns the k nearest ids to query.
func (ix *Index[E, T]) Search(query []E, k int) []T {
	full := ix.SearchFull(query, k)
	out := make([]T, len(full))
	for i, n := range full {
		out[i] = n.ID
	}
	return out
}

// SearchFull runs the multi-seed best-first BFS of spec.md §4.G:
// seed a bounded result heap and a FIFO expansion queue with the
// rootNodes sorted by distance to query; for each dequeued node,
// drain its unvisited neighbors from a scratch min-heap in ascending
// order, stopping as soon as a neighbor is farther than the worst
// entry currently held, accepting (and queueing for expansion) every
// neighbor seen before that point.
func (ix *Index[E, T]) SearchFull(query []E, k int) []vector.Neighbor[E, T] {
	if len(query) != ix.Dim {
		panic("ssg: query dimension mismatch")
	}
	if len(ix.nodes) == 0 {
		return nil
	}

	visited := make(map[int]bool, len(ix.nodes))
	top := heap.New[E, int](k)
	var queue []int

	seeds := make([]vector.Neighbor[E, int], len(ix.rootNodes))
	for i, s := range ix.rootNodes {
		seeds[i] = vector.Neighbor[E, int]{ID: s, Distance: vector.MustDistance(ix.nodes[s].Vec, query, ix.metric)}
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Distance < seeds[j].Distance })
	for _, s := range seeds {
		if !top.Full() {
			top.Push(s.ID, s.Distance)
			queue = append(queue, s.ID)
		}
		visited[s.ID] = true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		scratch := &scratchHeap[E]{}
		for _, nb := range ix.graph[id] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			scratch.Push(nb, vector.MustDistance(ix.nodes[nb].Vec, query, ix.metric))
		}
		for scratch.Len() > 0 {
			item := scratch.Pop()
			if worst, ok := top.Worst(); ok && top.Full() && item.Distance > worst.Distance {
				break
			}
			top.Push(item.ID, item.Distance)
			queue = append(queue, item.ID)
		}
	}

	sorted := top.IntoSortedAscending()
	out := make([]vector.Neighbor[E, T], len(sorted))
	for i, n := range sorted {
		out[i] = vector.Neighbor[E, T]{ID: ix.nodes[n.ID].ID, Distance: n.Distance}
	}
	return out
}

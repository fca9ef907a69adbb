package bpt

import "github.com/therealutkarshpriyadarshi/vector/pkg/vector"

// pqItem pairs a leaf index with its current search priority: the
// tightest (highest-priority) leaf is explored first. A child's
// priority is its parent's priority capped by the query's signed
// margin toward that child, so a wrong-side child (negative margin)
// ranks below alternatives with a positive margin (spec.md §4.E).
type pqItem[E vector.Float] struct {
	priority E
	leafID   int
}

// pqueue is an unbounded max-heap over pqItem, local to BPT's search_k
// (distinct from heap.BoundedTopK, which is bounded and keyed by the
// external id type T rather than an internal leaf index).
type pqueue[E vector.Float] struct {
	data []pqItem[E]
}

func (q *pqueue[E]) Len() int { return len(q.data) }

func (q *pqueue[E]) Push(priority E, leafID int) {
	q.data = append(q.data, pqItem[E]{priority, leafID})
	i := len(q.data) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if q.data[parent].priority >= q.data[i].priority {
			break
		}
		q.data[parent], q.data[i] = q.data[i], q.data[parent]
		i = parent
	}
}

// Pop removes and returns the highest-priority item.
func (q *pqueue[E]) Pop() pqItem[E] {
	top := q.data[0]
	last := len(q.data) - 1
	q.data[0] = q.data[last]
	q.data = q.data[:last]
	if last > 0 {
		i := 0
		n := len(q.data)
		for {
			l, r := 2*i+1, 2*i+2
			largest := i
			if l < n && q.data[l].priority > q.data[largest].priority {
				largest = l
			}
			if r < n && q.data[r].priority > q.data[largest].priority {
				largest = r
			}
			if largest == i {
				break
			}
			q.data[i], q.data[largest] = q.data[largest], q.data[i]
			i = largest
		}
	}
	return top
}

package hnsw

import (
	"sort"

	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// Build assigns every stored node a level, forces the first node's
// level to maxLevel as the root entry point (spec.md §4.H "Per-node
// level"), then constructs the remaining nodes' edges in parallel.
// Level assignment runs sequentially because node 0's forced level
// fixes curLevel for the whole build; edge construction afterwards
// is embarrassingly parallel over the work-stealing pool, matching
// spec.md §5's note that the resulting graph is structurally
// non-deterministic across runs given concurrent inserts.
func (ix *Index[E, T]) Build(m vector.Metric) error {
	ix.metric = m
	n := len(ix.nodes)
	ix.levels = make([]int, n)
	ix.neighbors = make([][]*layerList, n)
	ix.tombMu.Lock()
	ix.tombstone = make(map[int]struct{})
	ix.tombMu.Unlock()
	ix.rootID = 0
	ix.curLevel = 0

	if n == 0 {
		ix.built = true
		return nil
	}

	for i := 0; i < n; i++ {
		level := ix.randomLevel()
		if i == 0 {
			level = ix.maxLevel
			ix.curLevel = level
			ix.rootID = 0
		}
		ix.levels[i] = level
		lists := make([]*layerList, level+1)
		for l := range lists {
			lists[l] = &layerList{}
		}
		ix.neighbors[i] = lists
	}

	vector.ParallelFor(n-1, func(j int) {
		ix.insertOne(j + 1)
	})

	ix.built = true
	return nil
}

// randomLevel samples a level by flipping fair coins and counting
// successes, capped at maxLevel: level l has probability 2^-(l+1).
func (ix *Index[E, T]) randomLevel() int {
	level := 0
	for level < ix.maxLevel && ix.rng.Float64() > 0.5 {
		level++
	}
	return level
}

// insertOne links node id into every layer from min(its level, curLevel)
// down to 0. It descends greedily through the layers above its own
// level to find a good entry point, then runs a bounded frontier
// search plus heuristic selection at each layer it participates in.
func (ix *Index[E, T]) insertOne(id int) {
	level := ix.levels[id]
	query := ix.nodes[id].Vec

	cur := ix.rootID
	for l := ix.curLevel; l > level; l-- {
		cur = ix.greedyStep(cur, query, l)
	}

	entries := []int{cur}
	top := level
	if ix.curLevel < top {
		top = ix.curLevel
	}
	for l := top; l >= 0; l-- {
		cap := ix.nNeighbor
		if l == 0 {
			cap = ix.nNeighbor0
		}
		candidates := ix.searchLayer(entries, query, l, ix.efBuild, false).IntoSortedAscending()
		selected := ix.selectNeighbors(candidates, cap)
		ids := idsOf(selected)
		ix.neighborList(id, l).set(ids)
		for _, s := range selected {
			ix.addBacklink(s.ID, id, l, cap)
		}
		if len(ids) > 0 {
			entries = ids
		} else {
			entries = []int{cur}
		}
	}

	if level > ix.curLevel {
		ix.rootMu.Lock()
		if level > ix.curLevel {
			ix.curLevel = level
			ix.rootID = id
		}
		ix.rootMu.Unlock()
	}
}

// greedyStep performs one layer's single-step greedy descent: move to
// whichever neighbor of cur is nearer to query than cur itself, repeat
// until no improving move exists. spec.md §9's Open Question flags the
// source's variant (which re-measures distance(cur,query) for every
// neighbor) as a bug; this compares each neighbor's own distance to
// the query, as a correct implementation must.
func (ix *Index[E, T]) greedyStep(cur int, query []E, level int) int {
	curDist := vector.MustDistance(ix.nodes[cur].Vec, query, ix.metric)
	changed := true
	for changed {
		changed = false
		for _, n := range ix.neighborList(cur, level).snapshot() {
			d := vector.MustDistance(ix.nodes[n].Vec, query, ix.metric)
			if d < curDist {
				curDist = d
				cur = n
				changed = true
			}
		}
	}
	return cur
}

// selectNeighbors implements the heuristic neighbor rule (spec.md
// §4.H): walking candidates in ascending distance-to-query order,
// accept p iff for every already-accepted r, d(q,p) <= d(r,p) — p is
// no closer to r than it is to q, which diversifies edge directions.
// When the candidate pool is already smaller than outDegree, every
// candidate is accepted without running the heuristic (matching the
// source's sorted_list_len < ret_size fast path).
func (ix *Index[E, T]) selectNeighbors(candidates []vector.Neighbor[E, int], outDegree int) []vector.Neighbor[E, int] {
	if len(candidates) < outDegree {
		return candidates
	}
	result := make([]vector.Neighbor[E, int], 0, outDegree)
	for _, c := range candidates {
		if len(result) >= outDegree {
			break
		}
		good := true
		for _, r := range result {
			if ix.distanceByID(c.ID, r.ID) < c.Distance {
				good = false
				break
			}
		}
		if good {
			result = append(result, c)
		}
	}
	return result
}

// addBacklink appends id to r's out-list at level, or — if r's list is
// already at capacity — re-runs selectNeighbors over r's current
// neighborhood plus id to decide who stays (spec.md §4.H step 3).
func (ix *Index[E, T]) addBacklink(r, id, level, cap int) {
	ll := ix.neighborList(r, level)
	ll.mu.Lock()
	defer ll.mu.Unlock()
	for _, x := range ll.ids {
		if x == id {
			return
		}
	}
	if len(ll.ids) < cap {
		ll.ids = append(ll.ids, id)
		return
	}
	cands := make([]vector.Neighbor[E, int], 0, len(ll.ids)+1)
	cands = append(cands, vector.Neighbor[E, int]{ID: id, Distance: ix.distanceByID(id, r)})
	for _, x := range ll.ids {
		cands = append(cands, vector.Neighbor[E, int]{ID: x, Distance: ix.distanceByID(x, r)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].Distance < cands[j].Distance })
	selected := ix.selectNeighbors(cands, cap)
	ll.ids = idsOf(selected)
}

func idsOf[E vector.Float](ns []vector.Neighbor[E, int]) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

package ssg

import (
	"sort"
	"sync"

	"github.com/therealutkarshpriyadarshi/vector/pkg/heap"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// buildKNNGraph computes each node's exact top-initK neighbors
// (excluding self) by exhaustive scan, in parallel across nodes
// (spec.md §4.G phase 1). This seeds both graph and knnGraph.
func (ix *Index[E, T]) buildKNNGraph() {
	n := len(ix.nodes)
	ix.graph = make([][]int, n)
	vector.ParallelFor(n, func(i int) {
		h := heap.New[E, int](ix.initK)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			h.Push(j, ix.distanceByID(i, j))
		}
		ix.graph[i] = idsOfNeighbors(h.IntoSortedAscending())
	})
	ix.knnGraph = make([][]int, n)
	for i, nbrs := range ix.graph {
		ix.knnGraph[i] = append([]int(nil), nbrs...)
	}
}

// candidatesFor collects up to neighborNeighborSize second-hop
// candidates from q's neighbors' neighbors in the current graph
// (spec.md §4.G phase 2's "neighbors of q's neighbors").
func (ix *Index[E, T]) candidatesFor(q int) []vector.Neighbor[E, int] {
	seen := map[int]bool{q: true}
	out := make([]vector.Neighbor[E, int], 0, ix.neighborNeighborSize)
	for _, nb := range ix.graph[q] {
		for _, nn := range ix.graph[nb] {
			if nn == nb || seen[nn] {
				continue
			}
			seen[nn] = true
			out = append(out, vector.Neighbor[E, int]{ID: nn, Distance: ix.distanceByID(q, nn)})
			if len(out) >= ix.neighborNeighborSize {
				return out
			}
		}
	}
	return out
}

// occlusionAccept walks sorted (ascending distance to the implicit
// query) candidates and accepts p iff, for every already-accepted r,
// the law-of-cosines angle at the query in triangle (query,p,r)
// exceeds threshold — i.e. p is not occluded by any accepted
// direction. Shared by pruning (against q) and inter-insertion
// (against a destination node), since the check only depends on the
// pairwise distances already carried in the Neighbor records.
// spec.md §4.G phase 2.
func (ix *Index[E, T]) occlusionAccept(sorted []vector.Neighbor[E, int], cap int) []vector.Neighbor[E, int] {
	if len(sorted) == 0 {
		return nil
	}
	result := make([]vector.Neighbor[E, int], 0, cap)
	result = append(result, sorted[0])
	for i := 1; i < len(sorted) && len(result) < cap; i++ {
		p := sorted[i]
		occluded := false
		for _, r := range result {
			if p.ID == r.ID {
				occluded = true
				break
			}
			djk := ix.distanceByID(r.ID, p.ID)
			denom := 2 * p.Distance * r.Distance
			if denom == 0 {
				occluded = true
				break
			}
			cosIJ := (p.Distance*p.Distance + r.Distance*r.Distance - djk*djk) / denom
			if cosIJ > ix.threshold {
				occluded = true
				break
			}
		}
		if !occluded {
			result = append(result, p)
		}
	}
	return result
}

// pruneGraph builds q's occlusion-pruned candidate list: second-hop
// candidates unioned with q's current knn edges, sorted by distance
// to q, then filtered by occlusionAccept.
func (ix *Index[E, T]) pruneGraph(q int) []vector.Neighbor[E, int] {
	cands := ix.candidatesFor(q)
	seen := make(map[int]bool, len(cands)+len(ix.graph[q]))
	for _, c := range cands {
		seen[c.ID] = true
	}
	for _, linked := range ix.graph[q] {
		if linked == q || seen[linked] {
			continue
		}
		seen[linked] = true
		cands = append(cands, vector.Neighbor[E, int]{ID: linked, Distance: ix.distanceByID(q, linked)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].Distance < cands[j].Distance })
	if len(cands) > 0 && cands[0].ID == q {
		cands = cands[1:]
	}
	return ix.occlusionAccept(cands, ix.indexSize)
}

// linkEachNode runs phase 2 (prune every source node's candidate list
// in parallel — each writes only its own region) then phase 3 (add
// reverse edges under per-destination mutual exclusion, re-pruning
// destinations that are already at capacity). spec.md §4.G / §5.
func (ix *Index[E, T]) linkEachNode() {
	n := len(ix.nodes)
	pruned := make([][]vector.Neighbor[E, int], n)
	vector.ParallelFor(n, func(i int) {
		pruned[i] = ix.pruneGraph(i)
	})

	locks := make([]sync.Mutex, n)
	vector.ParallelFor(n, func(i int) {
		ix.interInsert(i, pruned, locks)
	})

	ix.graph = make([][]int, n)
	for i := range pruned {
		ix.graph[i] = idsOfNeighbors(pruned[i])
	}
}

// interInsert adds, for every accepted i->des edge, the reverse
// des->i edge: appended directly if des is under capacity, or
// decided by re-running occlusion pruning over des's extended
// candidate list otherwise. Guarded per destination since many
// sources can target the same des concurrently.
func (ix *Index[E, T]) interInsert(i int, pruned [][]vector.Neighbor[E, int], locks []sync.Mutex) {
	for _, sn := range pruned[i] {
		des := sn.ID
		locks[des].Lock()
		dup := false
		for _, x := range pruned[des] {
			if x.ID == i {
				dup = true
				break
			}
		}
		if !dup {
			if len(pruned[des]) < ix.indexSize {
				pruned[des] = append(pruned[des], vector.Neighbor[E, int]{ID: i, Distance: sn.Distance})
			} else {
				cands := make([]vector.Neighbor[E, int], 0, len(pruned[des])+1)
				cands = append(cands, vector.Neighbor[E, int]{ID: i, Distance: sn.Distance})
				cands = append(cands, pruned[des]...)
				sort.Slice(cands, func(a, b int) bool { return cands[a].Distance < cands[b].Distance })
				pruned[des] = ix.occlusionAccept(cands, ix.indexSize)
			}
		}
		locks[des].Unlock()
	}
}

// repairConnectivity picks rootSize random seeds and BFS-explores the
// pruned graph from each; any node left unreached after the BFS
// drains is linked from some already-reached node whose out-list is
// under capacity, then folded into the same traversal. Repeats until
// every node has been folded in; a node for which no reached node has
// room is folded in without a new edge and can stay unreachable from
// that seed. spec.md §4.G phase 4.
func (ix *Index[E, T]) repairConnectivity() {
	n := len(ix.nodes)
	if n == 0 {
		return
	}
	perm := ix.rng.Perm(n)
	rootSize := ix.rootSize
	if rootSize > n {
		rootSize = n
	}

	for _, root := range perm[:rootSize] {
		visited := make(map[int]bool, n)
		queue := []int{root}
		visited[root] = true

		for {
			for len(queue) > 0 {
				q := queue[0]
				queue = queue[1:]
				for _, c := range ix.graph[q] {
					if !visited[c] {
						visited[c] = true
						queue = append(queue, c)
					}
				}
			}
			unreached := -1
			for j := 0; j < n; j++ {
				if !visited[j] {
					unreached = j
					break
				}
			}
			if unreached < 0 {
				break
			}
			for j := 0; j < n; j++ {
				if visited[j] && len(ix.graph[j]) < ix.indexSize {
					ix.graph[j] = append(ix.graph[j], unreached)
					break
				}
			}
			visited[unreached] = true
			queue = append(queue, unreached)
		}
	}
}

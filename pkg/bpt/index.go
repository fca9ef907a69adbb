// Package bpt implements the binary-partition-tree forest: an
// ensemble of randomized hyperplane trees built by recursive two-means
// splitting, searched by heap-driven descent. Grounded on
// original_source/src/index/bpt_idx.rs. spec.md §4.E.
package bpt

import (
	"math/rand"
	"sort"

	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

const (
	codecMagic  = 0x42505401 // "BPT"
	splitAttempts = 5
)

// Index is the BPT forest. Leaf index 0 is a reserved sentinel;
// real leaves occupy indices >= 1 (spec.md §9's Open Question on the
// sentinel/off-by-one is resolved by treating every length check as
// strict >=).
type Index[E vector.Float, T vector.Id] struct {
	Dim           int
	leafMaxItems  int
	treeNum       int
	candidateSize int

	leaves       []leaf[E, T]
	roots        []int
	totItemsCnt  int
	totLeavesCnt int
	metric       vector.Metric
	built        bool
	rng          *rand.Rand
}

// New constructs an empty forest over the given dimension.
func New[E vector.Float, T vector.Id](dimension int, p idx.BPTParams) *Index[E, T] {
	return &Index[E, T]{
		Dim:           dimension,
		leafMaxItems:  dimension/2 + 2,
		treeNum:       p.TreeNum,
		candidateSize: p.CandidateSize,
		leaves:        []leaf[E, T]{{}}, // index 0 sentinel
		rng:           rand.New(rand.NewSource(1)),
	}
}

func (ix *Index[E, T]) AddNode(v []E, id T) error {
	if err := vector.ValidateDimension(v, ix.Dim); err != nil {
		return err
	}
	ix.totItemsCnt++
	ix.leaves = append(ix.leaves, newDataLeaf[E, T](v, id))
	return nil
}

func (ix *Index[E, T]) AddBatch(vs [][]E, ids []T) error {
	if len(vs) != len(ids) {
		return vector.New(vector.DimensionMismatch, "add_batch: vectors/ids length mismatch")
	}
	for _, v := range vs {
		if err := vector.ValidateDimension(v, ix.Dim); err != nil {
			return err
		}
	}
	for i, v := range vs {
		if err := ix.AddNode(v, ids[i]); err != nil {
			return err
		}
	}
	return nil
}

// Build grows the forest. Unlike the other five indexes, a second
// Build call on an already-built BPT forest fails AlreadyBuilt —
// spec.md §6: "idempotent failure if called twice on BPT".
func (ix *Index[E, T]) Build(m vector.Metric) error {
	if ix.built {
		return vector.New(vector.AlreadyBuilt, "")
	}
	ix.metric = m
	ix.totLeavesCnt = ix.totItemsCnt
	ix.buildForest()
	ix.built = true
	return nil
}

func (ix *Index[E, T]) Built() bool { return ix.built }

func (ix *Index[E, T]) buildForest() {
	if ix.totItemsCnt == 0 {
		return
	}
	var thisRoot []int
	for {
		if ix.treeNum == -1 {
			if ix.totLeavesCnt >= 2*ix.totItemsCnt {
				break
			}
		} else if len(thisRoot) >= ix.treeNum {
			break
		}
		indices := make([]int, 0, ix.totItemsCnt)
		for i := 1; i <= ix.totItemsCnt; i++ {
			if ix.leaves[i].nDescendants >= 1 {
				indices = append(indices, i)
			}
		}
		tree := ix.makeTree(indices, true)
		thisRoot = append(thisRoot, tree)
	}
	ix.roots = append(ix.roots, thisRoot...)
}

// makeTree grows one tree over indices, recursively, returning the
// leaf index of its root. spec.md §4.E step 2.
func (ix *Index[E, T]) makeTree(indices []int, isRoot bool) int {
	if len(indices) == 0 {
		return 0
	}
	if len(indices) == 1 && !isRoot {
		return indices[0]
	}

	if len(indices) <= ix.leafMaxItems && (!isRoot || ix.totItemsCnt <= ix.leafMaxItems || len(indices) == 1) {
		n := newInternalLeaf[E, T]()
		if isRoot {
			n.nDescendants = ix.totItemsCnt
		} else {
			n.nDescendants = len(indices)
		}
		n.children = append([]int(nil), indices...)
		ix.totLeavesCnt++
		ix.leaves = append(ix.leaves, n)
		return ix.totLeavesCnt
	}

	subset := make([]leaf[E, T], len(indices))
	for i, leafIdx := range indices {
		subset[i] = ix.leaves[leafIdx]
	}

	var newParent leaf[E, T]
	var childrenIdx [2][]int
	for attempt := 0; attempt < splitAttempts; attempt++ {
		childrenIdx[0] = childrenIdx[0][:0]
		childrenIdx[1] = childrenIdx[1][:0]
		split, ok := ix.createSplit(subset)
		if !ok {
			break
		}
		newParent = split
		for _, leafIdx := range indices {
			side := ix.side(newParent.node.Vec, ix.leaves[leafIdx].node.Vec)
			childrenIdx[side] = append(childrenIdx[side], leafIdx)
		}
		if splitImbalance(len(childrenIdx[0]), len(childrenIdx[1])) < 0.85 {
			break
		}
	}

	// Degenerate fallback: a zero hyperplane and a per-point coin
	// flip. Still makes progress (each retry re-flips), just no longer
	// discriminates on vector content. spec.md's Open Questions call
	// this out explicitly — preserved rather than "fixed".
	for splitImbalance(len(childrenIdx[0]), len(childrenIdx[1])) > 0.98 {
		childrenIdx[0] = childrenIdx[0][:0]
		childrenIdx[1] = childrenIdx[1][:0]
		newParent.node.Vec = make([]E, ix.Dim)
		for _, leafIdx := range indices {
			side := randFlip(ix.rng)
			childrenIdx[side] = append(childrenIdx[side], leafIdx)
		}
	}

	flip := 0
	if len(childrenIdx[0]) > len(childrenIdx[1]) {
		flip = 1
	}
	if isRoot {
		newParent.nDescendants = ix.totItemsCnt
	} else {
		newParent.nDescendants = len(indices)
	}
	newParent.children = []int{0, 0}
	for side := 0; side < 2; side++ {
		child := ix.makeTree(childrenIdx[side^flip], false)
		newParent.children[side^flip] = child
	}
	ix.totLeavesCnt++
	ix.leaves = append(ix.leaves, newParent)
	return ix.totLeavesCnt
}

func (ix *Index[E, T]) createSplit(subset []leaf[E, T]) (leaf[E, T], bool) {
	p, q, ok := twoMeans(ix.rng, subset, ix.metric)
	if !ok {
		return leaf[E, T]{}, false
	}
	v := make([]E, len(p.node.Vec))
	for i := range v {
		v[i] = p.node.Vec[i] - q.node.Vec[i]
	}
	n := newInternalLeaf[E, T]()
	n.node.Vec = v
	n = n.normalized()
	return n, true
}

// side reports which child a vector falls on: the sign of its dot
// product with the hyperplane. A dimension mismatch (only possible on
// the very first, still-empty hyperplane) falls back to a coin flip,
// mirroring the original's side()/margin() pair.
func (ix *Index[E, T]) side(hyperplane, v []E) int {
	d, err := vector.Dot(hyperplane, v)
	if err != nil {
		return randFlip(ix.rng)
	}
	if d > 0 {
		return 1
	}
	return 0
}

// splitImbalance mirrors original_source/src/core/calc.rs's
// split_imbalance: max(|L|,|R|) / (|L|+|R|+eps).
func splitImbalance(l, r int) float64 {
	const eps = 1e-9
	f := float64(l) / (float64(l) + float64(r) + eps)
	if f > 1-f {
		return f
	}
	return 1 - f
}

// SearchFull runs search_k: heap-driven descent across every root,
// stopping once candidateSize leaves have been visited, then exact
// re-scoring of the deduplicated candidate set. spec.md §4.E step "Search".
func (ix *Index[E, T]) SearchFull(query []E, k int) []vector.Neighbor[E, T] {
	if len(query) != ix.Dim {
		panic("bpt: query dimension mismatch")
	}
	if len(ix.roots) == 0 || !ix.built {
		return nil
	}

	candidateSize := ix.candidateSize
	if candidateSize <= 0 {
		candidateSize = k * len(ix.roots) * 2
	}

	var q pqueue[E]
	for _, r := range ix.roots {
		q.Push(vector.MaxValue[E](), r)
	}

	var nns []int
	for len(nns) < candidateSize && q.Len() > 0 {
		top := q.Pop()
		nd := ix.leaves[top.leafID]
		switch {
		case nd.nDescendants == 1 && top.leafID <= ix.totItemsCnt:
			nns = append(nns, top.leafID)
		case nd.nDescendants <= ix.leafMaxItems:
			nns = append(nns, nd.children...)
		default:
			margin, _ := vector.Dot(nd.node.Vec, query)
			q.Push(pqDistance(top.priority, margin, 1), nd.children[1])
			q.Push(pqDistance(top.priority, margin, 0), nd.children[0])
		}
	}

	sort.Ints(nns)
	candidates := make([]vector.Neighbor[E, int], 0, len(nns))
	last := -1
	for _, j := range nns {
		if j == last {
			continue
		}
		last = j
		lf := ix.leaves[j]
		if lf.nDescendants != 1 {
			continue
		}
		d := vector.MustDistance(query, lf.node.Vec, ix.metric)
		candidates = append(candidates, vector.Neighbor[E, int]{ID: j, Distance: d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Distance < candidates[j].Distance })

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]vector.Neighbor[E, T], k)
	for i := 0; i < k; i++ {
		out[i] = vector.Neighbor[E, T]{ID: ix.leaves[candidates[i].ID].node.ID, Distance: candidates[i].Distance}
	}
	return out
}

func pqDistance[E vector.Float](distance, margin E, childNr int) E {
	if childNr == 0 {
		margin = -margin
	}
	if distance < margin {
		return distance
	}
	return margin
}

func (ix *Index[E, T]) Search(query []E, k int) []T {
	full := ix.SearchFull(query, k)
	out := make([]T, len(full))
	for i, n := range full {
		out[i] = n.ID
	}
	return out
}

func (ix *Index[E, T]) Name() string   { return "BPForestIndex" }
func (ix *Index[E, T]) Dimension() int { return ix.Dim }
func (ix *Index[E, T]) NodesSize() int { return ix.totItemsCnt }

func (ix *Index[E, T]) Clear() {
	ix.leaves = []leaf[E, T]{{}}
	ix.roots = nil
	ix.totItemsCnt = 0
	ix.totLeavesCnt = 0
	ix.built = false
}

type dumpState[E vector.Float, T vector.Id] struct {
	Dim           int
	LeafMaxItems  int
	TreeNum       int
	CandidateSize int
	Leaves        []dumpLeaf[E, T]
	Roots         []int
	TotItemsCnt   int
	TotLeavesCnt  int
	Metric        vector.Metric
	Built         bool
}

type dumpLeaf[E vector.Float, T vector.Id] struct {
	NDescendants int
	Children     []int
	Node         vector.Node[E, T]
}

func (ix *Index[E, T]) Dump(path string) error {
	leaves := make([]dumpLeaf[E, T], len(ix.leaves))
	for i, l := range ix.leaves {
		leaves[i] = dumpLeaf[E, T]{NDescendants: l.nDescendants, Children: l.children, Node: l.node}
	}
	s := dumpState[E, T]{
		Dim: ix.Dim, LeafMaxItems: ix.leafMaxItems, TreeNum: ix.treeNum,
		CandidateSize: ix.candidateSize, Leaves: leaves, Roots: ix.roots,
		TotItemsCnt: ix.totItemsCnt, TotLeavesCnt: ix.totLeavesCnt,
		Metric: ix.metric, Built: ix.built,
	}
	return vector.Dump(path, codecMagic, s)
}

func (ix *Index[E, T]) Load(path string) error {
	var s dumpState[E, T]
	if err := vector.Load(path, codecMagic, &s); err != nil {
		return err
	}
	ix.Dim, ix.leafMaxItems, ix.treeNum = s.Dim, s.LeafMaxItems, s.TreeNum
	ix.candidateSize, ix.roots = s.CandidateSize, s.Roots
	ix.leaves = make([]leaf[E, T], len(s.Leaves))
	for i, l := range s.Leaves {
		ix.leaves[i] = leaf[E, T]{nDescendants: l.NDescendants, children: l.Children, node: l.Node}
	}
	ix.totItemsCnt, ix.totLeavesCnt, ix.metric, ix.built = s.TotItemsCnt, s.TotLeavesCnt, s.Metric, s.Built
	if ix.rng == nil {
		ix.rng = rand.New(rand.NewSource(1))
	}
	return nil
}

var (
	_ idx.Index[float32, int] = (*Index[float32, int])(nil)
	_ idx.Serializable        = (*Index[float32, int])(nil)
)

// Package bruteforce implements the exhaustive-scan index used as the
// recall oracle: no build-time structure, so its top-k is exact.
// Grounded on original_source/src/index/bruteforce_idx.rs. spec.md §4.D.
package bruteforce

import (
	"github.com/therealutkarshpriyadarshi/vector/pkg/heap"
	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

const codecMagic = 0x42460001 // "BF"

var (
	_ idx.Index[float32, int]        = (*Index[float32, int])(nil)
	_ idx.Serializable                = (*Index[float32, int])(nil)
)

// Index is the brute-force recall oracle. Build is idempotent and
// only records the metric; it never fails once nodes are valid.
type Index[E vector.Float, T vector.Id] struct {
	Dim    int
	Nodes  []vector.Node[E, T]
	Metric vector.Metric
	isBuilt bool
}

// New constructs an empty brute-force index over the given dimension.
// params carries no tunables (spec.md §6).
func New[E vector.Float, T vector.Id](dimension int, _ idx.BruteForceParams) *Index[E, T] {
	return &Index[E, T]{Dim: dimension}
}

func (ix *Index[E, T]) AddNode(v []E, id T) error {
	if err := vector.ValidateDimension(v, ix.Dim); err != nil {
		return err
	}
	ix.Nodes = append(ix.Nodes, vector.NewNode(v, id))
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
		ix.Nodes = append(ix.Nodes, vector.NewNode(v, ids[i]))
	}
	return nil
}

func (ix *Index[E, T]) Build(m vector.Metric) error {
	ix.Metric = m
	ix.isBuilt = true
	return nil
}

func (ix *Index[E, T]) Built() bool { return ix.isBuilt }

func (ix *Index[E, T]) SearchFull(query []E, k int) []vector.Neighbor[E, T] {
	if len(query) != ix.Dim {
		panic("bruteforce: query dimension mismatch")
	}
	h := heap.New[E, T](k)
	for _, n := range ix.Nodes {
		d := vector.MustDistance(query, n.Vec, ix.Metric)
		h.Push(n.ID, d)
	}
	return h.IntoSortedAscending()
}

func (ix *Index[E, T]) Search(query []E, k int) []T {
	full := ix.SearchFull(query, k)
	out := make([]T, len(full))
	for i, n := range full {
		out[i] = n.ID
	}
	return out
}

func (ix *Index[E, T]) Name() string { return "BruteForceIndex" }
func (ix *Index[E, T]) Dimension() int { return ix.Dim }
func (ix *Index[E, T]) NodesSize() int { return len(ix.Nodes) }

func (ix *Index[E, T]) Clear() {
	ix.Nodes = nil
	ix.isBuilt = false
}

type dumpState[E vector.Float, T vector.Id] struct {
	Dim     int
	Nodes   []vector.Node[E, T]
	Metric  vector.Metric
	IsBuilt bool
}

func (ix *Index[E, T]) Dump(path string) error {
	return vector.Dump(path, codecMagic, dumpState[E, T]{ix.Dim, ix.Nodes, ix.Metric, ix.isBuilt})
}

func (ix *Index[E, T]) Load(path string) error {
	var s dumpState[E, T]
	if err := vector.Load(path, codecMagic, &s); err != nil {
		return err
	}
	ix.Dim, ix.Nodes, ix.Metric, ix.isBuilt = s.Dim, s.Nodes, s.Metric, s.IsBuilt
	return nil
}

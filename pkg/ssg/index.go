// Package ssg implements the satellite-system graph: a flat
// proximity graph built from an exact k-NN graph, pruned by an
// angular occlusion rule (law-of-cosines test against each
// already-accepted neighbor), augmented for connectivity, then
// searched by multi-seed best-first BFS from a k-means-selected set
// of entry points. Grounded on original_source/src/index/ssg_idx.rs,
// generalized to the shared vector/heap/kmeans substrate and restyled
// after the teacher's NSG package (a sibling single-layer graph
// index: per-node neighbor list, work-stealing build loops).
// spec.md §4.G.
package ssg

import (
	"math"
	"math/rand"

	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/kmeans"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// seedEpochs is the fixed epoch count spec.md §4.G's seed-selection
// step hands to general_kmeans (hardcoded as 256 by the source).
const seedEpochs = 256

const codecMagic = 0x53534701 // "SSG"

// Index is the SSG proximity graph. graph holds the final pruned,
// connectivity-repaired adjacency; knnGraph retains the exact k-NN
// graph construction started from, per spec.md §3.
type Index[E vector.Float, T vector.Id] struct {
	Dim                  int
	angleDegrees         float64
	initK                int
	indexSize            int
	neighborNeighborSize int
	rootSize             int
	threshold            E

	nodes     []vector.Node[E, T]
	graph     [][]int
	knnGraph  [][]int
	rootNodes []int

	metric vector.Metric
	built  bool
	rng    *rand.Rand
}

// New constructs an empty SSG index over the given dimension.
func New[E vector.Float, T vector.Id](dimension int, p idx.SSGParams) *Index[E, T] {
	return &Index[E, T]{
		Dim:                  dimension,
		angleDegrees:         p.AngleDegrees,
		initK:                p.InitK,
		indexSize:            p.IndexSize,
		neighborNeighborSize: p.NeighborNeighborSize,
		rootSize:             p.RootSize,
		rng:                  rand.New(rand.NewSource(1)),
	}
}

func (ix *Index[E, T]) AddNode(v []E, id T) error {
	if err := vector.ValidateDimension(v, ix.Dim); err != nil {
		return err
	}
	ix.nodes = append(ix.nodes, vector.NewNode(v, id))
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

// Build runs the four phases of spec.md §4.G: exact k-NN graph, then
// occlusion-pruning and inter-insertion, then connectivity repair,
// then k-means entry-point selection. Rebuild is permitted (unlike
// BPT): a second Build call reconstructs from scratch over the
// currently stored nodes.
func (ix *Index[E, T]) Build(m vector.Metric) error {
	ix.metric = m
	n := len(ix.nodes)
	if n == 0 {
		ix.built = true
		return nil
	}
	ix.threshold = E(math.Cos(ix.angleDegrees / 180.0 * math.Pi))

	ix.buildKNNGraph()
	ix.linkEachNode()
	ix.repairConnectivity()
	ix.rootNodes = kmeans.General(ix.rootSize, seedEpochs, ix.nodes, ix.metric)

	ix.built = true
	return nil
}

func (ix *Index[E, T]) Built() bool { return ix.built }

func (ix *Index[E, T]) Name() string   { return "SSGIndex" }
func (ix *Index[E, T]) Dimension() int { return ix.Dim }
func (ix *Index[E, T]) NodesSize() int { return len(ix.nodes) }

func (ix *Index[E, T]) Clear() {
	ix.nodes = nil
	ix.graph = nil
	ix.knnGraph = nil
	ix.rootNodes = nil
	ix.built = false
}

func (ix *Index[E, T]) distanceByID(a, b int) E {
	return vector.MustDistance(ix.nodes[a].Vec, ix.nodes[b].Vec, ix.metric)
}

func idsOfNeighbors[E vector.Float](ns []vector.Neighbor[E, int]) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

var (
	_ idx.Index[float32, int] = (*Index[float32, int])(nil)
	_ idx.Serializable        = (*Index[float32, int])(nil)
)

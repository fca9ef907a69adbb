// Package hnsw implements the hierarchical navigable small world
// graph: a multi-layer proximity graph where each node's level is
// sampled by repeated coin flips, higher layers are sparse long-range
// shortcuts, and both insertion and search descend layer by layer
// with a greedy single-step search before running a bounded best-
// first frontier search at the target layer. Grounded on
// original_source/src/index/hnsw_idx.rs, generalized to the shared
// vector/heap substrate used by every index in this module.
// spec.md §4.H.
package hnsw

import (
	"math/rand"
	"sync"

	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

const codecMagic = 0x484e5301 // "HNS"

// layerList is one node's out-edge list at one layer. Each list is
// independently lockable so concurrent inserts during build only
// contend on the specific lists they touch, per spec.md §5's
// "guard each such list with a read/write mutual-exclusion lock".
type layerList struct {
	mu  sync.RWMutex
	ids []int
}

func (l *layerList) snapshot() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]int, len(l.ids))
	copy(out, l.ids)
	return out
}

func (l *layerList) set(ids []int) {
	l.mu.Lock()
	l.ids = ids
	l.mu.Unlock()
}

// Index is the HNSW graph. Internal node indices are positions into
// nodes; idIndex maps an external id back to its internal index for
// Delete. Per spec.md §3, graph edges are mutated only during Build —
// AddNode after a prior Build requires a rebuild, which Build permits
// (unlike BPT, a second Build call here is not an error).
type Index[E vector.Float, T vector.Id] struct {
	Dim         int
	maxItem     int
	nNeighbor   int // M: layer>0 degree cap
	nNeighbor0  int // M0: layer-0 degree cap
	maxLevel    int
	efBuild     int
	efSearch    int
	hasDeletion bool

	nodes     []vector.Node[E, T]
	idIndex   map[T]int
	levels    []int
	neighbors [][]*layerList // neighbors[i][0] is layer 0; neighbors[i][l] for l>=1 is layer l

	rootMu   sync.Mutex
	rootID   int
	curLevel int

	metric vector.Metric
	built  bool

	tombMu    sync.RWMutex
	tombstone map[int]struct{}

	rng *rand.Rand
}

// New constructs an empty HNSW index over the given dimension.
func New[E vector.Float, T vector.Id](dimension int, p idx.HNSWParams) *Index[E, T] {
	return &Index[E, T]{
		Dim:         dimension,
		maxItem:     p.MaxItem,
		nNeighbor:   p.NNeighbor,
		nNeighbor0:  p.NNeighbor0,
		maxLevel:    p.MaxLevel,
		efBuild:     p.EfBuild,
		efSearch:    p.EfSearch,
		hasDeletion: p.HasDeletion,
		idIndex:     make(map[T]int),
		tombstone:   make(map[int]struct{}),
		rng:         rand.New(rand.NewSource(1)),
	}
}

func (ix *Index[E, T]) AddNode(v []E, id T) error {
	if err := vector.ValidateDimension(v, ix.Dim); err != nil {
		return err
	}
	if ix.maxItem > 0 && len(ix.nodes) >= ix.maxItem {
		return vector.New(vector.IndexFull, "")
	}
	ix.idIndex[id] = len(ix.nodes)
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
	if ix.maxItem > 0 && len(ix.nodes)+len(vs) > ix.maxItem {
		return vector.New(vector.IndexFull, "")
	}
	for i, v := range vs {
		if err := ix.AddNode(v, ids[i]); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index[E, T]) Built() bool { return ix.built }

func (ix *Index[E, T]) Name() string   { return "HNSWIndex" }
func (ix *Index[E, T]) Dimension() int { return ix.Dim }
func (ix *Index[E, T]) NodesSize() int { return len(ix.nodes) }

// Delete tombstones id so future searches skip it while its edges
// remain part of the graph for traversal, per spec.md §4.H's soft
// delete and §6's has_deletion contract.
func (ix *Index[E, T]) Delete(id T) error {
	if !ix.hasDeletion {
		return vector.New(vector.ParameterOutOfRange, "has_deletion")
	}
	i, ok := ix.idIndex[id]
	if !ok {
		return vector.New(vector.InvalidVector, "unknown id")
	}
	ix.tombMu.Lock()
	ix.tombstone[i] = struct{}{}
	ix.tombMu.Unlock()
	return nil
}

func (ix *Index[E, T]) isDeleted(i int) bool {
	ix.tombMu.RLock()
	_, ok := ix.tombstone[i]
	ix.tombMu.RUnlock()
	return ok
}

func (ix *Index[E, T]) Clear() {
	ix.nodes = nil
	ix.levels = nil
	ix.neighbors = nil
	ix.idIndex = make(map[T]int)
	ix.tombstone = make(map[int]struct{})
	ix.rootID = 0
	ix.curLevel = 0
	ix.built = false
}

func (ix *Index[E, T]) neighborList(id, level int) *layerList {
	return ix.neighbors[id][level]
}

func (ix *Index[E, T]) distanceByID(a, b int) E {
	return vector.MustDistance(ix.nodes[a].Vec, ix.nodes[b].Vec, ix.metric)
}

var (
	_ idx.Index[float32, int] = (*Index[float32, int])(nil)
	_ idx.Serializable        = (*Index[float32, int])(nil)
)

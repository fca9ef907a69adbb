package index

import "github.com/therealutkarshpriyadarshi/vector/pkg/vector"

// Index is the capability contract every algorithm in this module
// satisfies, per spec.md §6 and §9's "Polymorphism over index
// algorithm" note. A homogeneous collection of indexes is expressed
// as a slice/map of this interface — Go's interface values are the
// sum-type "IndexHandle" the design notes call for, one concrete type
// per algorithm, no shared base struct.
type Index[E vector.Float, T vector.Id] interface {
	// AddNode rejects NaN/infinite elements and wrong-dimension input.
	AddNode(v []E, id T) error
	// AddBatch rejects a length mismatch between vs and ids, and
	// leaves the index unmodified if any single vector is rejected.
	AddBatch(vs [][]E, ids []T) error
	// Build finalizes the index under metric m. Some algorithms (BPT)
	// fail AlreadyBuilt on a second call; others permit rebuilding.
	Build(m vector.Metric) error
	Built() bool
	// Search asserts len(query) == Dimension(): a mismatched query is
	// a caller bug, not a runtime condition (spec.md §7).
	Search(query []E, k int) []T
	SearchFull(query []E, k int) []vector.Neighbor[E, T]
	Name() string
	Dimension() int
	NodesSize() int
	Clear()
}

// Serializable is implemented by every index whose internal state is
// a flat, index-based graph/table amenable to a byte dump (spec.md §6).
type Serializable interface {
	Dump(path string) error
	Load(path string) error
}

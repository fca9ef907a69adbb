// Package index defines the contract every ANN index satisfies and
// the typed parameter record each algorithm takes instead of a
// string-keyed argument bag. See spec.md §6 and §9's "Dynamic
// parameter bag" design note.
package index

import "github.com/therealutkarshpriyadarshi/vector/pkg/vector"

// BruteForceParams configures the exhaustive-scan oracle; it has no tunables.
type BruteForceParams struct{}

func (BruteForceParams) Validate() error { return nil }

// BPTParams configures the binary-partition-tree forest.
type BPTParams struct {
	// TreeNum is the number of trees to grow; -1 grows until total
	// leaves reach 2x the item count.
	TreeNum int
	// CandidateSize bounds how many leaves search_k visits before
	// stopping; 0 means "auto": 2*k*len(roots).
	CandidateSize int
}

func (p BPTParams) Validate() error {
	if p.TreeNum == 0 {
		return vector.New(vector.ParameterOutOfRange, "tree_num")
	}
	if p.CandidateSize < 0 {
		return vector.New(vector.ParameterOutOfRange, "candidate_size")
	}
	return nil
}

// HNSWParams configures the hierarchical navigable small world graph.
type HNSWParams struct {
	MaxItem      int
	NNeighbor    int // M: layer>0 degree cap
	NNeighbor0   int // M0: layer-0 degree cap
	MaxLevel     int
	EfBuild      int
	EfSearch     int
	HasDeletion  bool
}

func (p HNSWParams) Validate() error {
	switch {
	case p.NNeighbor <= 0:
		return vector.New(vector.ParameterOutOfRange, "n_neighbor")
	case p.NNeighbor0 <= 0:
		return vector.New(vector.ParameterOutOfRange, "n_neighbor0")
	case p.MaxLevel <= 0:
		return vector.New(vector.ParameterOutOfRange, "max_level")
	case p.EfBuild <= 0:
		return vector.New(vector.ParameterOutOfRange, "ef_build")
	case p.EfSearch <= 0:
		return vector.New(vector.ParameterOutOfRange, "ef_search")
	}
	return nil
}

// DefaultHNSWParams mirrors common HNSW defaults (M=16, efConstruction=200).
func DefaultHNSWParams(maxItem int) HNSWParams {
	return HNSWParams{
		MaxItem:    maxItem,
		NNeighbor:  16,
		NNeighbor0: 32,
		MaxLevel:   8,
		EfBuild:    200,
		EfSearch:   50,
	}
}

// PQParams configures product quantization: M subspaces of 2^SubBits centroids each.
type PQParams struct {
	NSub       int // M
	SubBits    int // b, <= 32
	TrainEpoch int
}

func (p PQParams) Validate() error {
	switch {
	case p.NSub <= 0:
		return vector.New(vector.ParameterOutOfRange, "n_sub")
	case p.SubBits <= 0 || p.SubBits > 32:
		return vector.New(vector.ParameterOutOfRange, "sub_bits")
	case p.TrainEpoch <= 0:
		return vector.New(vector.ParameterOutOfRange, "train_epoch")
	}
	return nil
}

// IVFPQParams adds a coarse quantizer over PQParams.
type IVFPQParams struct {
	PQParams
	NKmeansCenter int // K
	SearchNCenter int
}

func (p IVFPQParams) Validate() error {
	if err := p.PQParams.Validate(); err != nil {
		return err
	}
	switch {
	case p.NKmeansCenter <= 0:
		return vector.New(vector.ParameterOutOfRange, "n_kmeans_center")
	case p.SearchNCenter <= 0 || p.SearchNCenter > p.NKmeansCenter:
		return vector.New(vector.ParameterOutOfRange, "search_n_center")
	}
	return nil
}

// SSGParams configures the satellite-system graph.
type SSGParams struct {
	AngleDegrees         float64
	InitK                int
	IndexSize            int
	NeighborNeighborSize int
	RootSize             int
}

func (p SSGParams) Validate() error {
	switch {
	case p.AngleDegrees <= 0 || p.AngleDegrees >= 180:
		return vector.New(vector.ParameterOutOfRange, "angle")
	case p.InitK <= 0:
		return vector.New(vector.ParameterOutOfRange, "init_k")
	case p.IndexSize <= 0:
		return vector.New(vector.ParameterOutOfRange, "index_size")
	case p.NeighborNeighborSize <= 0:
		return vector.New(vector.ParameterOutOfRange, "neighbor_neighbor_size")
	case p.RootSize <= 0:
		return vector.New(vector.ParameterOutOfRange, "root_size")
	}
	return nil
}

// Package ivfpq implements inverted-file product quantization: a
// coarse k-means quantizer partitions the space into buckets, and
// each bucket trains its own product-quantization sub-index on
// residuals (v - bucket_centroid). Search visits only the closest
// few buckets. Grounded on pkg/ivf/{index.go,ivf_pq.go} (the teacher's
// IVFFlat/IVFPQ pair), generalized onto the shared vector/kmeans/pq
// substrate. spec.md §4.F.
package ivfpq

import (
	"github.com/therealutkarshpriyadarshi/vector/pkg/heap"
	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/kmeans"
	"github.com/therealutkarshpriyadarshi/vector/pkg/pq"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

const codecMagic = 0x49565051 // "IVPQ"

// bucket holds the residual PQ sub-index for one coarse center; the
// sub-index stores the global ids of the vectors assigned to it.
type bucket[E vector.Float, T vector.Id] struct {
	pq *pq.Index[E, T]
}

// Index is the IVF-PQ index.
type Index[E vector.Float, T vector.Id] struct {
	Dim           int
	nKmeansCenter int
	searchNCenter int
	pqParams      idx.PQParams

	centers [][]E
	buckets []bucket[E, T]

	ids    []T
	vecs   [][]E
	metric vector.Metric
	built  bool
}

func New[E vector.Float, T vector.Id](dimension int, p idx.IVFPQParams) *Index[E, T] {
	return &Index[E, T]{
		Dim:           dimension,
		nKmeansCenter: p.NKmeansCenter,
		searchNCenter: p.SearchNCenter,
		pqParams:      p.PQParams,
	}
}

func (ix *Index[E, T]) AddNode(v []E, id T) error {
	if err := vector.ValidateDimension(v, ix.Dim); err != nil {
		return err
	}
	ix.ids = append(ix.ids, id)
	ix.vecs = append(ix.vecs, append([]E(nil), v...))
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

// Build trains the coarse quantizer, assigns every vector to its
// nearest coarse center, then trains one PQ sub-index per bucket on
// residuals. spec.md §4.F step "IVF-PQ".
func (ix *Index[E, T]) Build(m vector.Metric) error {
	ix.metric = m

	km := kmeans.New[E](ix.Dim, ix.nKmeansCenter, m)
	km.Train(ix.vecs, ix.pqParams.TrainEpoch)
	ix.centers = km.Centers()

	assigned := km.SearchData(ix.vecs)

	bucketVecs := make([][][]E, ix.nKmeansCenter)
	bucketIds := make([][]T, ix.nKmeansCenter)
	for i, c := range assigned {
		residual := make([]E, ix.Dim)
		for j := range residual {
			residual[j] = ix.vecs[i][j] - ix.centers[c][j]
		}
		bucketVecs[c] = append(bucketVecs[c], residual)
		bucketIds[c] = append(bucketIds[c], ix.ids[i])
	}

	ix.buckets = make([]bucket[E, T], ix.nKmeansCenter)
	for c := 0; c < ix.nKmeansCenter; c++ {
		sub := pq.New[E, T](ix.Dim, ix.pqParams)
		if len(bucketVecs[c]) > 0 {
			_ = sub.AddBatch(bucketVecs[c], bucketIds[c])
			if err := sub.Build(m); err != nil {
				return err
			}
		}
		ix.buckets[c] = bucket[E, T]{pq: sub}
	}

	ix.built = true
	return nil
}

func (ix *Index[E, T]) Built() bool { return ix.built }

// SearchFull visits the closest searchNCenter coarse buckets, running
// each bucket's PQ search against the query's residual for that
// bucket, and merges the per-bucket top-k via a single global bounded
// heap. spec.md §4.F step "Search" for IVF-PQ.
func (ix *Index[E, T]) SearchFull(query []E, k int) []vector.Neighbor[E, T] {
	if len(query) != ix.Dim {
		panic("ivfpq: query dimension mismatch")
	}

	type centerDist struct {
		center int
		dist   E
	}
	dists := make([]centerDist, ix.nKmeansCenter)
	for c := range ix.centers {
		dists[c] = centerDist{c, vector.MustDistance(query, ix.centers[c], ix.metric)}
	}
	for i := 1; i < len(dists); i++ {
		for j := i; j > 0 && dists[j].dist < dists[j-1].dist; j-- {
			dists[j], dists[j-1] = dists[j-1], dists[j]
		}
	}

	visit := ix.searchNCenter
	if visit > len(dists) {
		visit = len(dists)
	}

	h := heap.New[E, T](k)
	for i := 0; i < visit; i++ {
		c := dists[i].center
		b := ix.buckets[c]
		if b.pq == nil || b.pq.NodesSize() == 0 {
			continue
		}
		residual := make([]E, ix.Dim)
		for j := range residual {
			residual[j] = query[j] - ix.centers[c][j]
		}
		for _, n := range b.pq.SearchFull(residual, k) {
			h.Push(n.ID, n.Distance)
		}
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

func (ix *Index[E, T]) Name() string   { return "IVFPQIndex" }
func (ix *Index[E, T]) Dimension() int { return ix.Dim }
func (ix *Index[E, T]) NodesSize() int { return len(ix.ids) }

func (ix *Index[E, T]) Clear() {
	ix.ids = nil
	ix.vecs = nil
	ix.centers = nil
	ix.buckets = nil
	ix.built = false
}

type dumpState[E vector.Float, T vector.Id] struct {
	Dim           int
	NKmeansCenter int
	SearchNCenter int
	PQParams      idx.PQParams
	Centers       [][]E
	Ids           []T
	Vecs          [][]E
	Metric        vector.Metric
	Built         bool
}

// Dump persists the coarse structure and retrains bucket PQ sub-indexes
// on Load rather than serializing each one separately, since they are
// fully determined by Centers, Ids, Vecs and Metric.
func (ix *Index[E, T]) Dump(path string) error {
	s := dumpState[E, T]{
		Dim: ix.Dim, NKmeansCenter: ix.nKmeansCenter, SearchNCenter: ix.searchNCenter,
		PQParams: ix.pqParams, Centers: ix.centers, Ids: ix.ids, Vecs: ix.vecs,
		Metric: ix.metric, Built: ix.built,
	}
	return vector.Dump(path, codecMagic, s)
}

func (ix *Index[E, T]) Load(path string) error {
	var s dumpState[E, T]
	if err := vector.Load(path, codecMagic, &s); err != nil {
		return err
	}
	ix.Dim, ix.nKmeansCenter, ix.searchNCenter = s.Dim, s.NKmeansCenter, s.SearchNCenter
	ix.pqParams, ix.centers, ix.ids, ix.vecs = s.PQParams, s.Centers, s.Ids, s.Vecs
	ix.metric, ix.built = s.Metric, s.Built
	if ix.built {
		return ix.Build(ix.metric)
	}
	return nil
}

var (
	_ idx.Index[float32, int] = (*Index[float32, int])(nil)
	_ idx.Serializable        = (*Index[float32, int])(nil)
)

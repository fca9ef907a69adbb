// Package pq implements product quantization: each vector is split
// into M contiguous sub-vectors, each quantized independently against
// its own k-means codebook of 2^b centroids. Search scores every
// stored code against a precomputed per-subspace distance table
// instead of decoding back to the original space. Independent of the
// teacher's own product quantizer (which is float32-only and byte-coded,
// capping it at 256 centroids per subspace); this package is built
// directly on pkg/kmeans so it stays generic over E and can address the
// full 2^32 centroids per subspace spec.md §4.F allows. spec.md §4.F.
package pq

import (
	"github.com/therealutkarshpriyadarshi/vector/pkg/heap"
	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/kmeans"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

const codecMagic = 0x50510001 // "PQ"

// Index is the product-quantization index. Per spec.md §6's memory
// discipline, original vectors are retained alongside the compressed
// codes rather than dropped.
type Index[E vector.Float, T vector.Id] struct {
	Dim        int
	nSub       int
	subBits    int
	trainEpoch int

	subOffsets []int // len nSub+1: subspace i spans [subOffsets[i], subOffsets[i+1])
	codebooks  [][][]E // codebooks[sv][code] = centroid, width subOffsets[sv+1]-subOffsets[sv]

	ids    []T
	vecs   [][]E
	codes  [][]uint32 // codes[i][sv] indexes codebooks[sv], up to 2^32 centroids per subspace
	metric vector.Metric
	built  bool
}

// New constructs an untrained PQ index. Subspace widths follow
// spec.md §3: the first D mod M subspaces are one element wider.
func New[E vector.Float, T vector.Id](dimension int, p idx.PQParams) *Index[E, T] {
	offsets := subspaceOffsets(dimension, p.NSub)
	return &Index[E, T]{
		Dim:        dimension,
		nSub:       p.NSub,
		subBits:    p.SubBits,
		trainEpoch: p.TrainEpoch,
		subOffsets: offsets,
	}
}

func subspaceOffsets(dimension, nSub int) []int {
	if nSub <= 0 {
		return nil
	}
	base := dimension / nSub
	extra := dimension % nSub
	offsets := make([]int, nSub+1)
	pos := 0
	for i := 0; i < nSub; i++ {
		width := base
		if i < extra {
			width++
		}
		offsets[i] = pos
		pos += width
	}
	offsets[nSub] = pos
	return offsets
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

// Build trains one codebook per subspace and encodes every stored
// vector. Idempotent: a second Build retrains from scratch over the
// currently stored vectors, matching the other non-BPT indexes.
func (ix *Index[E, T]) Build(m vector.Metric) error {
	ix.metric = m
	numCodes := 1 << uint(ix.subBits)

	ix.codebooks = make([][][]E, ix.nSub)
	for sv := 0; sv < ix.nSub; sv++ {
		km := kmeans.New[E](ix.Dim, numCodes, m)
		km.SetRange(ix.subOffsets[sv], ix.subOffsets[sv+1])
		km.Train(ix.vecs, ix.trainEpoch)
		ix.codebooks[sv] = km.Centers()
	}

	ix.codes = make([][]uint32, len(ix.vecs))
	for i, v := range ix.vecs {
		ix.codes[i] = ix.encode(v)
	}
	ix.built = true
	return nil
}

func (ix *Index[E, T]) Built() bool { return ix.built }

// encode assigns each subspace of v to its nearest centroid.
func (ix *Index[E, T]) encode(v []E) []uint32 {
	codes := make([]uint32, ix.nSub)
	for sv := 0; sv < ix.nSub; sv++ {
		sub := v[ix.subOffsets[sv]:ix.subOffsets[sv+1]]
		best, bestDist := 0, vector.MustDistance(sub, ix.codebooks[sv][0], ix.metric)
		for c := 1; c < len(ix.codebooks[sv]); c++ {
			d := vector.MustDistance(sub, ix.codebooks[sv][c], ix.metric)
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		codes[sv] = uint32(best)
	}
	return codes
}

// distanceTable precomputes, for each subspace, the distance from the
// query's sub-vector to every centroid in that subspace's codebook.
func (ix *Index[E, T]) distanceTable(query []E) [][]E {
	table := make([][]E, ix.nSub)
	for sv := 0; sv < ix.nSub; sv++ {
		sub := query[ix.subOffsets[sv]:ix.subOffsets[sv+1]]
		table[sv] = make([]E, len(ix.codebooks[sv]))
		for c, centroid := range ix.codebooks[sv] {
			table[sv][c] = vector.MustDistance(sub, centroid, ix.metric)
		}
	}
	return table
}

func (ix *Index[E, T]) SearchFull(query []E, k int) []vector.Neighbor[E, T] {
	if len(query) != ix.Dim {
		panic("pq: query dimension mismatch")
	}
	table := ix.distanceTable(query)
	h := heap.New[E, T](k)
	for i, codes := range ix.codes {
		var total E
		for sv, c := range codes {
			total += table[sv][c]
		}
		h.Push(ix.ids[i], total)
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

func (ix *Index[E, T]) Name() string   { return "PQIndex" }
func (ix *Index[E, T]) Dimension() int { return ix.Dim }
func (ix *Index[E, T]) NodesSize() int { return len(ix.ids) }

func (ix *Index[E, T]) Clear() {
	ix.ids = nil
	ix.vecs = nil
	ix.codes = nil
	ix.codebooks = nil
	ix.built = false
}

type dumpState[E vector.Float, T vector.Id] struct {
	Dim        int
	NSub       int
	SubBits    int
	TrainEpoch int
	SubOffsets []int
	Codebooks  [][][]E
	Ids        []T
	Vecs       [][]E
	Codes      [][]uint32
	Metric     vector.Metric
	Built      bool
}

func (ix *Index[E, T]) Dump(path string) error {
	s := dumpState[E, T]{
		Dim: ix.Dim, NSub: ix.nSub, SubBits: ix.subBits, TrainEpoch: ix.trainEpoch,
		SubOffsets: ix.subOffsets, Codebooks: ix.codebooks, Ids: ix.ids, Vecs: ix.vecs,
		Codes: ix.codes, Metric: ix.metric, Built: ix.built,
	}
	return vector.Dump(path, codecMagic, s)
}

func (ix *Index[E, T]) Load(path string) error {
	var s dumpState[E, T]
	if err := vector.Load(path, codecMagic, &s); err != nil {
		return err
	}
	ix.Dim, ix.nSub, ix.subBits, ix.trainEpoch = s.Dim, s.NSub, s.SubBits, s.TrainEpoch
	ix.subOffsets, ix.codebooks, ix.ids, ix.vecs = s.SubOffsets, s.Codebooks, s.Ids, s.Vecs
	ix.codes, ix.metric, ix.built = s.Codes, s.Metric, s.Built
	return nil
}

var (
	_ idx.Index[float32, int] = (*Index[float32, int])(nil)
	_ idx.Serializable        = (*Index[float32, int])(nil)
)

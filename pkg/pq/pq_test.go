package pq

import (
	"math/rand"
	"path/filepath"
	"testing"

	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

func randVec(rng *rand.Rand, d int) []float32 {
	v := make([]float32, d)
	for i := range v {
		v[i] = rng.Float32() * 100
	}
	return v
}

func TestSubspaceOffsetsCoverDimension(t *testing.T) {
	offsets := subspaceOffsets(10, 4)
	if offsets[0] != 0 || offsets[len(offsets)-1] != 10 {
		t.Fatalf("offsets don't span [0,10): %v", offsets)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] <= offsets[i-1] {
			t.Fatalf("offsets not strictly increasing: %v", offsets)
		}
	}
}

func TestPQRecallOnClusteredData(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	const dim = 8
	centers := make([][]float32, 5)
	for i := range centers {
		centers[i] = randVec(rng, dim)
	}
	vecs := make([][]float32, 500)
	for i := range vecs {
		c := centers[i%len(centers)]
		v := make([]float32, dim)
		for j := range v {
			v[j] = c[j] + rng.Float32()*2
		}
		vecs[i] = v
	}

	index := New[float32, int](dim, idx.PQParams{NSub: 4, SubBits: 4, TrainEpoch: 10})
	for i, v := range vecs {
		if err := index.AddNode(v, i); err != nil {
			t.Fatalf("add_node: %v", err)
		}
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}

	q := vecs[0]
	got := index.Search(q, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 results, got %d", len(got))
	}
	// vecs[i] belongs to cluster i%len(centers); the query is in cluster 0.
	hits := 0
	for _, id := range got {
		if id%len(centers) == 0 {
			hits++
		}
	}
	if hits < 4 {
		t.Fatalf("recall too low: %d/5 results from the query's cluster", hits)
	}
}

func TestPQUniqueAssignmentWithOneSubspace(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const dim = 4
	vecs := make([][]float32, 8)
	for i := range vecs {
		vecs[i] = randVec(rng, dim)
	}
	// n_sub == 1, sub_bits large enough for 8 unique codes (2^4 = 16 >= 8).
	index := New[float32, int](dim, idx.PQParams{NSub: 1, SubBits: 4, TrainEpoch: 25})
	for i, v := range vecs {
		if err := index.AddNode(v, i); err != nil {
			t.Fatalf("add_node: %v", err)
		}
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}

	seen := map[uint32]bool{}
	for _, codes := range index.codes {
		seen[codes[0]] = true
	}
	if len(seen) != len(vecs) {
		t.Fatalf("expected every vector to get a distinct code, got %d/%d distinct", len(seen), len(vecs))
	}
}

func TestPQEncodeAddressesCentroidsBeyondOneByte(t *testing.T) {
	const dim = 2
	index := New[float32, int](dim, idx.PQParams{NSub: 1, SubBits: 9, TrainEpoch: 1})
	index.metric = vector.Euclidean

	// Build a single-subspace codebook with 300 centroids so the nearest
	// one to the query sits past byte range (SubBits=9 allows up to 512).
	const numCentroids = 300
	codebook := make([][]float32, numCentroids)
	for i := range codebook {
		codebook[i] = []float32{float32(i), float32(i)}
	}
	index.codebooks = [][][]float32{codebook}

	target := 290
	query := []float32{float32(target), float32(target)}
	codes := index.encode(query)
	if codes[0] != uint32(target) {
		t.Fatalf("expected code %d, got %d (byte-width encoding would wrap to %d)", target, codes[0], codes[0]%256)
	}
}

func TestPQDumpLoadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	const dim = 6
	vecs := make([][]float32, 100)
	for i := range vecs {
		vecs[i] = randVec(rng, dim)
	}
	index := New[float32, int](dim, idx.PQParams{NSub: 3, SubBits: 4, TrainEpoch: 8})
	for i, v := range vecs {
		if err := index.AddNode(v, i); err != nil {
			t.Fatalf("add_node: %v", err)
		}
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pq.dump")
	if err := index.Dump(path); err != nil {
		t.Fatalf("dump: %v", err)
	}
	loaded := New[float32, int](dim, idx.PQParams{})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 10; i++ {
		q := randVec(rng, dim)
		a := index.Search(q, 5)
		b := loaded.Search(q, 5)
		if len(a) != len(b) {
			t.Fatalf("result length mismatch")
		}
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("result %d mismatch: %v vs %v", j, a, b)
			}
		}
	}
}

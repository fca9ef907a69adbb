package hnsw

import (
	"math"
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

func defaultParams(maxItem int) idx.HNSWParams {
	return idx.HNSWParams{
		MaxItem: maxItem, NNeighbor: 16, NNeighbor0: 32, MaxLevel: 4,
		EfBuild: 100, EfSearch: 50,
	}
}

func TestHNSWIdentitySearch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const dim, n = 8, 100
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = randVec(rng, dim)
	}
	index := New[float32, int](dim, defaultParams(n))
	for i, v := range vecs {
		if err := index.AddNode(v, i); err != nil {
			t.Fatalf("add_node: %v", err)
		}
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, v := range vecs {
		got := index.Search(v, 1)
		if len(got) != 1 || got[0] != i {
			t.Fatalf("search(v_%d,1) = %v, want [%d]", i, got, i)
		}
	}
}

func TestHNSWRecallOnClusteredData(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const dim, nClusters, perCluster = 10, 20, 10
	var vecs [][]float32
	var clusterOf []int
	for c := 0; c < nClusters; c++ {
		center := randVec(rng, dim)
		for p := 0; p < perCluster; p++ {
			v := make([]float32, dim)
			for d := 0; d < dim; d++ {
				v[d] = center[d] + rng.Float32()*2
			}
			vecs = append(vecs, v)
			clusterOf = append(clusterOf, c)
		}
	}

	index := New[float32, int](dim, defaultParams(len(vecs)))
	for i, v := range vecs {
		if err := index.AddNode(v, i); err != nil {
			t.Fatalf("add_node: %v", err)
		}
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, total := 0, 0
	for i, v := range vecs {
		got := index.Search(v, 10)
		for _, id := range got {
			total++
			if clusterOf[id] == clusterOf[i] {
				hits++
			}
		}
	}
	recall := float64(hits) / float64(total)
	if recall < 0.6 {
		t.Fatalf("recall too low: %f", recall)
	}
}

func TestHNSWSearchDimensionAssert(t *testing.T) {
	index := New[float32, int](10, defaultParams(10))
	for i := 0; i < 10; i++ {
		_ = index.AddNode(make([]float32, 10), i)
	}
	_ = index.Build(vector.Euclidean)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on dimension mismatch")
		}
	}()
	index.Search(make([]float32, 11), 5)
}

func TestHNSWKGreaterThanNodesSize(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const dim, n = 5, 20
	index := New[float32, int](dim, defaultParams(n))
	for i := 0; i < n; i++ {
		_ = index.AddNode(randVec(rng, dim), i)
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}
	got := index.Search(randVec(rng, dim), n+50)
	if len(got) != n {
		t.Fatalf("expected %d results, got %d", n, len(got))
	}
}

func TestHNSWTombstoneDeletion(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	const dim, n = 6, 200
	index := New[float32, int](dim, idx.HNSWParams{
		MaxItem: n, NNeighbor: 16, NNeighbor0: 32, MaxLevel: 4,
		EfBuild: 100, EfSearch: 50, HasDeletion: true,
	})
	for i := 0; i < n; i++ {
		_ = index.AddNode(randVec(rng, dim), i)
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}

	deleted := make(map[int]bool)
	perm := rng.Perm(n)
	for _, id := range perm[:n/2] {
		if err := index.Delete(id); err != nil {
			t.Fatalf("delete(%d): %v", id, err)
		}
		deleted[id] = true
	}

	for i := 0; i < 20; i++ {
		got := index.Search(randVec(rng, dim), 10)
		for _, id := range got {
			if deleted[id] {
				t.Fatalf("search returned deleted id %d", id)
			}
		}
	}
}

func TestHNSWTombstoneAllDeletedYieldsEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const dim, n = 4, 30
	index := New[float32, int](dim, idx.HNSWParams{
		MaxItem: n, NNeighbor: 8, NNeighbor0: 16, MaxLevel: 3,
		EfBuild: 50, EfSearch: 20, HasDeletion: true,
	})
	for i := 0; i < n; i++ {
		_ = index.AddNode(randVec(rng, dim), i)
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < n; i++ {
		if err := index.Delete(i); err != nil {
			t.Fatalf("delete(%d): %v", i, err)
		}
	}
	got := index.Search(randVec(rng, dim), 10)
	if len(got) != 0 {
		t.Fatalf("expected empty result after deleting all ids, got %v", got)
	}
}

func TestHNSWDumpLoadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	const dim, n = 8, 150
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = randVec(rng, dim)
	}
	index := New[float32, int](dim, defaultParams(n))
	for i, v := range vecs {
		_ = index.AddNode(v, i)
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "hnsw.dump")
	if err := index.Dump(path); err != nil {
		t.Fatalf("dump: %v", err)
	}
	loaded := New[float32, int](dim, idx.HNSWParams{})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 100; i++ {
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

func TestHNSWAddBatchLengthMismatch(t *testing.T) {
	index := New[float32, int](4, defaultParams(10))
	err := index.AddBatch([][]float32{{1, 2, 3, 4}}, []int{1, 2})
	if err == nil {
		t.Fatalf("expected error on length mismatch")
	}
}

func TestHNSWRejectsInvalidVector(t *testing.T) {
	index := New[float32, int](3, defaultParams(10))
	if err := index.AddNode([]float32{1, float32(math.NaN()), 3}, 1); err == nil {
		t.Fatalf("expected error on NaN element")
	}
}

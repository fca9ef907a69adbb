package ssg

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

func defaultParams() idx.SSGParams {
	return idx.SSGParams{
		AngleDegrees: 60, InitK: 20, IndexSize: 30, NeighborNeighborSize: 100, RootSize: 10,
	}
}

func TestSSGIdentitySearch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const dim, n = 8, 100
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = randVec(rng, dim)
	}
	index := New[float32, int](dim, defaultParams())
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

func TestSSGRecallOnClusteredData(t *testing.T) {
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

	index := New[float32, int](dim, defaultParams())
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

func TestSSGSearchDimensionAssert(t *testing.T) {
	index := New[float32, int](10, defaultParams())
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10; i++ {
		_ = index.AddNode(randVec(rng, 10), i)
	}
	_ = index.Build(vector.Euclidean)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on dimension mismatch")
		}
	}()
	index.Search(make([]float32, 11), 5)
}

func TestSSGKGreaterThanNodesSize(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const dim, n = 5, 20
	index := New[float32, int](dim, defaultParams())
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

func TestSSGDumpLoadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	const dim, n = 8, 150
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = randVec(rng, dim)
	}
	index := New[float32, int](dim, defaultParams())
	for i, v := range vecs {
		_ = index.AddNode(v, i)
	}
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ssg.dump")
	if err := index.Dump(path); err != nil {
		t.Fatalf("dump: %v", err)
	}
	loaded := New[float32, int](dim, idx.SSGParams{})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 50; i++ {
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

func TestSSGAddBatchLengthMismatch(t *testing.T) {
	index := New[float32, int](4, defaultParams())
	err := index.AddBatch([][]float32{{1, 2, 3, 4}}, []int{1, 2})
	if err == nil {
		t.Fatalf("expected error on length mismatch")
	}
}

func TestSSGRejectsInvalidVector(t *testing.T) {
	index := New[float32, int](3, defaultParams())
	if err := index.AddNode([]float32{1, float32(math.NaN()), 3}, 1); err == nil {
		t.Fatalf("expected error on NaN element")
	}
}

func TestSSGEmptyIndexBuildAndSearch(t *testing.T) {
	index := New[float32, int](4, defaultParams())
	if err := index.Build(vector.Euclidean); err != nil {
		t.Fatalf("build on empty index: %v", err)
	}
	got := index.Search([]float32{1, 2, 3, 4}, 5)
	if len(got) != 0 {
		t.Fatalf("expected empty result on empty index, got %v", got)
	}
}

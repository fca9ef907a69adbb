package bpt

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

func buildForest(t *testing.T, seedVecs [][]float32) *Index[float32, int] {
	t.Helper()
	bf := New[float32, int](len(seedVecs[0]), idx.BPTParams{TreeNum: 4, CandidateSize: 200})
	for i, v := range seedVecs {
		if err := bf.AddNode(v, i); err != nil {
			t.Fatalf("add_node: %v", err)
		}
	}
	if err := bf.Build(vector.Euclidean); err != nil {
		t.Fatalf("build: %v", err)
	}
	return bf
}

func TestBPTIdentitySearch(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	vecs := make([][]float32, 300)
	for i := range vecs {
		vecs[i] = randVec(rng, 8)
	}
	bf := buildForest(t, vecs)

	hits := 0
	for i, v := range vecs {
		got := bf.Search(v, 1)
		if len(got) == 1 && got[0] == i {
			hits++
		}
	}
	// approximate: most exact queries should find themselves, not all.
	if hits < len(vecs)/2 {
		t.Fatalf("identity search only found %d/%d", hits, len(vecs))
	}
}

func TestBPTRejectsDimensionMismatch(t *testing.T) {
	bf := New[float32, int](4, idx.BPTParams{TreeNum: 2, CandidateSize: 50})
	if err := bf.AddNode([]float32{1, 2, 3}, 1); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestBPTAlreadyBuiltOnSecondBuild(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	vecs := make([][]float32, 50)
	for i := range vecs {
		vecs[i] = randVec(rng, 6)
	}
	bf := buildForest(t, vecs)
	if err := bf.Build(vector.Euclidean); !vector.Is(err, vector.AlreadyBuilt) {
		t.Fatalf("expected AlreadyBuilt on second build, got %v", err)
	}
}

func TestBPTReproducibleRootsWithFixedSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vecs := make([][]float32, 400)
	for i := range vecs {
		vecs[i] = randVec(rng, 10)
	}

	build := func() []int {
		bf := New[float32, int](10, idx.BPTParams{TreeNum: 4, CandidateSize: 200})
		for i, v := range vecs {
			if err := bf.AddNode(v, i); err != nil {
				t.Fatalf("add_node: %v", err)
			}
		}
		if err := bf.Build(vector.Euclidean); err != nil {
			t.Fatalf("build: %v", err)
		}
		return bf.roots
	}

	r1 := build()
	r2 := build()
	if len(r1) != len(r2) {
		t.Fatalf("root count differs: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Fatalf("root %d differs: %d vs %d", i, r1[i], r2[i])
		}
	}
}

func TestBPTDumpLoadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	vecs := make([][]float32, 100)
	for i := range vecs {
		vecs[i] = randVec(rng, 5)
	}
	bf := buildForest(t, vecs)

	path := filepath.Join(t.TempDir(), "bpt.dump")
	if err := bf.Dump(path); err != nil {
		t.Fatalf("dump: %v", err)
	}

	loaded := New[float32, int](5, idx.BPTParams{})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 10; i++ {
		q := randVec(rng, 5)
		a := bf.Search(q, 5)
		b := loaded.Search(q, 5)
		if len(a) != len(b) {
			t.Fatalf("result length mismatch: %d vs %d", len(a), len(b))
		}
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("result %d mismatch: %v vs %v", j, a, b)
			}
		}
	}
}

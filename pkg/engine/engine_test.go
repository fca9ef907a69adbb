package engine

import (
	"math/rand"
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

func testParams() Params {
	return Params{
		Algorithm: "hnsw",
		Metric:    vector.Euclidean,
		HNSW:      idx.DefaultHNSWParams(1000),
	}
}

func TestEngineInsertAndSearch(t *testing.T) {
	e := New(testParams(), nil, nil)
	rng := rand.New(rand.NewSource(1))
	const dim, n = 6, 50
	vecs := make([][]float32, n)
	for i := 0; i < n; i++ {
		vecs[i] = randVec(rng, dim)
		id := "v" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		if err := e.Insert("default", id, vecs[i], map[string]string{"idx": id}, ""); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	results, err := e.Search("default", vecs[0], 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestEngineSearchUnknownNamespace(t *testing.T) {
	e := New(testParams(), nil, nil)
	if _, err := e.Search("missing", []float32{1, 2, 3}, 5); err == nil {
		t.Fatalf("expected error for unknown namespace")
	}
}

func TestEngineDeleteRemovesFromResults(t *testing.T) {
	e := New(testParams(), nil, nil)
	rng := rand.New(rand.NewSource(2))
	const dim, n = 5, 30
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = "id" + string(rune('a'+i))
		if err := e.Insert("ns", ids[i], randVec(rng, dim), nil, ""); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	deleted, err := e.Delete("ns", ids[0])
	if err != nil || !deleted {
		t.Fatalf("delete: %v, %v", deleted, err)
	}

	results, err := e.Search("ns", randVec(rng, dim), n)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.ID == ids[0] {
			t.Fatalf("deleted id %s still present in results", ids[0])
		}
	}
}

func TestEngineUpdateChangesMetadata(t *testing.T) {
	e := New(testParams(), nil, nil)
	rng := rand.New(rand.NewSource(3))
	v := randVec(rng, 4)
	if err := e.Insert("ns", "id1", v, map[string]string{"a": "1"}, "orig"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	newText := "updated"
	if err := e.Update("ns", "id1", nil, map[string]string{"a": "2"}, &newText); err != nil {
		t.Fatalf("update: %v", err)
	}

	results, err := e.Search("ns", v, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Text != "updated" || results[0].Metadata["a"] != "2" {
		t.Fatalf("update not reflected in search result: %+v", results)
	}
}

func TestEngineStats(t *testing.T) {
	e := New(testParams(), nil, nil)
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 10; i++ {
		_ = e.Insert("ns1", "id"+string(rune('a'+i)), randVec(rng, 4), nil, "")
	}
	stats := e.Stats("")
	if stats.TotalNamespaces != 1 {
		t.Fatalf("expected 1 namespace, got %d", stats.TotalNamespaces)
	}
	if stats.Namespaces["ns1"].VectorCount != 10 {
		t.Fatalf("expected 10 vectors, got %d", stats.Namespaces["ns1"].VectorCount)
	}
}

func TestEngineSearchDimensionMismatch(t *testing.T) {
	e := New(testParams(), nil, nil)
	rng := rand.New(rand.NewSource(5))
	_ = e.Insert("ns", "id1", randVec(rng, 8), nil, "")
	if _, err := e.Search("ns", randVec(rng, 5), 1); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

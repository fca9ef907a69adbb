package heap

import (
	"math/rand"
	"sort"
	"testing"
)

func TestBoundedTopKKeepsClosest(t *testing.T) {
	rand.Seed(1)
	const n, k = 200, 10
	dists := make([]float32, n)
	for i := range dists {
		dists[i] = rand.Float32() * 1000
	}

	h := New[float32, int](k)
	for i, d := range dists {
		h.Push(i, d)
	}
	if h.Len() != k {
		t.Fatalf("expected %d entries, got %d", k, h.Len())
	}

	sorted := append([]float32(nil), dists...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	want := sorted[:k]

	got := h.IntoSortedAscending()
	if len(got) != k {
		t.Fatalf("expected %d results, got %d", k, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Fatalf("results not ascending at %d: %v", i, got)
		}
	}
	for i, n := range got {
		if n.Distance != want[i] {
			t.Fatalf("result %d: got distance %v, want %v", i, n.Distance, want[i])
		}
	}
}

func TestBoundedTopKFewerThanK(t *testing.T) {
	h := New[float32, string](5)
	h.Push("a", 1.0)
	h.Push("b", 2.0)
	got := h.IntoSortedAscending()
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

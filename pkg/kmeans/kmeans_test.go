package kmeans

import (
	"math/rand"
	"testing"

	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

func gaussianClusters(nClusters, perCluster, dim int, spread float64) [][]float32 {
	rng := rand.New(rand.NewSource(42))
	out := make([][]float32, 0, nClusters*perCluster)
	for c := 0; c < nClusters; c++ {
		base := make([]float32, dim)
		for d := range base {
			base[d] = float32(rng.Float64() * spread)
		}
		for i := 0; i < perCluster; i++ {
			v := make([]float32, dim)
			for d := range v {
				v[d] = base[d] + float32(rng.NormFloat64())
			}
			out = append(out, v)
		}
	}
	return out
}

func TestKmeansTrainConverges(t *testing.T) {
	data := gaussianClusters(4, 25, 4, 1000)
	km := New[float32](4, 4, vector.Euclidean)
	km.Train(data, 10)

	if len(km.Centers()) != 4 {
		t.Fatalf("expected 4 centers, got %d", len(km.Centers()))
	}
	assigned := km.SearchData(data)
	counts := make([]int, 4)
	for _, c := range assigned {
		counts[c]++
	}
	for i, c := range counts {
		if c == 0 {
			t.Errorf("center %d got no assignments", i)
		}
	}
}

func TestGeneralKmeansReturnsRealPoints(t *testing.T) {
	data := gaussianClusters(3, 20, 3, 5000)
	nodes := make([]vector.Node[float32, int], len(data))
	for i, v := range data {
		nodes[i] = vector.NewNode(v, i)
	}

	seeds := General(3, 20, nodes, vector.Euclidean)
	if len(seeds) != 3 {
		t.Fatalf("expected 3 seeds, got %d", len(seeds))
	}
	for _, idx := range seeds {
		if idx < 0 || idx >= len(nodes) {
			t.Fatalf("seed index %d out of range", idx)
		}
	}
}

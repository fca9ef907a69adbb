package kmeans

import (
	"math/rand"
	"sync"

	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// General runs epoch rounds of uniform-seeded, parallel-assignment
// k-means with k means over nodes and returns, for each of the k
// converged means, the index
// of the *closest original data point* (not the centroid itself) —
// SSG's entry-point seed selection. spec.md §4.C, "Complementary routine".
func General[E vector.Float, T vector.Id](k, epoch int, nodes []vector.Node[E, T], m vector.Metric) []int {
	if len(nodes) == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(1))
	dimension := len(nodes[0].Vec)

	means := make([][]E, k)
	for i := range means {
		src := nodes[rng.Intn(len(nodes))].Vec
		means[i] = append([]E(nil), src...)
	}

	for e := 0; e < epoch; e++ {
		counts := make([]int, k)
		features := make([][]E, k)
		for i := range features {
			features[i] = make([]E, dimension)
		}
		var mu sync.Mutex

		vector.ParallelFor(len(nodes), func(j int) {
			node := nodes[j]
			best := 0
			bestDist := vector.MustDistance(node.Vec, means[0], m)
			for i := 1; i < k; i++ {
				d := vector.MustDistance(node.Vec, means[i], m)
				if d < bestDist {
					best, bestDist = i, d
				}
			}
			mu.Lock()
			counts[best]++
			for d := 0; d < dimension; d++ {
				features[best][d] += node.Vec[d]
			}
			mu.Unlock()
		})

		for i := 0; i < k; i++ {
			if counts[i] == 0 {
				continue
			}
			n := E(counts[i])
			for d := 0; d < dimension; d++ {
				features[i][d] /= n
			}
			means[i] = features[i]
		}
	}

	seeds := make([]int, k)
	for i, mean := range means {
		bestIdx := 0
		bestDist := vector.MustDistance(nodes[0].Vec, mean, m)
		for j := 1; j < len(nodes); j++ {
			d := vector.MustDistance(nodes[j].Vec, mean, m)
			if d < bestDist {
				bestIdx, bestDist = j, d
			}
		}
		seeds[i] = bestIdx
	}
	return seeds
}

package bpt

import (
	"math/rand"

	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

const twoMeansIterationSteps = 200

// twoMeans runs the randomized two-means pass create_split uses to
// pick a splitting hyperplane: two running means are nudged toward
// whichever random sample they're currently closer to, weighted by
// how many samples have already been folded into each. Under
// CosineSimilarity the running means are renormalized every step.
// Grounded on original_source/src/index/bpt_idx.rs's two_means().
func twoMeans[E vector.Float, T vector.Id](rng *rand.Rand, leaves []leaf[E, T], m vector.Metric) (leaf[E, T], leaf[E, T], bool) {
	if len(leaves) < 2 {
		return leaf[E, T]{}, leaf[E, T]{}, false
	}
	count := len(leaves)
	i := randIndex(rng, count)
	j := randIndex(rng, count-1)
	if j >= i {
		j++
	}

	first := leaf[E, T]{nDescendants: leaves[i].nDescendants, node: leaves[i].node.Clone()}
	second := leaf[E, T]{nDescendants: leaves[j].nDescendants, node: leaves[j].node.Clone()}
	if m == vector.CosineSimilarity {
		first = first.normalized()
		second = second.normalized()
	}

	var ic, jc E = 1, 1
	for z := 0; z < twoMeansIterationSteps; z++ {
		rk := randIndex(rng, count)
		sample := leaves[rk].node.Vec

		di := ic * vector.MustDistance(first.node.Vec, sample, m)
		dj := jc * vector.MustDistance(second.node.Vec, sample, m)

		var norm E = 1
		if m == vector.CosineSimilarity {
			norm = vector.Norm(sample)
			if norm <= 0 {
				continue
			}
		}

		if di < dj {
			for l := range first.node.Vec {
				first.node.Vec[l] = (first.node.Vec[l]*ic + sample[l]/norm) / (ic + 1)
			}
			ic++
		} else if dj < di {
			for l := range second.node.Vec {
				second.node.Vec[l] = (second.node.Vec[l]*jc + sample[l]/norm) / (jc + 1)
			}
			jc++
		}
	}
	return first, second, true
}

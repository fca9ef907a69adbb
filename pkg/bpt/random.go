package bpt

import "math/rand"

// randIndex returns a uniform index in [0, n). Grounded on
// original_source/src/core/random.rs's index()/flip() helpers.
func randIndex(rng *rand.Rand, n int) int {
	if n <= 0 {
		return 0
	}
	return rng.Intn(n)
}

func randFlip(rng *rand.Rand) int {
	return rng.Intn(2)
}

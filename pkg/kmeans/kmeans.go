// Package kmeans implements the Lloyd-style clustering engine shared
// by PQ, IVF-PQ and SSG's seed selection: a split-empty-cluster rescue
// rule keeps every center populated across epochs. See spec.md §4.C.
package kmeans

import (
	"math/rand"

	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// splitEps is the perturbation factor used when rescuing an empty
// cluster by splitting a populated donor. spec.md §4.C: epsilon = 1/1024.
const splitEps = 1.0 / 1024.0

// Kmeans trains nCenter centroids over dimension-d vectors, optionally
// restricted to a coordinate range and/or computed against a residual
// (IVF-PQ's per-bucket PQ trains on v - c_bucket).
type Kmeans[E vector.Float] struct {
	dimension   int
	nCenter     int
	centers     [][]E
	rangeBegin  int
	rangeEnd    int
	hasResidual bool
	residual    []E
	metric      vector.Metric
	rng         *rand.Rand
}

// New creates a trainer for nCenter centers of width dimension (the
// full range [0, dimension) by default; call SetRange to narrow it).
func New[E vector.Float](dimension, nCenter int, m vector.Metric) *Kmeans[E] {
	return &Kmeans[E]{
		dimension:  dimension,
		nCenter:    nCenter,
		rangeBegin: 0,
		rangeEnd:   dimension,
		metric:     m,
		rng:        rand.New(rand.NewSource(1)),
	}
}

// SetRange restricts training to the coordinate window [begin,end),
// used by PQ to train one Kmeans per sub-vector slice.
func (k *Kmeans[E]) SetRange(begin, end int) {
	k.rangeBegin, k.rangeEnd = begin, end
}

// SetResidual configures training against data - residual. IVF-PQ
// does not use it; it computes bucket residuals before training PQ.
func (k *Kmeans[E]) SetResidual(residual []E) {
	k.hasResidual = true
	k.residual = residual
}

// Centers returns the trained centroids, each of width rangeEnd-rangeBegin.
func (k *Kmeans[E]) Centers() [][]E { return k.centers }

func (k *Kmeans[E]) distanceFromVec(x, y []E) E {
	width := k.rangeEnd - k.rangeBegin
	z := make([]E, width)
	copy(z, x[k.rangeBegin:k.rangeEnd])
	if k.hasResidual {
		for i := range z {
			z[i] -= k.residual[i+k.rangeBegin]
		}
	}
	return vector.MustDistance(z, y, k.metric)
}

// initCenter seeds nCenter centers from the mean of batchData over the
// configured range, nudged by ±1 per coordinate based on the low bits
// of the center index. spec.md §4.C step 1.
func (k *Kmeans[E]) initCenter(batchData [][]E) {
	width := k.rangeEnd - k.rangeBegin
	mean := make([]E, width)
	for _, v := range batchData {
		for j := 0; j < width; j++ {
			val := v[k.rangeBegin+j]
			if k.hasResidual {
				val -= k.residual[k.rangeBegin+j]
			}
			mean[j] += val
		}
	}
	n := E(len(batchData))
	for i := range mean {
		mean[i] /= n
	}

	centers := make([][]E, k.nCenter)
	for i := 0; i < k.nCenter; i++ {
		c := make([]E, width)
		for j := 0; j < width; j++ {
			val := mean[j]
			if i&(1<<uint(j)) != 0 {
				val += 1
			} else {
				val -= 1
			}
			c[j] = val
		}
		centers[i] = c
	}
	k.centers = centers
}

// searchData assigns each point in batchData to its nearest center.
func (k *Kmeans[E]) searchData(batchData [][]E) []int {
	assigned := make([]int, len(batchData))
	for i, v := range batchData {
		best := 0
		bestDist := k.distanceFromVec(v, k.centers[0])
		for c := 1; c < k.nCenter; c++ {
			d := k.distanceFromVec(v, k.centers[c])
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		assigned[i] = best
	}
	return assigned
}

// SearchData exposes assign-only inference (no retraining), per
// spec.md §4.C's "search_data (assign only)".
func (k *Kmeans[E]) SearchData(batchData [][]E) []int {
	return k.searchData(batchData)
}

// updateCenter recomputes each center as the mean of its assigned
// points and returns the per-center population.
func (k *Kmeans[E]) updateCenter(batchData [][]E, assigned []int) []int {
	width := k.rangeEnd - k.rangeBegin
	newCenters := make([][]E, k.nCenter)
	for i := range newCenters {
		newCenters[i] = make([]E, width)
	}
	counts := make([]int, k.nCenter)
	for i, v := range batchData {
		c := assigned[i]
		counts[c]++
		for j := 0; j < width; j++ {
			val := v[k.rangeBegin+j]
			if k.hasResidual {
				val -= k.residual[k.rangeBegin+j]
			}
			newCenters[c][j] += val
		}
	}
	for c := 0; c < k.nCenter; c++ {
		if counts[c] == 0 {
			continue
		}
		n := E(counts[c])
		for j := range newCenters[c] {
			newCenters[c][j] /= n
		}
	}
	k.centers = newCenters
	return counts
}

// splitCenter rescues empty clusters: for each empty center, pick a
// donor via population-weighted random selection, then split it in
// two (even coordinates shrink by eps, odd grow, and symmetrically for
// the donor), transferring half its recorded count. spec.md §4.C step 3.
func (k *Kmeans[E]) splitCenter(batchSize int, counts []int) error {
	if batchSize == 0 {
		return vector.New(vector.ParameterOutOfRange, "empty batch: cannot split center")
	}
	for i := 0; i < k.nCenter; i++ {
		if counts[i] != 0 {
			continue
		}
		donor := (i + 1) % k.nCenter
		for {
			pickPercent := float64(counts[donor]) / float64(batchSize)
			if k.rng.Float64() < pickPercent {
				break
			}
			donor = (donor + 1) % k.nCenter
		}
		for j := range k.centers[i] {
			if j%2 == 0 {
				k.centers[i][j] = k.centers[donor][j] * E(1-splitEps)
				k.centers[donor][j] *= E(1 + splitEps)
			} else {
				k.centers[i][j] = k.centers[donor][j] * E(1+splitEps)
				k.centers[donor][j] *= E(1 - splitEps)
			}
		}
		counts[i] = counts[donor] / 2
		counts[donor] -= counts[i]
	}
	return nil
}

// Train runs nEpoch rounds of assign/update, rescuing empty clusters
// after every epoch but the last. spec.md §4.C step 2.
func (k *Kmeans[E]) Train(batchData [][]E, nEpoch int) {
	k.initCenter(batchData)
	for epoch := 0; epoch < nEpoch; epoch++ {
		assigned := k.searchData(batchData)
		counts := k.updateCenter(batchData, assigned)
		if epoch < nEpoch-1 {
			_ = k.splitCenter(len(batchData), counts)
		}
	}
}

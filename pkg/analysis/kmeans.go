// Package analysis holds the batch computations run over a snapshot of the
// embedding population: k-means partitioning and isolation scoring.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	ErrEmptyInput = errors.New("analysis: no vectors")
	ErrInvalidK   = errors.New("analysis: k must be positive")
)

// Clustering is the outcome of one k-means run. Assignments[i] is the cluster
// of input vector i, always in [0, k).
type Clustering struct {
	Assignments []int
	Sizes       []int
	Centroids   [][]float64
	Iterations  int
	Inertia     float64
}

// EmptyClusters lists the cluster numbers that ended with no members.
func (c *Clustering) EmptyClusters() []int {
	var out []int
	for i, n := range c.Sizes {
		if n == 0 {
			out = append(out, i)
		}
	}
	return out
}

// NewRand returns the generator used by the analyzers for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xda942042e4dd58b5))
}

// KMeans partitions vectors into k clusters. Vectors are L2-normalized first,
// so squared Euclidean distance orders points the same way cosine distance
// does. Seeding is k-means++. The result depends only on the input and rng.
func KMeans(ctx context.Context, vectors [][]float32, k, maxIter int, rng *rand.Rand) (*Clustering, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyInput
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if maxIter <= 0 {
		maxIter = 100
	}

	points := make([][]float64, len(vectors))
	for i, v := range vectors {
		points[i] = unit(v)
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("analysis: vector %d has %d dims, expected %d", i, len(p), dim)
		}
	}

	centroids := seedPlusPlus(points, k, rng)
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	result := &Clustering{Assignments: assign, Centroids: centroids}
	for iter := 1; iter <= maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Iterations = iter

		changed := 0
		result.Inertia = 0
		for i, p := range points {
			best, bestDist := nearest(p, centroids)
			if assign[i] != best {
				assign[i] = best
				changed++
			}
			result.Inertia += bestDist
		}
		if changed == 0 {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for d, x := range p {
				sums[c][d] += x
			}
		}
		for c := range centroids {
			// An empty cluster keeps its previous centroid.
			if counts[c] == 0 {
				continue
			}
			for d := range sums[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	result.Sizes = make([]int, k)
	for _, c := range assign {
		result.Sizes[c]++
	}
	return result, nil
}

func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.IntN(len(points))]
	centroids = append(centroids, clone(first))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, first)
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}

		var pick int
		if total == 0 {
			// Every point coincides with a centroid already.
			pick = rng.IntN(len(points))
		} else {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 {
					pick = i
					break
				}
				pick = i
			}
		}

		c := clone(points[pick])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func unit(v []float32) []float64 {
	out := make([]float64, len(v))
	var ss float64
	for i, x := range v {
		out[i] = float64(x)
		ss += out[i] * out[i]
	}
	if ss == 0 {
		return out
	}
	inv := 1 / math.Sqrt(ss)
	for i := range out {
		out[i] *= inv
	}
	return out
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

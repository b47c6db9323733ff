package analysis

import (
	"context"
	"math/rand/v2"
)

// DefaultIsolationNeighbors is how many random peers each sampled vector is
// compared against.
const DefaultIsolationNeighbors = 10

// IsolationScores returns, for each vector, its mean cosine distance to
// neighbors randomly chosen other vectors from the same set. Higher means
// more isolated. Scores are returned in input order.
func IsolationScores(ctx context.Context, vectors [][]float32, neighbors int, rng *rand.Rand) ([]float64, error) {
	n := len(vectors)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if neighbors <= 0 {
		neighbors = DefaultIsolationNeighbors
	}
	neighbors = min(neighbors, n-1)

	points := make([][]float64, n)
	for i, v := range vectors {
		points[i] = unit(v)
	}

	scores := make([]float64, n)
	if neighbors == 0 {
		return scores, nil
	}

	picked := make(map[int]struct{}, neighbors)
	for i := range points {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		clear(picked)
		var total float64
		for len(picked) < neighbors {
			j := rng.IntN(n)
			if j == i {
				continue
			}
			if _, dup := picked[j]; dup {
				continue
			}
			picked[j] = struct{}{}
			total += cosineDistance(points[i], points[j])
		}
		scores[i] = total / float64(neighbors)
	}
	return scores, nil
}

// cosineDistance of two unit vectors. A zero vector is at distance 1.
func cosineDistance(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return 1 - dot
}

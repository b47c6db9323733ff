package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns perPoint points around each of the given directions.
func blobs(directions [][]float32, perBlob int, seed uint64) [][]float32 {
	rng := NewRand(seed)
	var out [][]float32
	for _, d := range directions {
		for range perBlob {
			v := make([]float32, len(d))
			for i := range d {
				v[i] = d[i] + float32(rng.NormFloat64()*0.05)
			}
			out = append(out, v)
		}
	}
	return out
}

var axes = [][]float32{
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
}

func TestKMeansPartition(t *testing.T) {
	vectors := blobs(axes, 40, 1)

	res, err := KMeans(context.Background(), vectors, 3, 50, NewRand(7))
	require.NoError(t, err)
	require.Len(t, res.Assignments, len(vectors))

	total := 0
	for _, n := range res.Sizes {
		total += n
	}
	assert.Equal(t, len(vectors), total)
	for _, c := range res.Assignments {
		assert.GreaterOrEqual(t, c, 0)
		assert.Less(t, c, 3)
	}

	// Points from the same blob end up together.
	for b := range axes {
		first := res.Assignments[b*40]
		for i := 1; i < 40; i++ {
			assert.Equal(t, first, res.Assignments[b*40+i], "blob %d point %d", b, i)
		}
	}
	assert.Empty(t, res.EmptyClusters())
}

func TestKMeansDeterministicForSeed(t *testing.T) {
	vectors := blobs(axes, 30, 2)

	a, err := KMeans(context.Background(), vectors, 4, 50, NewRand(11))
	require.NoError(t, err)
	b, err := KMeans(context.Background(), vectors, 4, 50, NewRand(11))
	require.NoError(t, err)

	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Sizes, b.Sizes)
}

func TestKMeansMoreClustersThanDistinctPoints(t *testing.T) {
	vectors := [][]float32{{1, 0}, {1, 0}, {1, 0}}

	res, err := KMeans(context.Background(), vectors, 3, 10, NewRand(1))
	require.NoError(t, err)

	assert.Len(t, res.Sizes, 3)
	assert.NotEmpty(t, res.EmptyClusters())
	for _, c := range res.Assignments {
		assert.Less(t, c, 3)
	}
}

func TestKMeansErrors(t *testing.T) {
	_, err := KMeans(context.Background(), nil, 3, 10, NewRand(1))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = KMeans(context.Background(), [][]float32{{1}}, 0, 10, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = KMeans(ctx, blobs(axes, 5, 1), 2, 10, NewRand(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsolationScores(t *testing.T) {
	vectors := blobs(axes[:1], 50, 3)
	vectors = append(vectors, []float32{0, 0, 0, 1})
	odd := len(vectors) - 1

	scores, err := IsolationScores(context.Background(), vectors, 10, NewRand(5))
	require.NoError(t, err)
	require.Len(t, scores, len(vectors))

	for i, s := range scores {
		if i == odd {
			continue
		}
		assert.Greater(t, scores[odd], s, "point %d scored above the outlier", i)
	}

	again, err := IsolationScores(context.Background(), vectors, 10, NewRand(5))
	require.NoError(t, err)
	assert.Equal(t, scores, again)
}

func TestIsolationScoresSmallSample(t *testing.T) {
	scores, err := IsolationScores(context.Background(), [][]float32{{1, 0}}, 10, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, scores)

	scores, err = IsolationScores(context.Background(), [][]float32{{1, 0}, {0, 1}}, 10, NewRand(1))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1}, scores, 1e-9)
}

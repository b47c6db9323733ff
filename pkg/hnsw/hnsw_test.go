package hnsw

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomVectors(n, dim int, seed uint64) [][]float32 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		out[i] = v
	}
	return out
}

func buildIndex(t *testing.T, vectors [][]float32) *Index {
	t.Helper()
	idx := New(len(vectors[0]), DefaultConfig())
	for i, v := range vectors {
		require.NoError(t, idx.Add(int64(i+1), v))
	}
	return idx
}

func TestSearchRecallAgainstBruteForce(t *testing.T) {
	const (
		dim     = 32
		k       = 10
		queries = 50
	)
	idx := buildIndex(t, randomVectors(2000, dim, 7))

	hits, total := 0, 0
	for _, q := range randomVectors(queries, dim, 99) {
		exact, err := idx.BruteForce(q, k)
		require.NoError(t, err)
		approx, err := idx.Search(q, k, 100)
		require.NoError(t, err)

		want := make(map[int64]struct{}, k)
		for _, r := range exact {
			want[r.ID] = struct{}{}
		}
		for _, r := range approx {
			if _, ok := want[r.ID]; ok {
				hits++
			}
		}
		total += len(exact)
	}

	recall := float64(hits) / float64(total)
	assert.GreaterOrEqual(t, recall, 0.95, "recall@%d = %.3f", k, recall)
}

func TestSearchOrderingAndSelfMatch(t *testing.T) {
	vectors := randomVectors(300, 16, 3)
	idx := buildIndex(t, vectors)

	res, err := idx.Search(vectors[41], 5, 64)
	require.NoError(t, err)
	require.Len(t, res, 5)

	assert.Equal(t, int64(42), res[0].ID)
	assert.InDelta(t, 1.0, res[0].Similarity(), 1e-5)
	for i := 1; i < len(res); i++ {
		assert.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
	}
}

func TestAddReplacesAndDelete(t *testing.T) {
	idx := New(3, DefaultConfig())
	require.NoError(t, idx.Add(1, []float32{1, 0, 0}))
	require.NoError(t, idx.Add(2, []float32{0, 1, 0}))
	require.NoError(t, idx.Add(1, []float32{0, 0, 1}))
	assert.Equal(t, 2, idx.Len())

	v, ok := idx.Vector(1)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 0, 1}, v)

	idx.Delete(2)
	idx.Delete(99)
	res, err := idx.Search([]float32{0, 1, 0}, 5, 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(1), res[0].ID)

	idx.Delete(1)
	res, err = idx.Search([]float32{0, 1, 0}, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearchAfterDeletesOnSparseGraph(t *testing.T) {
	vectors := randomVectors(300, 8, 11)
	cfg := DefaultConfig()
	cfg.M = 2
	idx := New(8, cfg)
	for i, v := range vectors {
		require.NoError(t, idx.Add(int64(i+1), v))
	}

	deleted := map[int64]bool{}
	for id := int64(3); id <= 300; id += 3 {
		idx.Delete(id)
		deleted[id] = true

		for nid, n := range idx.nodes {
			for l, links := range n.links {
				for _, pid := range links {
					require.Containsf(t, idx.nodes, pid, "node %d links deleted %d on layer %d", nid, pid, l)
				}
			}
		}

		res, err := idx.Search(vectors[0], 5, 20)
		require.NoError(t, err)
		require.NotEmpty(t, res)
		for _, r := range res {
			assert.False(t, deleted[r.ID])
		}
	}
	assert.Equal(t, 200, idx.Len())
}

func TestDimensionChecks(t *testing.T) {
	idx := New(4, DefaultConfig())
	assert.ErrorIs(t, idx.Add(1, []float32{1, 2}), ErrDimensionMismatch)

	_, err := idx.Search([]float32{1}, 3, 10)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	res, err := idx.Search([]float32{1, 0, 0, 0}, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 1}))
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/pkg/vectorizer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blob returns the i-th member of a tight group around the given axis.
func blob(axis, i int) []float32 {
	v := make([]float32, vectorizer.Dimension)
	v[axis] = 1
	v[64+i%32] = 0.05
	return v
}

func TestClusterSeparatesGroups(t *testing.T) {
	f := newFixture()
	svc := NewAnalysisService(f.factory, f.log)

	group := map[uuid.UUID]int{}
	for g, axis := range []int{1, 2, 3} {
		for i := 0; i < 40; i++ {
			e := f.addEmbedding(t, fmt.Sprintf("mint-%d-%d", g, i), t0.Add(time.Duration(i)*time.Minute), blob(axis, i))
			group[e.Id] = g
			if i < 5 {
				f.label(t, e.Id, fmt.Sprintf("group-%d", g))
			}
		}
	}

	seed := int64(7)
	res, err := svc.Cluster(context.Background(), &dto.ClusterRequest{K: 3, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, 120, res.Total)
	assert.Empty(t, res.EmptyClusters)

	clusterOf := map[int]int{}
	for _, a := range res.Assignments {
		g := group[a.EmbeddingId]
		if c, ok := clusterOf[g]; ok {
			assert.Equal(t, c, a.Cluster)
		}
		clusterOf[g] = a.Cluster
	}
	assert.Len(t, clusterOf, 3)

	for g, c := range clusterOf {
		summary := res.Clusters[c]
		assert.Equal(t, 40, summary.Size)
		assert.Equal(t, map[string]int{fmt.Sprintf("group-%d", g): 5}, summary.Labels)
	}

	again, err := svc.Cluster(context.Background(), &dto.ClusterRequest{K: 3, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, res.Assignments, again.Assignments)
}

func TestClusterRejects(t *testing.T) {
	f := newFixture()
	svc := NewAnalysisService(f.factory, f.log)

	_, err := svc.Cluster(context.Background(), &dto.ClusterRequest{})
	assert.ErrorIs(t, err, apperror.ErrInsufficientData)

	_, err = svc.Cluster(context.Background(), &dto.ClusterRequest{K: 21})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = svc.Cluster(context.Background(), &dto.ClusterRequest{Limit: 10})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestOutliersRankIsolatedFirst(t *testing.T) {
	f := newFixture()
	svc := NewAnalysisService(f.factory, f.log)

	for i := 0; i < 30; i++ {
		f.addEmbedding(t, fmt.Sprintf("mint-%d", i), t0, blob(1, i))
	}
	odd := f.addEmbedding(t, "odd", t0, direction(0, 9))

	seed := int64(3)
	res, err := svc.Outliers(context.Background(), &dto.OutlierRequest{SampleSize: 100, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, 31, res.SampleSize)
	assert.Equal(t, odd.Id, res.Results[0].EmbeddingId)
	for i := 1; i < len(res.Results); i++ {
		assert.GreaterOrEqual(t, res.Results[i-1].Score, res.Results[i].Score)
	}

	_, err = svc.Outliers(context.Background(), &dto.OutlierRequest{SampleSize: 1})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

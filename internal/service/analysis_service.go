package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/analysis"
)

const (
	DefaultClusterK     = 5
	DefaultClusterLimit = 5000
	clusterMaxIter      = 100
)

type IAnalysisService interface {
	Cluster(ctx context.Context, req *dto.ClusterRequest) (*dto.ClusterResponse, error)
	Outliers(ctx context.Context, req *dto.OutlierRequest) (*dto.OutlierResponse, error)
}

type analysisService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewAnalysisService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IAnalysisService {
	return &analysisService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

// seedOf returns the caller's seed, or a fresh one. Runs are reproducible
// only when the caller pins the seed.
func seedOf(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}

// sample copies the population the analysis runs over. Later writes do not
// affect a run in progress.
func (s *analysisService) sample(ctx context.Context, strategy *string, limit int, seed int64) ([]*entity.Embedding, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.EmbeddingRepository().Sample(ctx, contract.SampleQuery{
		Strategy: strategy,
		Limit:    limit,
		Seed:     &seed,
	})
}

func vectorsOf(embeddings []*entity.Embedding) [][]float32 {
	out := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		out[i] = e.Vector
	}
	return out
}

func (s *analysisService) Cluster(ctx context.Context, req *dto.ClusterRequest) (*dto.ClusterResponse, error) {
	k := req.K
	if k == 0 {
		k = DefaultClusterK
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultClusterLimit
	}
	if k < 2 || k > 20 {
		return nil, apperror.ErrBadRequest.WithMessage("k must be in [2, 20], got %d", k)
	}
	if limit < 100 || limit > 50000 {
		return nil, apperror.ErrBadRequest.WithMessage("limit must be in [100, 50000], got %d", limit)
	}

	seed := seedOf(req.Seed)
	embeddings, err := s.sample(ctx, req.Strategy, limit, seed)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, apperror.ErrInsufficientData.WithMessage("no embeddings to cluster")
	}

	result, err := analysis.KMeans(ctx, vectorsOf(embeddings), k, clusterMaxIter, analysis.NewRand(uint64(seed)))
	if err != nil {
		return nil, err
	}

	res := &dto.ClusterResponse{
		K:             k,
		Total:         len(embeddings),
		Iterations:    result.Iterations,
		Inertia:       result.Inertia,
		Clusters:      make([]dto.ClusterSummary, k),
		EmptyClusters: result.EmptyClusters(),
		Assignments:   make([]dto.ClusterAssignment, len(embeddings)),
	}
	if res.EmptyClusters == nil {
		res.EmptyClusters = []int{}
	}
	for c := range res.Clusters {
		res.Clusters[c] = dto.ClusterSummary{Cluster: c, Size: result.Sizes[c], Labels: map[string]int{}}
	}
	for i, e := range embeddings {
		c := result.Assignments[i]
		res.Assignments[i] = dto.ClusterAssignment{EmbeddingId: e.Id, Mint: e.EntityId, Cluster: c}
		if e.Label != nil {
			res.Clusters[c].Labels[*e.Label]++
		}
	}

	s.logger.Info("ANALYSIS", "Clustering finished", map[string]interface{}{
		"k":          k,
		"total":      len(embeddings),
		"iterations": result.Iterations,
		"empty":      len(res.EmptyClusters),
		"seed":       seed,
	})
	return res, nil
}

func (s *analysisService) Outliers(ctx context.Context, req *dto.OutlierRequest) (*dto.OutlierResponse, error) {
	if req.SampleSize < 2 {
		return nil, apperror.ErrBadRequest.WithMessage("sample_size must be at least 2")
	}

	seed := seedOf(req.Seed)
	embeddings, err := s.sample(ctx, nil, req.SampleSize, seed)
	if err != nil {
		return nil, err
	}
	if len(embeddings) < 2 {
		return nil, apperror.ErrInsufficientData.WithMessage("need at least 2 embeddings, have %d", len(embeddings))
	}

	scores, err := analysis.IsolationScores(ctx, vectorsOf(embeddings), analysis.DefaultIsolationNeighbors, analysis.NewRand(uint64(seed)))
	if err != nil {
		return nil, err
	}

	results := make([]dto.OutlierScore, len(embeddings))
	for i, e := range embeddings {
		results[i] = dto.OutlierScore{EmbeddingId: e.Id, Mint: e.EntityId, Label: e.Label, Score: scores[i]}
	}
	slices.SortStableFunc(results, func(a, b dto.OutlierScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.EmbeddingId.String(), b.EmbeddingId.String())
	})

	return &dto.OutlierResponse{SampleSize: len(embeddings), Results: results}, nil
}

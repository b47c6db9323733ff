package service

import (
	"context"
	"time"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/vectorizer"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultSearchK = 20
	// mintQueryTTL bounds how stale a mint's query embedding may be. New
	// windows land at most once per generation interval.
	mintQueryTTL = 30 * time.Second
)

type ISearchService interface {
	Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
	GetEmbedding(ctx context.Context, id uuid.UUID, withVector bool) (*dto.EmbeddingResponse, error)
	IndexStats(ctx context.Context) (*dto.IndexStatsResponse, error)
}

type searchService struct {
	uowFactory      unitofwork.RepositoryFactory
	defaultEfSearch int
	mintQueries     *cache.Cache
}

func NewSearchService(uowFactory unitofwork.RepositoryFactory, defaultEfSearch int) ISearchService {
	return &searchService{
		uowFactory:      uowFactory,
		defaultEfSearch: defaultEfSearch,
		mintQueries:     cache.New(mintQueryTTL, 5*time.Minute),
	}
}

func (s *searchService) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	query := contract.SearchQuery{
		K:             req.K,
		MinSimilarity: req.MinSimilarity,
		EfSearch:      req.EfSearch,
		Filter: contract.EmbeddingFilter{
			PhaseId:  req.PhaseId,
			Label:    req.Label,
			Strategy: req.Strategy,
		},
	}
	if query.K <= 0 {
		query.K = DefaultSearchK
	}
	if query.EfSearch <= 0 {
		query.EfSearch = s.defaultEfSearch
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	res := &dto.SearchResponse{Results: make([]dto.SearchHit, 0)}

	var hits []*entity.ScoredEmbedding
	var err error
	if req.Mint != "" {
		queryId, err := s.latestForMint(ctx, uow, req.Mint, req.Strategy)
		if err != nil {
			return nil, err
		}
		res.QueryEmbeddingId = &queryId
		hits, err = uow.EmbeddingRepository().SearchByID(ctx, queryId, query)
		if err != nil {
			return nil, err
		}
	} else {
		if len(req.Vector) != vectorizer.Dimension {
			return nil, apperror.ErrBadRequest.WithMessage("vector has %d dimensions, expected %d", len(req.Vector), vectorizer.Dimension)
		}
		query.Vector = req.Vector
		hits, err = uow.EmbeddingRepository().Search(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	for _, h := range hits {
		e := h.Embedding
		res.Results = append(res.Results, dto.SearchHit{
			EmbeddingId:  e.Id,
			Mint:         e.EntityId,
			WindowStart:  e.WindowStart,
			WindowEnd:    e.WindowEnd,
			PhaseId:      e.PhaseId,
			Strategy:     e.Strategy,
			Label:        e.Label,
			QualityScore: e.QualityScore,
			Similarity:   h.Similarity,
		})
	}
	return res, nil
}

func (s *searchService) latestForMint(ctx context.Context, uow unitofwork.UnitOfWork, mint string, strategy *string) (uuid.UUID, error) {
	key := mint
	if strategy != nil {
		key += "|" + *strategy
	}
	if id, found := s.mintQueries.Get(key); found {
		return id.(uuid.UUID), nil
	}

	latest, err := uow.EmbeddingRepository().FindLatestByEntity(ctx, mint, strategy)
	if err != nil {
		return uuid.Nil, err
	}
	if latest == nil {
		return uuid.Nil, apperror.ErrNotFound.WithMessage("no embedding for mint %s", mint)
	}
	s.mintQueries.Set(key, latest.Id, cache.DefaultExpiration)
	return latest.Id, nil
}

func (s *searchService) GetEmbedding(ctx context.Context, id uuid.UUID, withVector bool) (*dto.EmbeddingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	e, err := uow.EmbeddingRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperror.ErrNotFound.WithMessage("embedding %s not found", id)
	}

	res := &dto.EmbeddingResponse{
		Id:            e.Id,
		Mint:          e.EntityId,
		ConfigId:      e.ConfigId,
		Strategy:      e.Strategy,
		LayoutVersion: e.LayoutVersion,
		PhaseId:       e.PhaseId,
		WindowStart:   e.WindowStart,
		WindowEnd:     e.WindowEnd,
		NumSnapshots:  e.NumSnapshots,
		QualityScore:  e.QualityScore,
		Label:         e.Label,
		CreatedAt:     e.CreatedAt,
	}
	if withVector {
		res.Vector = e.Vector
	}
	return res, nil
}

func (s *searchService) IndexStats(ctx context.Context) (*dto.IndexStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.EmbeddingRepository().Count(ctx)
	if err != nil {
		return nil, err
	}
	report, err := uow.EmbeddingRepository().DimensionReport(ctx)
	if err != nil {
		return nil, err
	}

	res := &dto.IndexStatsResponse{Embeddings: count, Dimensions: make([]dto.DimensionStatEntry, 0, len(report))}
	for _, d := range report {
		valid := false
		if strategy, err := vectorizer.Lookup(d.Strategy); err == nil {
			valid = strategy.Dimension() == d.Dimension && strategy.LayoutVersion() == d.LayoutVersion
		}
		res.Dimensions = append(res.Dimensions, dto.DimensionStatEntry{
			Strategy:      d.Strategy,
			LayoutVersion: d.LayoutVersion,
			Dimension:     d.Dimension,
			Count:         d.Count,
			Valid:         valid,
		})
	}
	return res, nil
}

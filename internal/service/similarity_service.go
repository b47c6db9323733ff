package service

import (
	"context"
	"errors"
	"time"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ISimilarityService caches the close neighbours of new embeddings as
// similarity pairs, ready for the graph mirror.
type ISimilarityService interface {
	ComputePairs(ctx context.Context, embeddingIds []uuid.UUID) (int, error)
}

type similarityService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        config.SimilarityConfig
	efSearch   int
	logger     logger.ILogger
}

func NewSimilarityService(
	uowFactory unitofwork.RepositoryFactory,
	cfg config.SimilarityConfig,
	efSearch int,
	log logger.ILogger,
) ISimilarityService {
	return &similarityService{
		uowFactory: uowFactory,
		cfg:        cfg,
		efSearch:   efSearch,
		logger:     log,
	}
}

// ComputePairs searches the neighbours of each embedding and stores every
// pair at or above the threshold. It returns how many pairs were new.
// Embeddings deleted in the meantime are skipped.
func (s *similarityService) ComputePairs(ctx context.Context, embeddingIds []uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := time.Now().UTC()

	seen := make(map[entity.PairKey]struct{})
	var pairs []*entity.SimilarityPair
	for _, id := range embeddingIds {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		hits, err := uow.EmbeddingRepository().SearchByID(ctx, id, contract.SearchQuery{
			K:             s.cfg.NeighborK,
			MinSimilarity: s.cfg.Threshold,
			EfSearch:      s.efSearch,
		})
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}

		for _, hit := range hits {
			p := entity.NewSimilarityPair(id, hit.Embedding.Id, hit.Similarity, now)
			if _, dup := seen[p.Key()]; dup {
				continue
			}
			seen[p.Key()] = struct{}{}
			pairs = append(pairs, p)
		}
	}

	if len(pairs) == 0 {
		return 0, nil
	}
	created, err := uow.SimilarityPairRepository().UpsertBulk(ctx, pairs)
	if err != nil {
		return 0, err
	}

	s.logger.Info("SIMILARITY", "Similarity pairs cached", map[string]interface{}{
		"embeddings": len(embeddingIds),
		"candidates": len(pairs),
		"created":    created,
	})
	return created, nil
}

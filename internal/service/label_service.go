package service

import (
	"context"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const (
	DefaultPropagationMinSimilarity = 0.85
	DefaultMaxPropagations          = 100
	// propagationNeighbors is how many neighbours of each holder are
	// considered.
	propagationNeighbors = 10
)

type ILabelService interface {
	Label(ctx context.Context, req *dto.LabelRequest) (*dto.LabelResponse, error)
	Propagate(ctx context.Context, req *dto.PropagateRequest) (*dto.PropagateResponse, error)
	History(ctx context.Context, embeddingId uuid.UUID) ([]*dto.LabelHistoryResponse, error)
}

type labelService struct {
	uowFactory unitofwork.RepositoryFactory
	efSearch   int
	logger     logger.ILogger
}

func NewLabelService(uowFactory unitofwork.RepositoryFactory, efSearch int, log logger.ILogger) ILabelService {
	return &labelService{
		uowFactory: uowFactory,
		efSearch:   efSearch,
		logger:     log,
	}
}

func toLabelResponse(l *entity.Label) *dto.LabelResponse {
	return &dto.LabelResponse{
		EmbeddingId:       l.EmbeddingId,
		Label:             l.Label,
		Confidence:        l.Confidence,
		Source:            string(l.Source),
		SourceEmbeddingId: l.SourceEmbeddingId,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func (s *labelService) Label(ctx context.Context, req *dto.LabelRequest) (*dto.LabelResponse, error) {
	source := entity.LabelSourceManual
	if req.Source != "" {
		source = entity.LabelSource(req.Source)
	}
	if !source.Valid() {
		return nil, apperror.ErrBadRequest.WithMessage("unknown label source %q", req.Source)
	}
	// propagated labels carry the triggering similarity and holder, which
	// only Propagate knows.
	if source == entity.LabelSourcePropagated {
		return nil, apperror.ErrBadRequest.WithMessage("source %q is reserved for propagation", req.Source)
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	e, err := uow.EmbeddingRepository().FindById(ctx, req.EmbeddingId)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperror.ErrNotFound.WithMessage("embedding %s not found", req.EmbeddingId)
	}

	l := &entity.Label{
		EmbeddingId: req.EmbeddingId,
		Label:       req.Label,
		Confidence:  confidence,
		Source:      source,
	}
	if err := uow.LabelRepository().Upsert(ctx, l); err != nil {
		return nil, err
	}
	return toLabelResponse(l), nil
}

// Propagate spreads sourceLabel from its holders, oldest label first, to
// unlabeled neighbours at or above the similarity threshold. Every
// qualifying neighbour ends up either assigned or skipped. Once the budget
// is spent, the rest of the current holder's qualifying neighbours count as
// skipped and no further holders are visited.
func (s *labelService) Propagate(ctx context.Context, req *dto.PropagateRequest) (*dto.PropagateResponse, error) {
	minSimilarity := DefaultPropagationMinSimilarity
	if req.MinSimilarity != nil {
		minSimilarity = *req.MinSimilarity
	}
	budget := DefaultMaxPropagations
	if req.MaxPropagations != nil {
		budget = *req.MaxPropagations
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	holders, err := uow.LabelRepository().FindHolders(ctx, req.SourceLabel)
	if err != nil {
		return nil, err
	}
	if len(holders) == 0 {
		return nil, apperror.ErrUnknownLabel.WithMessage("label %q has no holders", req.SourceLabel)
	}

	res := &dto.PropagateResponse{}
	touched := make(map[uuid.UUID]struct{})
	for _, holder := range holders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		neighbors, err := uow.EmbeddingRepository().SearchByID(ctx, holder.EmbeddingId, contract.SearchQuery{
			K:             propagationNeighbors,
			MinSimilarity: minSimilarity,
			EfSearch:      s.efSearch,
		})
		if err != nil {
			return nil, err
		}

		for _, n := range neighbors {
			id := n.Embedding.Id
			if res.Assigned >= budget {
				res.Skipped++
				continue
			}
			if _, done := touched[id]; done || n.Embedding.Label != nil {
				res.Skipped++
				continue
			}

			source := holder.EmbeddingId
			ok, err := uow.LabelRepository().AssignIfUnlabeled(ctx, &entity.Label{
				EmbeddingId:       id,
				Label:             req.SourceLabel,
				Confidence:        n.Similarity,
				Source:            entity.LabelSourcePropagated,
				SourceEmbeddingId: &source,
			})
			if err != nil {
				return nil, err
			}
			if !ok {
				// lost to a concurrent writer
				res.Skipped++
				continue
			}
			touched[id] = struct{}{}
			res.Assigned++
		}

		if res.Assigned >= budget {
			break
		}
	}

	s.logger.Info("LABEL", "Label propagated", map[string]interface{}{
		"label":          req.SourceLabel,
		"holders":        len(holders),
		"min_similarity": minSimilarity,
		"assigned":       res.Assigned,
		"skipped":        res.Skipped,
	})
	return res, nil
}

func (s *labelService) History(ctx context.Context, embeddingId uuid.UUID) ([]*dto.LabelHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.LabelRepository().History(ctx, embeddingId)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.LabelHistoryResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, &dto.LabelHistoryResponse{
			Label:             h.Label,
			Confidence:        h.Confidence,
			Source:            string(h.Source),
			SourceEmbeddingId: h.SourceEmbeddingId,
			CreatedAt:         h.CreatedAt,
		})
	}
	return out, nil
}

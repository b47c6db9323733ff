package service

import (
	"context"
	"errors"
	"slices"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/vectorizer"
	"token-pattern-be/pkg/window"

	"github.com/google/uuid"
)

type IConfigService interface {
	Create(ctx context.Context, req *dto.CreateConfigRequest) (*dto.ConfigResponse, error)
	List(ctx context.Context, activeOnly bool) ([]*dto.ConfigResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ConfigResponse, error)
	SetActive(ctx context.Context, req *dto.UpdateConfigActiveRequest) (*dto.ConfigResponse, error)
}

type configService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewConfigService(uowFactory unitofwork.RepositoryFactory) IConfigService {
	return &configService{uowFactory: uowFactory}
}

func toConfigResponse(c *entity.EmbeddingConfig) *dto.ConfigResponse {
	phases := c.PhaseFilter
	if phases == nil {
		phases = []int{}
	}
	return &dto.ConfigResponse{
		Id:                   c.Id,
		Name:                 c.Name,
		Strategy:             c.Strategy,
		WindowSeconds:        c.WindowSeconds,
		WindowOverlapSeconds: c.WindowOverlapSeconds,
		MinSnapshots:         c.MinSnapshots,
		PhaseFilter:          phases,
		Normalization:        string(c.Normalization),
		IsActive:             c.IsActive,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// invalidConfig maps domain validation failures onto InvalidConfig.
func invalidConfig(err error) error {
	switch {
	case errors.Is(err, window.ErrInvalidConfig),
		errors.Is(err, vectorizer.ErrUnknownStrategy),
		errors.Is(err, vectorizer.ErrUnknownNormalization):
		return apperror.ErrInvalidConfig.WithMessage("%s", err.Error())
	}
	return err
}

func (s *configService) Create(ctx context.Context, req *dto.CreateConfigRequest) (*dto.ConfigResponse, error) {
	norm, err := vectorizer.ParseNormalization(req.Normalization)
	if err != nil {
		return nil, invalidConfig(err)
	}

	phases := slices.Clone(req.PhaseFilter)
	slices.Sort(phases)
	phases = slices.Compact(phases)

	c := &entity.EmbeddingConfig{
		Id:                   uuid.New(),
		Name:                 req.Name,
		Strategy:             req.Strategy,
		WindowSeconds:        req.WindowSeconds,
		WindowOverlapSeconds: req.WindowOverlapSeconds,
		MinSnapshots:         req.MinSnapshots,
		PhaseFilter:          phases,
		Normalization:        norm,
		IsActive:             req.IsActive == nil || *req.IsActive,
	}
	if err := c.Validate(); err != nil {
		return nil, invalidConfig(err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.EmbeddingConfigRepository().FindByName(ctx, c.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrInvalidConfig.WithMessage("config name %q already exists", c.Name)
	}
	if err := uow.EmbeddingConfigRepository().Create(ctx, c); err != nil {
		return nil, err
	}
	return toConfigResponse(c), nil
}

func (s *configService) List(ctx context.Context, activeOnly bool) ([]*dto.ConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	configs, err := uow.EmbeddingConfigRepository().List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ConfigResponse, 0, len(configs))
	for _, c := range configs {
		out = append(out, toConfigResponse(c))
	}
	return out, nil
}

func (s *configService) Show(ctx context.Context, id uuid.UUID) (*dto.ConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	c, err := uow.EmbeddingConfigRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.ErrNotFound.WithMessage("config %s not found", id)
	}
	return toConfigResponse(c), nil
}

func (s *configService) SetActive(ctx context.Context, req *dto.UpdateConfigActiveRequest) (*dto.ConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.EmbeddingConfigRepository().SetActive(ctx, req.Id, *req.IsActive); err != nil {
		return nil, err
	}
	return s.Show(ctx, req.Id)
}

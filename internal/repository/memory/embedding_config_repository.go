package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"

	"github.com/google/uuid"
)

type EmbeddingConfigRepository struct {
	store *Store
}

func NewEmbeddingConfigRepository(store *Store) contract.EmbeddingConfigRepository {
	return &EmbeddingConfigRepository{store: store}
}

func copyConfig(c *entity.EmbeddingConfig) *entity.EmbeddingConfig {
	out := *c
	out.PhaseFilter = slices.Clone(c.PhaseFilter)
	return &out
}

func (r *EmbeddingConfigRepository) Create(ctx context.Context, c *entity.EmbeddingConfig) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.configs {
		if existing.Name == c.Name {
			return apperror.ErrInvalidConfig.WithMessage("config name %q already exists", c.Name)
		}
	}
	if c.Id == uuid.Nil {
		c.Id = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.configs[c.Id] = copyConfig(c)
	return nil
}

func (r *EmbeddingConfigRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.EmbeddingConfig, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.configs[id]
	if !ok {
		return nil, nil
	}
	return copyConfig(c), nil
}

func (r *EmbeddingConfigRepository) FindByName(ctx context.Context, name string) (*entity.EmbeddingConfig, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, c := range r.store.configs {
		if c.Name == name {
			return copyConfig(c), nil
		}
	}
	return nil, nil
}

func (r *EmbeddingConfigRepository) List(ctx context.Context, activeOnly bool) ([]*entity.EmbeddingConfig, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*entity.EmbeddingConfig{}
	for _, c := range r.store.configs {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, copyConfig(c))
	}
	slices.SortFunc(out, func(a, b *entity.EmbeddingConfig) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (r *EmbeddingConfigRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.configs[id]
	if !ok {
		return apperror.ErrNotFound.WithMessage("config %s not found", id)
	}
	now := time.Now()
	c.IsActive = active
	c.UpdatedAt = &now
	return nil
}

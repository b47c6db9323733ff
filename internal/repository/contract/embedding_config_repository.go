package contract

import (
	"context"

	"token-pattern-be/internal/entity"

	"github.com/google/uuid"
)

type EmbeddingConfigRepository interface {
	Create(ctx context.Context, c *entity.EmbeddingConfig) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.EmbeddingConfig, error)
	FindByName(ctx context.Context, name string) (*entity.EmbeddingConfig, error)
	// List returns configs ordered by name.
	List(ctx context.Context, activeOnly bool) ([]*entity.EmbeddingConfig, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

package contract

import (
	"context"

	"token-pattern-be/internal/entity"

	"github.com/google/uuid"
)

type GenerationJobRepository interface {
	Create(ctx context.Context, j *entity.GenerationJob) error
	Update(ctx context.Context, j *entity.GenerationJob) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.GenerationJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.GenerationJob, error)
}

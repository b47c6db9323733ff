package contract

import (
	"context"

	"token-pattern-be/internal/entity"

	"github.com/google/uuid"
)

type LabelRepository interface {
	// Upsert replaces the current label of l.EmbeddingId and appends a
	// history row.
	Upsert(ctx context.Context, l *entity.Label) error
	// AssignIfUnlabeled writes l only when the embedding has no label yet.
	// It reports false, without error, when another label is present.
	AssignIfUnlabeled(ctx context.Context, l *entity.Label) (bool, error)
	FindByEmbeddingId(ctx context.Context, embeddingId uuid.UUID) (*entity.Label, error)
	FindByEmbeddingIds(ctx context.Context, embeddingIds []uuid.UUID) (map[uuid.UUID]*entity.Label, error)
	// FindHolders lists the embeddings carrying label, oldest label first,
	// ties broken by embedding id.
	FindHolders(ctx context.Context, label string) ([]*entity.Label, error)
	History(ctx context.Context, embeddingId uuid.UUID) ([]*entity.LabelHistory, error)
}

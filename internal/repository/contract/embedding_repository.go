package contract

import (
	"context"

	"token-pattern-be/internal/entity"

	"github.com/google/uuid"
)

// EmbeddingFilter restricts a search by exact match. Nil fields match
// everything.
type EmbeddingFilter struct {
	PhaseId  *int
	Label    *string
	Strategy *string
}

type SearchQuery struct {
	Vector        []float32
	K             int
	MinSimilarity float64
	EfSearch      int
	Filter        EmbeddingFilter
	ExcludeIds    []uuid.UUID
}

// SampleQuery selects up to Limit embeddings. With Seed set the rows come in
// a pseudo-random order keyed by the seed; otherwise most recent first.
type SampleQuery struct {
	Strategy *string
	Limit    int
	Seed     *int64
}

// DimensionStat is one row of the integrity report: how many stored vectors
// of a strategy and layout have a given length.
type DimensionStat struct {
	Strategy      string
	LayoutVersion string
	Dimension     int
	Count         int64
}

type EmbeddingRepository interface {
	// Upsert stores e under its dedup key and reports whether a new row was
	// created. e.Id is set to the stored row's id either way.
	Upsert(ctx context.Context, e *entity.Embedding) (bool, error)
	Exists(ctx context.Context, key entity.DedupKey) (bool, error)
	FindById(ctx context.Context, id uuid.UUID) (*entity.Embedding, error)
	FindLatestByEntity(ctx context.Context, entityId string, strategy *string) (*entity.Embedding, error)
	Search(ctx context.Context, q SearchQuery) ([]*entity.ScoredEmbedding, error)
	// SearchByID searches with the stored vector of id, never returning id
	// itself. q.Vector is ignored.
	SearchByID(ctx context.Context, id uuid.UUID, q SearchQuery) ([]*entity.ScoredEmbedding, error)
	Sample(ctx context.Context, q SampleQuery) ([]*entity.Embedding, error)
	Count(ctx context.Context) (int64, error)
	DimensionReport(ctx context.Context) ([]DimensionStat, error)
}

package contract

import (
	"context"
	"time"

	"token-pattern-be/internal/entity"
)

type SimilarityPairRepository interface {
	// UpsertBulk stores pairs not already cached and returns how many were
	// new. Existing pairs keep their sync state.
	UpsertBulk(ctx context.Context, pairs []*entity.SimilarityPair) (int, error)
	// FindPending returns unsynced pairs, oldest first.
	FindPending(ctx context.Context, limit int) ([]*entity.SimilarityPair, error)
	MarkSynced(ctx context.Context, keys []entity.PairKey, at time.Time) (int64, error)
	Status(ctx context.Context) (*entity.SyncStatus, error)
}

package memory

import (
	"context"
	"time"

	"token-pattern-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CursorRepository keeps per-entity generation cursors in process. Entries
// idle for a week expire; a lost cursor only costs a re-scan of windows
// that dedup will skip.
type CursorRepository struct {
	cache *cache.Cache
}

func NewCursorRepository() contract.CursorRepository {
	return &CursorRepository{
		cache: cache.New(7*24*time.Hour, 1*time.Hour),
	}
}

func cursorKey(configId uuid.UUID, entityId string) string {
	return configId.String() + ":" + entityId
}

func (r *CursorRepository) Get(ctx context.Context, configId uuid.UUID, entityId string) (time.Time, bool, error) {
	if x, found := r.cache.Get(cursorKey(configId, entityId)); found {
		return x.(time.Time), true, nil
	}
	return time.Time{}, false, nil
}

func (r *CursorRepository) Set(ctx context.Context, configId uuid.UUID, entityId string, next time.Time) error {
	r.cache.Set(cursorKey(configId, entityId), next.UTC(), cache.DefaultExpiration)
	return nil
}

package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cursorTTL = 7 * 24 * time.Hour

type RedisCursorRepositoryImpl struct {
	rdb *redis.Client
}

func NewRedisCursorRepository(rdb *redis.Client) contract.CursorRepository {
	return &RedisCursorRepositoryImpl{rdb: rdb}
}

func redisCursorKey(configId uuid.UUID, entityId string) string {
	return fmt.Sprintf("pattern:cursor:%s:%s", configId, entityId)
}

func (r *RedisCursorRepositoryImpl) Get(ctx context.Context, configId uuid.UUID, entityId string) (time.Time, bool, error) {
	ms, err := r.rdb.Get(ctx, redisCursorKey(configId, entityId)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, apperror.ErrIndexUnavailable.WithInternal(err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func (r *RedisCursorRepositoryImpl) Set(ctx context.Context, configId uuid.UUID, entityId string, next time.Time) error {
	err := r.rdb.Set(ctx, redisCursorKey(configId, entityId), next.UnixMilli(), cursorTTL).Err()
	if err != nil {
		return apperror.ErrIndexUnavailable.WithInternal(err)
	}
	return nil
}

package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CursorRepository remembers, per config and entity, the start of the next
// window the scheduler should generate. Cursors are a hint: losing one only
// re-scans windows the dedup key already covers.
type CursorRepository interface {
	Get(ctx context.Context, configId uuid.UUID, entityId string) (time.Time, bool, error)
	Set(ctx context.Context, configId uuid.UUID, entityId string, next time.Time) error
}

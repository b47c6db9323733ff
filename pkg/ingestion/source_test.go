package ingestion

import (
	"context"
	"testing"
	"time"

	"token-pattern-be/pkg/vectorizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySourceRanges(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	src := NewMemorySource()
	src.Add(
		vectorizer.Snapshot{EntityId: "b", Timestamp: t0.Add(30 * time.Second), Price: 2},
		vectorizer.Snapshot{EntityId: "b", Timestamp: t0, Price: 1},
		vectorizer.Snapshot{EntityId: "a", Timestamp: t0.Add(5 * time.Minute), Price: 3},
	)
	ctx := context.Background()

	snaps, err := src.GetSnapshots(ctx, "b", t0, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 1.0, snaps[0].Price)
	assert.Equal(t, 2.0, snaps[1].Price)

	// End is exclusive.
	snaps, err = src.GetSnapshots(ctx, "a", t0, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, snaps)

	ids, err := src.ListEntities(ctx, t0, t0.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = src.ListEntities(ctx, t0, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

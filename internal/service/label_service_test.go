package service

import (
	"context"
	"testing"
	"time"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelDefaultsAndValidation(t *testing.T) {
	f := newFixture()
	svc := NewLabelService(f.factory, 64, f.log)
	e := f.addEmbedding(t, "mintA", t0, direction(1, 1))

	res, err := svc.Label(context.Background(), &dto.LabelRequest{EmbeddingId: e.Id, Label: "pump"})
	require.NoError(t, err)
	assert.Equal(t, "manual", res.Source)
	assert.Equal(t, 1.0, res.Confidence)

	_, err = svc.Label(context.Background(), &dto.LabelRequest{EmbeddingId: uuid.New(), Label: "pump"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Label(context.Background(), &dto.LabelRequest{EmbeddingId: e.Id, Label: "pump", Source: "oracle"})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = svc.Label(context.Background(), &dto.LabelRequest{EmbeddingId: e.Id, Label: "pump", Source: "propagated"})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	l, err := f.uow().LabelRepository().FindByEmbeddingId(context.Background(), e.Id)
	require.NoError(t, err)
	assert.Equal(t, "manual", string(l.Source))
}

func TestPropagate(t *testing.T) {
	one := 1
	tests := []struct {
		name     string
		budget   *int
		expected dto.PropagateResponse
	}{
		{name: "budget of one", budget: &one, expected: dto.PropagateResponse{Assigned: 1, Skipped: 1}},
		{name: "default budget", expected: dto.PropagateResponse{Assigned: 2, Skipped: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := NewLabelService(f.factory, 64, f.log)

			holder := f.addEmbedding(t, "mintH", t0, direction(1, 1))
			near := f.addEmbedding(t, "mintN", t0, direction(0.95, 2))
			f.addEmbedding(t, "mintM", t0, direction(0.9, 3))
			f.addEmbedding(t, "mintFar", t0, direction(0.2, 4))
			f.label(t, holder.Id, "pump")

			res, err := svc.Propagate(context.Background(), &dto.PropagateRequest{SourceLabel: "pump", MaxPropagations: tt.budget})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *res)

			// The closest neighbour is always visited first.
			l, err := f.uow().LabelRepository().FindByEmbeddingId(context.Background(), near.Id)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Equal(t, "propagated", string(l.Source))
			assert.Equal(t, holder.Id, *l.SourceEmbeddingId)
			assert.InDelta(t, 0.95, l.Confidence, 1e-6)
		})
	}
}

func TestPropagateSkipsLabeledNeighbours(t *testing.T) {
	f := newFixture()
	svc := NewLabelService(f.factory, 64, f.log)

	holder := f.addEmbedding(t, "mintH", t0, direction(1, 1))
	other := f.addEmbedding(t, "mintN", t0, direction(0.95, 2))
	f.label(t, holder.Id, "pump")
	f.label(t, other.Id, "rug")

	res, err := svc.Propagate(context.Background(), &dto.PropagateRequest{SourceLabel: "pump"})
	require.NoError(t, err)
	assert.Equal(t, dto.PropagateResponse{Assigned: 0, Skipped: 1}, *res)

	l, err := f.uow().LabelRepository().FindByEmbeddingId(context.Background(), other.Id)
	require.NoError(t, err)
	assert.Equal(t, "rug", l.Label)
}

func TestPropagateAssignsSharedNeighbourOnce(t *testing.T) {
	f := newFixture()
	svc := NewLabelService(f.factory, 64, f.log)

	older := f.addEmbedding(t, "mintA", t0, direction(1, 1))
	newer := f.addEmbedding(t, "mintB", t0, direction(0.9, 2))
	// 0.95 to older, 0.855 to newer: both above the default threshold.
	shared := f.addEmbedding(t, "mintS", t0, direction(0.95, 3))
	f.label(t, older.Id, "pump")
	time.Sleep(time.Millisecond)
	f.label(t, newer.Id, "pump")

	res, err := svc.Propagate(context.Background(), &dto.PropagateRequest{SourceLabel: "pump"})
	require.NoError(t, err)
	// older sees newer (labeled) and shared; newer sees older (labeled)
	// and shared (already assigned).
	assert.Equal(t, dto.PropagateResponse{Assigned: 1, Skipped: 3}, *res)

	l, err := f.uow().LabelRepository().FindByEmbeddingId(context.Background(), shared.Id)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "propagated", string(l.Source))
	assert.Equal(t, older.Id, *l.SourceEmbeddingId)
	assert.InDelta(t, 0.95, l.Confidence, 1e-6)

	history, err := svc.History(context.Background(), shared.Id)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPropagateUnknownLabel(t *testing.T) {
	f := newFixture()
	svc := NewLabelService(f.factory, 64, f.log)
	f.addEmbedding(t, "mintA", t0, direction(1, 1))

	_, err := svc.Propagate(context.Background(), &dto.PropagateRequest{SourceLabel: "moon"})
	assert.ErrorIs(t, err, apperror.ErrUnknownLabel)
}

func TestLabelHistoryKeepsEveryWrite(t *testing.T) {
	f := newFixture()
	svc := NewLabelService(f.factory, 64, f.log)
	e := f.addEmbedding(t, "mintA", t0, direction(1, 1))

	_, err := svc.Label(context.Background(), &dto.LabelRequest{EmbeddingId: e.Id, Label: "pump"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = svc.Label(context.Background(), &dto.LabelRequest{EmbeddingId: e.Id, Label: "rug", Source: "rule"})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), e.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "pump", history[0].Label)
	assert.Equal(t, "rug", history[1].Label)
	assert.Equal(t, "rule", history[1].Source)
}

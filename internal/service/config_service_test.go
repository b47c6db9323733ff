package service

import (
	"context"
	"testing"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConfig(t *testing.T) {
	valid := func() dto.CreateConfigRequest {
		return dto.CreateConfigRequest{
			Name:          "five-minute",
			Strategy:      "handcrafted_v1",
			WindowSeconds: 300,
			MinSnapshots:  3,
		}
	}

	tests := []struct {
		name   string
		mutate func(r *dto.CreateConfigRequest)
		err    error
	}{
		{name: "valid", mutate: func(r *dto.CreateConfigRequest) {}},
		{name: "overlap equal to window", mutate: func(r *dto.CreateConfigRequest) { r.WindowOverlapSeconds = 300 }, err: apperror.ErrInvalidConfig},
		{name: "zero window", mutate: func(r *dto.CreateConfigRequest) { r.WindowSeconds = 0 }, err: apperror.ErrInvalidConfig},
		{name: "zero min snapshots", mutate: func(r *dto.CreateConfigRequest) { r.MinSnapshots = 0 }, err: apperror.ErrInvalidConfig},
		{name: "unknown strategy", mutate: func(r *dto.CreateConfigRequest) { r.Strategy = "learned_v9" }, err: apperror.ErrInvalidConfig},
		{name: "unknown normalization", mutate: func(r *dto.CreateConfigRequest) { r.Normalization = "log" }, err: apperror.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewConfigService(newFixture().factory)
			req := valid()
			tt.mutate(&req)

			res, err := svc.Create(context.Background(), &req)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "minmax", res.Normalization)
			assert.True(t, res.IsActive)
		})
	}
}

func TestConfigLifecycle(t *testing.T) {
	svc := NewConfigService(newFixture().factory)
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.CreateConfigRequest{
		Name:          "phased",
		Strategy:      "handcrafted_v1",
		WindowSeconds: 600,
		MinSnapshots:  5,
		PhaseFilter:   []int{3, 1, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, created.PhaseFilter)

	_, err = svc.Create(ctx, &dto.CreateConfigRequest{Name: "phased", Strategy: "handcrafted_v1", WindowSeconds: 60, MinSnapshots: 1})
	assert.ErrorIs(t, err, apperror.ErrInvalidConfig)

	off := false
	updated, err := svc.SetActive(ctx, &dto.UpdateConfigActiveRequest{Id: created.Id, IsActive: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.Show(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

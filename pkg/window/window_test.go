package window

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func collect(t *testing.T, spec Spec, cursor, now time.Time) []Window {
	t.Helper()
	seq, err := Generate(spec, cursor, now)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		windowSec int
		overlap   int
		span      time.Duration
		wantCount int
	}{
		{"exact fit", 300, 0, 15 * time.Minute, 3},
		{"trailing partial dropped", 300, 0, 14 * time.Minute, 2},
		{"shorter than one window", 300, 0, 299 * time.Second, 0},
		{"exactly one window", 300, 0, 300 * time.Second, 1},
		{"overlapping", 300, 60, 15 * time.Minute, 3},
		{"heavy overlap", 60, 50, 2 * time.Minute, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := SpecFromSeconds(tt.windowSec, tt.overlap)
			now := base.Add(tt.span)
			windows := collect(t, spec, base, now)

			assert.Len(t, windows, tt.wantCount)
			assert.Equal(t, tt.wantCount, Count(spec, base, now))

			for i, w := range windows {
				assert.Equal(t, spec.Duration, w.Duration(), "window %d duration", i)
				assert.False(t, w.End.After(now), "window %d extends past now", i)
				if i > 0 {
					assert.Equal(t, windows[i-1].End.Add(-spec.Overlap), w.Start, "window %d not contiguous", i)
				}
			}
		})
	}
}

func TestGenerateIsRestartable(t *testing.T) {
	spec := SpecFromSeconds(300, 0)
	seq, err := Generate(spec, base, base.Add(time.Hour))
	require.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 12)
}

func TestGenerateStopsEarly(t *testing.T) {
	spec := SpecFromSeconds(60, 0)
	seq, err := Generate(spec, base, base.Add(24*time.Hour))
	require.NoError(t, err)

	seen := 0
	for range seq {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestGenerateInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"zero duration", SpecFromSeconds(0, 0), true},
		{"negative duration", SpecFromSeconds(-5, 0), true},
		{"overlap equals window", SpecFromSeconds(60, 60), true},
		{"overlap exceeds window", SpecFromSeconds(60, 90), true},
		{"negative overlap", SpecFromSeconds(60, -1), true},
		{"valid", SpecFromSeconds(60, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.spec, base, base.Add(time.Hour))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextCursor(t *testing.T) {
	spec := SpecFromSeconds(300, 60)
	now := base.Add(17 * time.Minute)

	windows := collect(t, spec, base, now)
	next := NextCursor(spec, base, now)
	require.NotEmpty(t, windows)
	assert.Equal(t, windows[len(windows)-1].Start.Add(spec.Step()), next)

	// Resuming from the returned cursor never repeats an emitted window.
	resumed := collect(t, spec, next, now.Add(time.Hour))
	require.NotEmpty(t, resumed)
	assert.True(t, resumed[0].Start.After(windows[len(windows)-1].Start))

	assert.Equal(t, base, NextCursor(spec, base, base.Add(time.Minute)))
}

func TestAlign(t *testing.T) {
	spec := SpecFromSeconds(300, 0)
	odd := base.Add(7*time.Minute + 13*time.Second)

	assert.True(t, AlignDown(spec, odd).Equal(base.Add(5*time.Minute)))
	assert.True(t, AlignUp(spec, odd).Equal(base.Add(10*time.Minute)))
	assert.True(t, AlignUp(spec, base).Equal(base))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(300, 0, 3))
	assert.ErrorIs(t, ValidateConfig(300, 0, 0), ErrInvalidConfig)
	assert.ErrorIs(t, ValidateConfig(300, 300, 3), ErrInvalidConfig)
	assert.ErrorIs(t, ValidateConfig(0, 0, 3), ErrInvalidConfig)
}

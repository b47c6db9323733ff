// Package window slices a time range into fixed-duration, optionally
// overlapping windows. Windows are produced lazily and the sequence can be
// ranged over any number of times.
package window

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

var ErrInvalidConfig = errors.New("invalid window config")

// Window is a half-open time slice [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Spec describes how a range is cut into windows.
type Spec struct {
	Duration time.Duration
	Overlap  time.Duration
}

func SpecFromSeconds(windowSeconds, overlapSeconds int) Spec {
	return Spec{
		Duration: time.Duration(windowSeconds) * time.Second,
		Overlap:  time.Duration(overlapSeconds) * time.Second,
	}
}

func (s Spec) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("%w: window duration must be positive, got %s", ErrInvalidConfig, s.Duration)
	}
	if s.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %s", ErrInvalidConfig, s.Overlap)
	}
	if s.Overlap >= s.Duration {
		return fmt.Errorf("%w: overlap %s must be shorter than window %s", ErrInvalidConfig, s.Overlap, s.Duration)
	}
	return nil
}

// ValidateConfig checks the window parameters of an embedding config. It is
// applied when a config is written so bad parameters never reach generation.
func ValidateConfig(windowSeconds, overlapSeconds, minSnapshots int) error {
	if err := SpecFromSeconds(windowSeconds, overlapSeconds).Validate(); err != nil {
		return err
	}
	if minSnapshots < 1 {
		return fmt.Errorf("%w: min snapshots must be at least 1, got %d", ErrInvalidConfig, minSnapshots)
	}
	return nil
}

// Step is the distance between the starts of consecutive windows.
func (s Spec) Step() time.Duration {
	return s.Duration - s.Overlap
}

// Generate returns the windows covering [cursor, now). A trailing window that
// would end after now is not emitted; it belongs to the next cycle.
func Generate(spec Spec, cursor, now time.Time) (iter.Seq[Window], error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	step := spec.Step()
	return func(yield func(Window) bool) {
		for start := cursor; !start.Add(spec.Duration).After(now); start = start.Add(step) {
			if !yield(Window{Start: start, End: start.Add(spec.Duration)}) {
				return
			}
		}
	}, nil
}

// Count reports how many windows Generate would emit.
func Count(spec Spec, cursor, now time.Time) int {
	if spec.Validate() != nil {
		return 0
	}
	span := now.Sub(cursor)
	if span < spec.Duration {
		return 0
	}
	return int((span-spec.Duration)/spec.Step()) + 1
}

// NextCursor returns the start of the first window Generate did not emit.
func NextCursor(spec Spec, cursor, now time.Time) time.Time {
	n := Count(spec, cursor, now)
	if n == 0 {
		return cursor
	}
	return cursor.Add(time.Duration(n) * spec.Step())
}

// AlignDown floors t to a multiple of the step counted from the Unix epoch,
// so independent runs agree on window boundaries.
func AlignDown(spec Spec, t time.Time) time.Time {
	step := spec.Step()
	if step <= 0 {
		return t
	}
	unix := t.UnixNano()
	rem := unix % int64(step)
	if rem < 0 {
		rem += int64(step)
	}
	return time.Unix(0, unix-rem).UTC()
}

// AlignUp ceils t to the next step boundary (t itself when already aligned).
func AlignUp(spec Spec, t time.Time) time.Time {
	down := AlignDown(spec, t)
	if down.Equal(t) {
		return down
	}
	return down.Add(spec.Step())
}

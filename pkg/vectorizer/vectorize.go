package vectorizer

import (
	"fmt"
	"slices"
)

// Options control how a window is prepared before encoding.
type Options struct {
	// MinSnapshots below which a window is rejected. Values under 1 are
	// treated as 1.
	MinSnapshots int
	// PhaseFilter keeps only snapshots in the listed lifecycle phases.
	// Empty keeps everything.
	PhaseFilter   []int
	Normalization Normalization
}

type Result struct {
	Vector        []float32
	NumSnapshots  int
	QualityScore  float64
	PhaseId       int
	Strategy      string
	LayoutVersion string
}

// Vectorize encodes one window with strategy. It is a pure function of its
// inputs: the same snapshots and options always yield a bit-identical vector.
func Vectorize(strategy Strategy, in Input, opts Options) (*Result, error) {
	snaps := prepare(in, opts.PhaseFilter)

	minSnapshots := max(opts.MinSnapshots, 1)
	if len(snaps) < minSnapshots {
		return nil, fmt.Errorf("%w: %s has %d snapshots in [%s, %s), need %d",
			ErrInsufficientData, in.EntityId, len(snaps),
			in.WindowStart.Format("15:04:05"), in.WindowEnd.Format("15:04:05"), minSnapshots)
	}

	prepared := in
	prepared.Snapshots = snaps
	raw := strategy.Encode(prepared)
	if len(raw) != strategy.Dimension() {
		return nil, fmt.Errorf("%w: %s produced %d values, declared %d",
			ErrDimensionMismatch, strategy.Name(), len(raw), strategy.Dimension())
	}

	for i := range raw {
		raw[i] = finite(raw[i])
	}
	opts.Normalization.Apply(raw)

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(finite(v))
	}

	return &Result{
		Vector:        vec,
		NumSnapshots:  len(snaps),
		QualityScore:  Quality(snaps, in),
		PhaseId:       snaps[len(snaps)-1].PhaseId,
		Strategy:      strategy.Name(),
		LayoutVersion: strategy.LayoutVersion(),
	}, nil
}

// ValidateVector checks v against the dimension of the named strategy.
func ValidateVector(strategyName string, v []float32) error {
	s, err := Lookup(strategyName)
	if err != nil {
		return err
	}
	if len(v) != s.Dimension() {
		return fmt.Errorf("%w: got %d, %s expects %d", ErrDimensionMismatch, len(v), strategyName, s.Dimension())
	}
	return nil
}

// prepare keeps the snapshots inside [start, end) that pass the phase filter,
// ordered by timestamp. The caller's slice is never reordered.
func prepare(in Input, phases []int) []Snapshot {
	out := make([]Snapshot, 0, len(in.Snapshots))
	for _, s := range in.Snapshots {
		if s.Timestamp.Before(in.WindowStart) || !s.Timestamp.Before(in.WindowEnd) {
			continue
		}
		if len(phases) > 0 && !slices.Contains(phases, s.PhaseId) {
			continue
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b Snapshot) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// Quality scores how well a window is sampled, in [0, 1]: half from how many
// of 16 equal time buckets hold at least one snapshot, half from the snapshot
// count against the nominal capacity of the window.
func Quality(snaps []Snapshot, in Input) float64 {
	seconds := in.Seconds()
	if len(snaps) == 0 || seconds <= 0 {
		return 0
	}
	var covered [pathBuckets]bool
	for _, s := range snaps {
		off := s.Timestamp.Sub(in.WindowStart).Seconds() / seconds
		b := min(max(int(off*pathBuckets), 0), pathBuckets-1)
		covered[b] = true
	}
	n := 0
	for _, c := range covered {
		if c {
			n++
		}
	}
	coverage := float64(n) / pathBuckets
	return 0.5*coverage + 0.5*density(len(snaps), seconds)
}

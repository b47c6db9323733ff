package vectorizer

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrUnknownNormalization = errors.New("unknown normalization")

type Normalization string

const (
	NormalizationMinMax Normalization = "minmax"
	NormalizationZScore Normalization = "zscore"
	NormalizationRobust Normalization = "robust"
	NormalizationNone   Normalization = "none"
)

func ParseNormalization(s string) (Normalization, error) {
	switch n := Normalization(s); n {
	case NormalizationMinMax, NormalizationZScore, NormalizationRobust, NormalizationNone:
		return n, nil
	case "":
		return NormalizationMinMax, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownNormalization, s)
	}
}

// Apply rescales v in place using statistics taken across its own components.
// A constant vector maps to all zeros under minmax, zscore and robust;
// none leaves it untouched.
func (n Normalization) Apply(v []float64) {
	if len(v) == 0 {
		return
	}
	switch n {
	case NormalizationMinMax:
		lo, hi := slices.Min(v), slices.Max(v)
		span := hi - lo
		for i := range v {
			if span == 0 {
				v[i] = 0
				continue
			}
			v[i] = (v[i] - lo) / span
		}
	case NormalizationZScore:
		m, sd := mean(v), stddev(v)
		for i := range v {
			if sd == 0 {
				v[i] = 0
				continue
			}
			v[i] = (v[i] - m) / sd
		}
	case NormalizationRobust:
		sorted := slices.Clone(v)
		slices.Sort(sorted)
		med := quantileSorted(sorted, 0.5)
		iqr := quantileSorted(sorted, 0.75) - quantileSorted(sorted, 0.25)
		for i := range v {
			if iqr == 0 {
				v[i] -= med
				continue
			}
			v[i] = (v[i] - med) / iqr
		}
	}
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

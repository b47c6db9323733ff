// Package vectorizer turns the market snapshots of one window into a
// fixed-length feature vector.
package vectorizer

import (
	"errors"
	"fmt"
	"time"
)

// Dimension is the vector length of every strategy currently deployed.
// Changing it requires re-embedding the whole population.
const Dimension = 128

var (
	ErrInsufficientData  = errors.New("insufficient snapshots in window")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrUnknownStrategy   = errors.New("unknown vectorizer strategy")
)

// Snapshot is one irregularly sampled observation of a token's market state.
// Trade and volume fields are deltas since the previous snapshot; holder and
// risk fields are point-in-time readings.
type Snapshot struct {
	EntityId       string
	Timestamp      time.Time
	PhaseId        int
	Price          float64
	VolumeBuy      float64
	VolumeSell     float64
	BuyCount       int
	SellCount      int
	UniqueWallets  int
	Top10HolderPct float64
	DevHoldingPct  float64
	SniperPct      float64
	Liquidity      float64
}

// Input is the data a strategy encodes: the ordered snapshots of a window.
type Input struct {
	EntityId    string
	WindowStart time.Time
	WindowEnd   time.Time
	Snapshots   []Snapshot
}

func (in Input) Seconds() float64 {
	return in.WindowEnd.Sub(in.WindowStart).Seconds()
}

// Strategy encodes a window into raw (un-normalized) features. The set of
// strategies is closed: new encodings are added as new implementations and
// registered in Lookup.
type Strategy interface {
	Name() string
	Dimension() int
	// LayoutVersion tags the feature layout so vectors of different layouts
	// are never compared.
	LayoutVersion() string
	Encode(in Input) []float64

	sealed()
}

const StrategyHandcraftedV1 = "handcrafted_v1"

// Lookup returns the strategy registered under name.
func Lookup(name string) (Strategy, error) {
	switch name {
	case StrategyHandcraftedV1:
		return handcraftedV1{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Strategies lists the names Lookup accepts.
func Strategies() []string {
	return []string{StrategyHandcraftedV1}
}

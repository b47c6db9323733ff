package entity

import (
	"time"

	"github.com/google/uuid"
)

type SimilarityPair struct {
	EmbeddingIdA uuid.UUID
	EmbeddingIdB uuid.UUID
	Similarity   float64
	ComputedAt   time.Time
	Synced       bool
	SyncedAt     *time.Time
}

// PairKey is an unordered pair in canonical order, A < B by string form.
type PairKey struct {
	A uuid.UUID
	B uuid.UUID
}

func NewPairKey(x, y uuid.UUID) PairKey {
	if x.String() > y.String() {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

func NewSimilarityPair(x, y uuid.UUID, similarity float64, at time.Time) *SimilarityPair {
	k := NewPairKey(x, y)
	return &SimilarityPair{EmbeddingIdA: k.A, EmbeddingIdB: k.B, Similarity: similarity, ComputedAt: at}
}

func (p *SimilarityPair) Key() PairKey {
	return PairKey{A: p.EmbeddingIdA, B: p.EmbeddingIdB}
}

type SyncStatus struct {
	TotalPairs int64
	Synced     int64
	Pending    int64
}

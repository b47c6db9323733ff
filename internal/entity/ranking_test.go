package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRankScored(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	hit := func(sim float64, minutes int) *ScoredEmbedding {
		return &ScoredEmbedding{
			Embedding:  &Embedding{Id: uuid.New(), WindowStart: base.Add(time.Duration(minutes) * time.Minute)},
			Similarity: sim,
		}
	}

	older := hit(0.9, 0)
	newer := hit(0.9, 5)
	best := hit(0.99, 0)
	worst := hit(0.1, 10)

	ranked := RankScored([]*ScoredEmbedding{older, worst, newer, best}, 3)

	assert.Equal(t, []*ScoredEmbedding{best, newer, older}, ranked)
	assert.Empty(t, RankScored(nil, 5))
}

func TestPairKeyIsCanonical(t *testing.T) {
	x, y := uuid.New(), uuid.New()
	assert.Equal(t, NewPairKey(x, y), NewPairKey(y, x))

	k := NewPairKey(x, y)
	assert.Less(t, k.A.String(), k.B.String())
}

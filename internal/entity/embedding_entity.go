package entity

import (
	"time"

	"github.com/google/uuid"
)

type Embedding struct {
	Id            uuid.UUID
	EntityId      string // token mint
	ConfigId      uuid.UUID
	Strategy      string
	LayoutVersion string
	PhaseId       int
	Vector        []float32
	WindowStart   time.Time
	WindowEnd     time.Time
	NumSnapshots  int
	QualityScore  float64
	Label         *string // read-through from the label store
	CreatedAt     time.Time
}

func (e *Embedding) DedupKey() DedupKey {
	return DedupKey{EntityId: e.EntityId, ConfigId: e.ConfigId, WindowStart: e.WindowStart.UTC()}
}

// DedupKey identifies the single embedding allowed per entity, config and
// window.
type DedupKey struct {
	EntityId    string
	ConfigId    uuid.UUID
	WindowStart time.Time
}

// ScoredEmbedding is a search hit.
type ScoredEmbedding struct {
	Embedding  *Embedding
	Similarity float64 // 1 - cosine distance
}

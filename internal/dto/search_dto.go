package dto

import (
	"time"

	"github.com/google/uuid"
)

// SearchRequest takes either a mint, whose latest embedding becomes the
// query, or a raw vector.
type SearchRequest struct {
	Mint          string    `json:"mint" validate:"required_without=Vector"`
	Vector        []float32 `json:"vector" validate:"required_without=Mint"`
	K             int       `json:"k" validate:"omitempty,min=1,max=1000"`
	MinSimilarity float64   `json:"min_similarity" validate:"gte=-1,lte=1"`
	EfSearch      int       `json:"ef_search" validate:"omitempty,min=1,max=1000"`
	PhaseId       *int      `json:"phase_id"`
	Label         *string   `json:"label"`
	Strategy      *string   `json:"strategy"`
}

type SearchHit struct {
	EmbeddingId  uuid.UUID `json:"embedding_id"`
	Mint         string    `json:"mint"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	PhaseId      int       `json:"phase_id"`
	Strategy     string    `json:"strategy"`
	Label        *string   `json:"label"`
	QualityScore float64   `json:"quality_score"`
	Similarity   float64   `json:"similarity"`
}

type SearchResponse struct {
	QueryEmbeddingId *uuid.UUID  `json:"query_embedding_id,omitempty"`
	Results          []SearchHit `json:"results"`
}

type EmbeddingResponse struct {
	Id            uuid.UUID `json:"id"`
	Mint          string    `json:"mint"`
	ConfigId      uuid.UUID `json:"config_id"`
	Strategy      string    `json:"strategy"`
	LayoutVersion string    `json:"layout_version"`
	PhaseId       int       `json:"phase_id"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	NumSnapshots  int       `json:"num_snapshots"`
	QualityScore  float64   `json:"quality_score"`
	Label         *string   `json:"label"`
	Vector        []float32 `json:"vector,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

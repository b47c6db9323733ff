package dto

import (
	"time"

	"github.com/google/uuid"
)

type LabelRequest struct {
	EmbeddingId uuid.UUID `json:"embedding_id" validate:"required"`
	Label       string    `json:"label" validate:"required,max=64"`
	Confidence  *float64  `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Source      string    `json:"source" validate:"omitempty,oneof=manual rule ml"`
}

type LabelResponse struct {
	EmbeddingId       uuid.UUID  `json:"embedding_id"`
	Label             string     `json:"label"`
	Confidence        float64    `json:"confidence"`
	Source            string     `json:"source"`
	SourceEmbeddingId *uuid.UUID `json:"source_embedding_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type PropagateRequest struct {
	SourceLabel     string   `json:"source_label" validate:"required,max=64"`
	MinSimilarity   *float64 `json:"min_similarity" validate:"omitempty,gte=0,lte=1"`
	MaxPropagations *int     `json:"max_propagations" validate:"omitempty,min=0,max=100000"`
}

type PropagateResponse struct {
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
}

type LabelHistoryResponse struct {
	Label             string     `json:"label"`
	Confidence        float64    `json:"confidence"`
	Source            string     `json:"source"`
	SourceEmbeddingId *uuid.UUID `json:"source_embedding_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type LabelSource string

const (
	LabelSourceManual     LabelSource = "manual"
	LabelSourceRule       LabelSource = "rule"
	LabelSourceML         LabelSource = "ml"
	LabelSourcePropagated LabelSource = "propagated"
)

func (s LabelSource) Valid() bool {
	switch s {
	case LabelSourceManual, LabelSourceRule, LabelSourceML, LabelSourcePropagated:
		return true
	}
	return false
}

// Label is the current label of one embedding.
type Label struct {
	Id                uuid.UUID
	EmbeddingId       uuid.UUID
	Label             string
	Confidence        float64
	Source            LabelSource
	SourceEmbeddingId *uuid.UUID // set for propagated labels
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LabelHistory is one audit row; every label write appends one.
type LabelHistory struct {
	Id                uuid.UUID
	EmbeddingId       uuid.UUID
	Label             string
	Confidence        float64
	Source            LabelSource
	SourceEmbeddingId *uuid.UUID
	CreatedAt         time.Time
}

func (l *Label) History() *LabelHistory {
	return &LabelHistory{
		Id:                uuid.New(),
		EmbeddingId:       l.EmbeddingId,
		Label:             l.Label,
		Confidence:        l.Confidence,
		Source:            l.Source,
		SourceEmbeddingId: l.SourceEmbeddingId,
		CreatedAt:         l.UpdatedAt,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type SimilarityPair struct {
	EmbeddingIdA uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmbeddingIdB uuid.UUID `gorm:"type:uuid;primaryKey"`
	Similarity   float64   `gorm:"not null"`
	ComputedAt   time.Time `gorm:"not null"`
	Synced       bool      `gorm:"not null;default:false;index"`
	SyncedAt     *time.Time

	A *PatternEmbedding `gorm:"foreignKey:EmbeddingIdA;constraint:OnDelete:CASCADE"`
	B *PatternEmbedding `gorm:"foreignKey:EmbeddingIdB;constraint:OnDelete:CASCADE"`
}

func (SimilarityPair) TableName() string {
	return "similarity_pairs"
}

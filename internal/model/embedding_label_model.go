package model

import (
	"time"

	"github.com/google/uuid"
)

type EmbeddingLabel struct {
	Id                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmbeddingId       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Label             string     `gorm:"type:varchar(64);not null;index:idx_label_holders,priority:1"`
	Confidence        float64    `gorm:"not null"`
	Source            string     `gorm:"type:varchar(16);not null"`
	SourceEmbeddingId *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time  `gorm:"not null;index:idx_label_holders,priority:2"`
	UpdatedAt         time.Time  `gorm:"not null"`

	Embedding *PatternEmbedding `gorm:"foreignKey:EmbeddingId;constraint:OnDelete:CASCADE"`
}

func (EmbeddingLabel) TableName() string {
	return "embedding_labels"
}

type EmbeddingLabelHistory struct {
	Id                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmbeddingId       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Label             string     `gorm:"type:varchar(64);not null"`
	Confidence        float64    `gorm:"not null"`
	Source            string     `gorm:"type:varchar(16);not null"`
	SourceEmbeddingId *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time  `gorm:"not null"`

	Embedding *PatternEmbedding `gorm:"foreignKey:EmbeddingId;constraint:OnDelete:CASCADE"`
}

func (EmbeddingLabelHistory) TableName() string {
	return "embedding_label_history"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type PatternEmbedding struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityId      string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_embedding_dedup,priority:1;index:idx_embedding_entity_window,priority:1"`
	ConfigId      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_embedding_dedup,priority:2"`
	Strategy      string          `gorm:"type:varchar(64);not null;index"`
	LayoutVersion string          `gorm:"type:varchar(64);not null"`
	PhaseId       int             `gorm:"not null;default:0;index"`
	Vector        pgvector.Vector `gorm:"type:vector(128);not null"`
	WindowStart   time.Time       `gorm:"not null;uniqueIndex:idx_embedding_dedup,priority:3;index:idx_embedding_entity_window,priority:2,sort:desc"`
	WindowEnd     time.Time       `gorm:"not null"`
	NumSnapshots  int             `gorm:"not null"`
	QualityScore  float64         `gorm:"not null;default:0"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`

	Config *EmbeddingConfig `gorm:"foreignKey:ConfigId;constraint:OnDelete:CASCADE"`
}

func (PatternEmbedding) TableName() string {
	return "pattern_embeddings"
}

// ScoredPatternEmbedding is the row shape of a similarity query.
type ScoredPatternEmbedding struct {
	PatternEmbedding
	Label      *string
	Similarity float64
}

package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Embedding specifications qualify columns with the table name because
// search queries join the labels table.

type ByEntity struct {
	EntityId string
}

func (s ByEntity) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("pattern_embeddings.entity_id = ?", s.EntityId)
}

type ByDedupKey struct {
	EntityId    string
	ConfigId    uuid.UUID
	WindowStart time.Time
}

func (s ByDedupKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("pattern_embeddings.entity_id = ? AND pattern_embeddings.config_id = ? AND pattern_embeddings.window_start = ?",
		s.EntityId, s.ConfigId, s.WindowStart.UTC())
}

type ByStrategy struct {
	Strategy string
}

func (s ByStrategy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("pattern_embeddings.strategy = ?", s.Strategy)
}

type ByPhase struct {
	PhaseId int
}

func (s ByPhase) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("pattern_embeddings.phase_id = ?", s.PhaseId)
}

// ByLabel requires embedding_labels to be joined.
type ByLabel struct {
	Label string
}

func (s ByLabel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_labels.label = ?", s.Label)
}

type ExcludeEmbeddings struct {
	IDs []uuid.UUID
}

func (s ExcludeEmbeddings) Apply(db *gorm.DB) *gorm.DB {
	if len(s.IDs) == 0 {
		return db
	}
	return db.Where("pattern_embeddings.id NOT IN ?", s.IDs)
}

// SeededOrder orders rows pseudo-randomly but reproducibly for a seed.
type SeededOrder struct {
	Seed int64
}

func (s SeededOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(gorm.Expr("md5(pattern_embeddings.id::text || ?::text)", s.Seed))
}

type ActiveConfigs struct{}

func (s ActiveConfigs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

type PendingSync struct{}

func (s PendingSync) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("synced = ?", false)
}

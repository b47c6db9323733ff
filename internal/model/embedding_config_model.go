package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EmbeddingConfig struct {
	Id                   uuid.UUID                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                 string                   `gorm:"type:varchar(128);not null;uniqueIndex"`
	Strategy             string                   `gorm:"type:varchar(64);not null"`
	WindowSeconds        int                      `gorm:"not null"`
	WindowOverlapSeconds int                      `gorm:"not null;default:0"`
	MinSnapshots         int                      `gorm:"not null;default:1"`
	PhaseFilter          datatypes.JSONSlice[int] `gorm:"type:jsonb"`
	Normalization        string                   `gorm:"type:varchar(16);not null;default:'minmax'"`
	IsActive             bool                     `gorm:"not null;default:true;index"`
	CreatedAt            time.Time                `gorm:"autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"autoUpdateTime"`
}

func (EmbeddingConfig) TableName() string {
	return "embedding_configs"
}

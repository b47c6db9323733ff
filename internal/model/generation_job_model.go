package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GenerationJob struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	JobType           string         `gorm:"type:varchar(16);not null"`
	ConfigId          *uuid.UUID     `gorm:"type:uuid"`
	ProcessStart      time.Time      `gorm:"not null"`
	ProcessEnd        time.Time      `gorm:"not null"`
	Status            string         `gorm:"type:varchar(16);not null;index"`
	EmbeddingsCreated int            `gorm:"not null;default:0"`
	WindowsSkipped    int            `gorm:"not null;default:0"`
	EntitiesFailed    int            `gorm:"not null;default:0"`
	ErrorMessage      string         `gorm:"type:text"`
	Stats             datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index"`
	StartedAt         *time.Time
	CompletedAt       *time.Time
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}

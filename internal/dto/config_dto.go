package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConfigRequest struct {
	Name                 string `json:"name" validate:"required,max=128"`
	Strategy             string `json:"strategy" validate:"required"`
	WindowSeconds        int    `json:"window_seconds" validate:"required,min=1"`
	WindowOverlapSeconds int    `json:"window_overlap_seconds" validate:"min=0"`
	MinSnapshots         int    `json:"min_snapshots" validate:"required,min=1"`
	PhaseFilter          []int  `json:"phase_filter"`
	Normalization        string `json:"normalization" validate:"omitempty,oneof=minmax zscore robust none"`
	IsActive             *bool  `json:"is_active"`
}

type UpdateConfigActiveRequest struct {
	Id       uuid.UUID
	IsActive *bool `json:"is_active" validate:"required"`
}

type ConfigResponse struct {
	Id                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Strategy             string     `json:"strategy"`
	WindowSeconds        int        `json:"window_seconds"`
	WindowOverlapSeconds int        `json:"window_overlap_seconds"`
	MinSnapshots         int        `json:"min_snapshots"`
	PhaseFilter          []int      `json:"phase_filter"`
	Normalization        string     `json:"normalization"`
	IsActive             bool       `json:"is_active"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at"`
}

package dto

import (
	"time"

	"token-pattern-be/internal/entity"

	"github.com/google/uuid"
)

type GenerateRequest struct {
	Start    time.Time  `json:"start" validate:"required"`
	End      time.Time  `json:"end" validate:"required,gtfield=Start"`
	ConfigId *uuid.UUID `json:"config_id"`
}

type GenerateResponse struct {
	JobId uuid.UUID `json:"job_id"`
}

type JobResponse struct {
	Id                uuid.UUID       `json:"id"`
	JobType           string          `json:"job_type"`
	ConfigId          *uuid.UUID      `json:"config_id"`
	ProcessStart      time.Time       `json:"process_start"`
	ProcessEnd        time.Time       `json:"process_end"`
	Status            string          `json:"status"`
	EmbeddingsCreated int             `json:"embeddings_created"`
	WindowsSkipped    int             `json:"windows_skipped"`
	EntitiesFailed    int             `json:"entities_failed"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	Stats             entity.JobStats `json:"stats"`
	CreatedAt         time.Time       `json:"created_at"`
	StartedAt         *time.Time      `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at"`
}

type SchedulerStatusResponse struct {
	State         string     `json:"state"`
	Cycles        int64      `json:"cycles"`
	LastCycleAt   *time.Time `json:"last_cycle_at"`
	LastJobId     *uuid.UUID `json:"last_job_id"`
	ActiveConfigs int        `json:"active_configs"`
	Halted        []string   `json:"halted_strategies"`
}

// EmbeddingsCreatedMessage is the in-process event published after a cycle
// commits new embeddings.
type EmbeddingsCreatedMessage struct {
	JobId        uuid.UUID   `json:"job_id"`
	EmbeddingIds []uuid.UUID `json:"embedding_ids"`
}

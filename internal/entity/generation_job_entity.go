package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeScheduled JobType = "scheduled"
	JobTypeManual    JobType = "manual"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type GenerationJob struct {
	Id                uuid.UUID
	JobType           JobType
	ConfigId          *uuid.UUID
	ProcessStart      time.Time
	ProcessEnd        time.Time
	Status            JobStatus
	EmbeddingsCreated int
	WindowsSkipped    int
	EntitiesFailed    int
	ErrorMessage      string
	Stats             JobStats
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
}

// JobStats is the per-cycle breakdown stored as JSON on the job row.
type JobStats struct {
	Configs           int            `json:"configs"`
	Entities          int            `json:"entities"`
	WindowsSeen       int            `json:"windows_seen"`
	WindowsDuplicate  int            `json:"windows_duplicate"`
	WindowsTimedOut   int            `json:"windows_timed_out"`
	HaltedStrategies  []string       `json:"halted_strategies,omitempty"`
	CreatedByConfig   map[string]int `json:"created_by_config,omitempty"`
	PairsPublished    int            `json:"pairs_published"`
	DurationMillis    int64          `json:"duration_ms"`
}

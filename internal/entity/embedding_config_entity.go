package entity

import (
	"time"

	"token-pattern-be/pkg/vectorizer"
	"token-pattern-be/pkg/window"

	"github.com/google/uuid"
)

type EmbeddingConfig struct {
	Id                   uuid.UUID
	Name                 string
	Strategy             string
	WindowSeconds        int
	WindowOverlapSeconds int
	MinSnapshots         int
	PhaseFilter          []int // empty means every phase
	Normalization        vectorizer.Normalization
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

func (c *EmbeddingConfig) WindowSpec() window.Spec {
	return window.SpecFromSeconds(c.WindowSeconds, c.WindowOverlapSeconds)
}

// Validate applies the invariants checked when a config is written.
func (c *EmbeddingConfig) Validate() error {
	if err := window.ValidateConfig(c.WindowSeconds, c.WindowOverlapSeconds, c.MinSnapshots); err != nil {
		return err
	}
	if _, err := vectorizer.Lookup(c.Strategy); err != nil {
		return err
	}
	if _, err := vectorizer.ParseNormalization(string(c.Normalization)); err != nil {
		return err
	}
	return nil
}

func (c *EmbeddingConfig) VectorizeOptions() vectorizer.Options {
	return vectorizer.Options{
		MinSnapshots:  c.MinSnapshots,
		PhaseFilter:   c.PhaseFilter,
		Normalization: c.Normalization,
	}
}

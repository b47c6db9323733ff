package mapper

import (
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/model"
	"token-pattern-be/pkg/vectorizer"

	"gorm.io/datatypes"
)

type EmbeddingConfigMapper struct{}

func NewEmbeddingConfigMapper() *EmbeddingConfigMapper {
	return &EmbeddingConfigMapper{}
}

func (m *EmbeddingConfigMapper) ToEntity(c *model.EmbeddingConfig) *entity.EmbeddingConfig {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.EmbeddingConfig{
		Id:                   c.Id,
		Name:                 c.Name,
		Strategy:             c.Strategy,
		WindowSeconds:        c.WindowSeconds,
		WindowOverlapSeconds: c.WindowOverlapSeconds,
		MinSnapshots:         c.MinSnapshots,
		PhaseFilter:          append([]int(nil), c.PhaseFilter...),
		Normalization:        vectorizer.Normalization(c.Normalization),
		IsActive:             c.IsActive,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *EmbeddingConfigMapper) ToModel(c *entity.EmbeddingConfig) *model.EmbeddingConfig {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.EmbeddingConfig{
		Id:                   c.Id,
		Name:                 c.Name,
		Strategy:             c.Strategy,
		WindowSeconds:        c.WindowSeconds,
		WindowOverlapSeconds: c.WindowOverlapSeconds,
		MinSnapshots:         c.MinSnapshots,
		PhaseFilter:          datatypes.JSONSlice[int](c.PhaseFilter),
		Normalization:        string(c.Normalization),
		IsActive:             c.IsActive,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *EmbeddingConfigMapper) ToEntities(configs []*model.EmbeddingConfig) []*entity.EmbeddingConfig {
	entities := make([]*entity.EmbeddingConfig, len(configs))
	for i, c := range configs {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

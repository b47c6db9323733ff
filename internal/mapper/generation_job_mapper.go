package mapper

import (
	"encoding/json"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/model"

	"gorm.io/datatypes"
)

type GenerationJobMapper struct{}

func NewGenerationJobMapper() *GenerationJobMapper {
	return &GenerationJobMapper{}
}

func (m *GenerationJobMapper) ToEntity(j *model.GenerationJob) *entity.GenerationJob {
	if j == nil {
		return nil
	}
	var stats entity.JobStats
	if len(j.Stats) > 0 {
		// A malformed stats blob only loses the breakdown, not the job.
		_ = json.Unmarshal(j.Stats, &stats)
	}
	return &entity.GenerationJob{
		Id:                j.Id,
		JobType:           entity.JobType(j.JobType),
		ConfigId:          j.ConfigId,
		ProcessStart:      j.ProcessStart.UTC(),
		ProcessEnd:        j.ProcessEnd.UTC(),
		Status:            entity.JobStatus(j.Status),
		EmbeddingsCreated: j.EmbeddingsCreated,
		WindowsSkipped:    j.WindowsSkipped,
		EntitiesFailed:    j.EntitiesFailed,
		ErrorMessage:      j.ErrorMessage,
		Stats:             stats,
		CreatedAt:         j.CreatedAt,
		StartedAt:         j.StartedAt,
		CompletedAt:       j.CompletedAt,
	}
}

func (m *GenerationJobMapper) ToModel(j *entity.GenerationJob) (*model.GenerationJob, error) {
	if j == nil {
		return nil, nil
	}
	stats, err := json.Marshal(j.Stats)
	if err != nil {
		return nil, err
	}
	return &model.GenerationJob{
		Id:                j.Id,
		JobType:           string(j.JobType),
		ConfigId:          j.ConfigId,
		ProcessStart:      j.ProcessStart,
		ProcessEnd:        j.ProcessEnd,
		Status:            string(j.Status),
		EmbeddingsCreated: j.EmbeddingsCreated,
		WindowsSkipped:    j.WindowsSkipped,
		EntitiesFailed:    j.EntitiesFailed,
		ErrorMessage:      j.ErrorMessage,
		Stats:             datatypes.JSON(stats),
		CreatedAt:         j.CreatedAt,
		StartedAt:         j.StartedAt,
		CompletedAt:       j.CompletedAt,
	}, nil
}

func (m *GenerationJobMapper) ToEntities(jobs []*model.GenerationJob) []*entity.GenerationJob {
	entities := make([]*entity.GenerationJob, len(jobs))
	for i, j := range jobs {
		entities[i] = m.ToEntity(j)
	}
	return entities
}

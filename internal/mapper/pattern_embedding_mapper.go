package mapper

import (
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type PatternEmbeddingMapper struct{}

func NewPatternEmbeddingMapper() *PatternEmbeddingMapper {
	return &PatternEmbeddingMapper{}
}

func (m *PatternEmbeddingMapper) ToEntity(e *model.PatternEmbedding) *entity.Embedding {
	if e == nil {
		return nil
	}
	return &entity.Embedding{
		Id:            e.Id,
		EntityId:      e.EntityId,
		ConfigId:      e.ConfigId,
		Strategy:      e.Strategy,
		LayoutVersion: e.LayoutVersion,
		PhaseId:       e.PhaseId,
		Vector:        e.Vector.Slice(),
		WindowStart:   e.WindowStart.UTC(),
		WindowEnd:     e.WindowEnd.UTC(),
		NumSnapshots:  e.NumSnapshots,
		QualityScore:  e.QualityScore,
		CreatedAt:     e.CreatedAt,
	}
}

func (m *PatternEmbeddingMapper) ToModel(e *entity.Embedding) *model.PatternEmbedding {
	if e == nil {
		return nil
	}
	return &model.PatternEmbedding{
		Id:            e.Id,
		EntityId:      e.EntityId,
		ConfigId:      e.ConfigId,
		Strategy:      e.Strategy,
		LayoutVersion: e.LayoutVersion,
		PhaseId:       e.PhaseId,
		Vector:        pgvector.NewVector(e.Vector),
		WindowStart:   e.WindowStart.UTC(),
		WindowEnd:     e.WindowEnd.UTC(),
		NumSnapshots:  e.NumSnapshots,
		QualityScore:  e.QualityScore,
		CreatedAt:     e.CreatedAt,
	}
}

func (m *PatternEmbeddingMapper) ToEntities(embeddings []*model.PatternEmbedding) []*entity.Embedding {
	entities := make([]*entity.Embedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func (m *PatternEmbeddingMapper) ToScored(rows []*model.ScoredPatternEmbedding) []*entity.ScoredEmbedding {
	out := make([]*entity.ScoredEmbedding, len(rows))
	for i, r := range rows {
		e := m.ToEntity(&r.PatternEmbedding)
		e.Label = r.Label
		out[i] = &entity.ScoredEmbedding{Embedding: e, Similarity: r.Similarity}
	}
	return out
}

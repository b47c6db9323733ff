package mapper

import (
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/model"
)

type SimilarityPairMapper struct{}

func NewSimilarityPairMapper() *SimilarityPairMapper {
	return &SimilarityPairMapper{}
}

func (m *SimilarityPairMapper) ToEntity(p *model.SimilarityPair) *entity.SimilarityPair {
	if p == nil {
		return nil
	}
	return &entity.SimilarityPair{
		EmbeddingIdA: p.EmbeddingIdA,
		EmbeddingIdB: p.EmbeddingIdB,
		Similarity:   p.Similarity,
		ComputedAt:   p.ComputedAt,
		Synced:       p.Synced,
		SyncedAt:     p.SyncedAt,
	}
}

func (m *SimilarityPairMapper) ToModel(p *entity.SimilarityPair) *model.SimilarityPair {
	if p == nil {
		return nil
	}
	return &model.SimilarityPair{
		EmbeddingIdA: p.EmbeddingIdA,
		EmbeddingIdB: p.EmbeddingIdB,
		Similarity:   p.Similarity,
		ComputedAt:   p.ComputedAt,
		Synced:       p.Synced,
		SyncedAt:     p.SyncedAt,
	}
}

func (m *SimilarityPairMapper) ToEntities(pairs []*model.SimilarityPair) []*entity.SimilarityPair {
	entities := make([]*entity.SimilarityPair, len(pairs))
	for i, p := range pairs {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

func (m *SimilarityPairMapper) ToModels(pairs []*entity.SimilarityPair) []*model.SimilarityPair {
	models := make([]*model.SimilarityPair, len(pairs))
	for i, p := range pairs {
		models[i] = m.ToModel(p)
	}
	return models
}

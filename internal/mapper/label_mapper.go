package mapper

import (
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/model"
)

type LabelMapper struct{}

func NewLabelMapper() *LabelMapper {
	return &LabelMapper{}
}

func (m *LabelMapper) ToEntity(l *model.EmbeddingLabel) *entity.Label {
	if l == nil {
		return nil
	}
	return &entity.Label{
		Id:                l.Id,
		EmbeddingId:       l.EmbeddingId,
		Label:             l.Label,
		Confidence:        l.Confidence,
		Source:            entity.LabelSource(l.Source),
		SourceEmbeddingId: l.SourceEmbeddingId,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func (m *LabelMapper) ToModel(l *entity.Label) *model.EmbeddingLabel {
	if l == nil {
		return nil
	}
	return &model.EmbeddingLabel{
		Id:                l.Id,
		EmbeddingId:       l.EmbeddingId,
		Label:             l.Label,
		Confidence:        l.Confidence,
		Source:            string(l.Source),
		SourceEmbeddingId: l.SourceEmbeddingId,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func (m *LabelMapper) ToEntities(labels []*model.EmbeddingLabel) []*entity.Label {
	entities := make([]*entity.Label, len(labels))
	for i, l := range labels {
		entities[i] = m.ToEntity(l)
	}
	return entities
}

func (m *LabelMapper) HistoryToModel(h *entity.LabelHistory) *model.EmbeddingLabelHistory {
	return &model.EmbeddingLabelHistory{
		Id:                h.Id,
		EmbeddingId:       h.EmbeddingId,
		Label:             h.Label,
		Confidence:        h.Confidence,
		Source:            string(h.Source),
		SourceEmbeddingId: h.SourceEmbeddingId,
		CreatedAt:         h.CreatedAt,
	}
}

func (m *LabelMapper) HistoryToEntities(rows []*model.EmbeddingLabelHistory) []*entity.LabelHistory {
	out := make([]*entity.LabelHistory, len(rows))
	for i, h := range rows {
		out[i] = &entity.LabelHistory{
			Id:                h.Id,
			EmbeddingId:       h.EmbeddingId,
			Label:             h.Label,
			Confidence:        h.Confidence,
			Source:            entity.LabelSource(h.Source),
			SourceEmbeddingId: h.SourceEmbeddingId,
			CreatedAt:         h.CreatedAt,
		}
	}
	return out
}

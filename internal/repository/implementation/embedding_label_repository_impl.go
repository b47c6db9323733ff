package implementation

import (
	"context"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/mapper"
	"token-pattern-be/internal/model"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmbeddingLabelRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LabelMapper
}

func NewEmbeddingLabelRepository(db *gorm.DB) contract.LabelRepository {
	return &EmbeddingLabelRepositoryImpl{
		db:     db,
		mapper: mapper.NewLabelMapper(),
	}
}

func prepareLabel(l *entity.Label) {
	now := time.Now()
	if l.Id == uuid.Nil {
		l.Id = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = now
	}
}

func (r *EmbeddingLabelRepositoryImpl) appendHistory(ctx context.Context, l *entity.Label) error {
	return r.db.WithContext(ctx).Create(r.mapper.HistoryToModel(l.History())).Error
}

func (r *EmbeddingLabelRepositoryImpl) Upsert(ctx context.Context, l *entity.Label) error {
	prepareLabel(l)
	m := r.mapper.ToModel(l)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "embedding_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "confidence", "source", "source_embedding_id", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return wrapDBError(err)
	}

	var stored model.EmbeddingLabel
	if err := r.db.WithContext(ctx).Where("embedding_id = ?", l.EmbeddingId).First(&stored).Error; err != nil {
		return wrapDBError(err)
	}
	*l = *r.mapper.ToEntity(&stored)

	return wrapDBError(r.appendHistory(ctx, l))
}

func (r *EmbeddingLabelRepositoryImpl) AssignIfUnlabeled(ctx context.Context, l *entity.Label) (bool, error) {
	prepareLabel(l)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "embedding_id"}},
			DoNothing: true,
		}).
		Create(r.mapper.ToModel(l))
	if res.Error != nil {
		return false, wrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, wrapDBError(r.appendHistory(ctx, l))
}

func (r *EmbeddingLabelRepositoryImpl) FindByEmbeddingId(ctx context.Context, embeddingId uuid.UUID) (*entity.Label, error) {
	var m model.EmbeddingLabel
	if err := r.db.WithContext(ctx).Where("embedding_id = ?", embeddingId).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *EmbeddingLabelRepositoryImpl) FindByEmbeddingIds(ctx context.Context, embeddingIds []uuid.UUID) (map[uuid.UUID]*entity.Label, error) {
	out := make(map[uuid.UUID]*entity.Label, len(embeddingIds))
	if len(embeddingIds) == 0 {
		return out, nil
	}
	var models []*model.EmbeddingLabel
	if err := r.db.WithContext(ctx).Where("embedding_id IN ?", embeddingIds).Find(&models).Error; err != nil {
		return nil, wrapDBError(err)
	}
	for _, l := range r.mapper.ToEntities(models) {
		out[l.EmbeddingId] = l
	}
	return out, nil
}

func (r *EmbeddingLabelRepositoryImpl) FindHolders(ctx context.Context, label string) ([]*entity.Label, error) {
	var models []*model.EmbeddingLabel
	query := r.db.WithContext(ctx)
	for _, spec := range []specification.Specification{
		specification.Filter("label", label),
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "embedding_id"},
	} {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *EmbeddingLabelRepositoryImpl) History(ctx context.Context, embeddingId uuid.UUID) ([]*entity.LabelHistory, error) {
	var rows []*model.EmbeddingLabelHistory
	err := r.db.WithContext(ctx).
		Where("embedding_id = ?", embeddingId).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return r.mapper.HistoryToEntities(rows), nil
}

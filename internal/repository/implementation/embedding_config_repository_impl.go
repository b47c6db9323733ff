package implementation

import (
	"context"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/mapper"
	"token-pattern-be/internal/model"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmbeddingConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EmbeddingConfigMapper
}

func NewEmbeddingConfigRepository(db *gorm.DB) contract.EmbeddingConfigRepository {
	return &EmbeddingConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewEmbeddingConfigMapper(),
	}
}

func (r *EmbeddingConfigRepositoryImpl) Create(ctx context.Context, c *entity.EmbeddingConfig) error {
	m := r.mapper.ToModel(c)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return wrapDBError(err)
	}
	*c = *r.mapper.ToEntity(m)
	return nil
}

func (r *EmbeddingConfigRepositoryImpl) findOne(ctx context.Context, spec specification.Specification) (*entity.EmbeddingConfig, error) {
	var m model.EmbeddingConfig
	if err := spec.Apply(r.db.WithContext(ctx)).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *EmbeddingConfigRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.EmbeddingConfig, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *EmbeddingConfigRepositoryImpl) FindByName(ctx context.Context, name string) (*entity.EmbeddingConfig, error) {
	return r.findOne(ctx, specification.Filter("name", name))
}

func (r *EmbeddingConfigRepositoryImpl) List(ctx context.Context, activeOnly bool) ([]*entity.EmbeddingConfig, error) {
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = specification.ActiveConfigs{}.Apply(query)
	}
	query = specification.OrderBy{Field: "name"}.Apply(query)

	var models []*model.EmbeddingConfig
	if err := query.Find(&models).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *EmbeddingConfigRepositoryImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.EmbeddingConfig{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return wrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound.WithMessage("embedding config %s not found", id)
	}
	return nil
}

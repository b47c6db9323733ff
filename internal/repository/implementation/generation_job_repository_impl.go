package implementation

import (
	"context"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/mapper"
	"token-pattern-be/internal/model"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationJobRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GenerationJobMapper
}

func NewGenerationJobRepository(db *gorm.DB) contract.GenerationJobRepository {
	return &GenerationJobRepositoryImpl{
		db:     db,
		mapper: mapper.NewGenerationJobMapper(),
	}
}

func (r *GenerationJobRepositoryImpl) Create(ctx context.Context, j *entity.GenerationJob) error {
	if j.Id == uuid.Nil {
		j.Id = uuid.New()
	}
	m, err := r.mapper.ToModel(j)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return wrapDBError(err)
	}
	*j = *r.mapper.ToEntity(m)
	return nil
}

func (r *GenerationJobRepositoryImpl) Update(ctx context.Context, j *entity.GenerationJob) error {
	m, err := r.mapper.ToModel(j)
	if err != nil {
		return err
	}
	return wrapDBError(r.db.WithContext(ctx).Save(m).Error)
}

func (r *GenerationJobRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.GenerationJob, error) {
	var m model.GenerationJob
	if err := (specification.ByID{ID: id}).Apply(r.db.WithContext(ctx)).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *GenerationJobRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*entity.GenerationJob, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	} {
		query = spec.Apply(query)
	}
	var models []*model.GenerationJob
	if err := query.Find(&models).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return r.mapper.ToEntities(models), nil
}

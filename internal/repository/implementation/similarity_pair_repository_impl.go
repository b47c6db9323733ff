package implementation

import (
	"context"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/mapper"
	"token-pattern-be/internal/model"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SimilarityPairRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SimilarityPairMapper
}

func NewSimilarityPairRepository(db *gorm.DB) contract.SimilarityPairRepository {
	return &SimilarityPairRepositoryImpl{
		db:     db,
		mapper: mapper.NewSimilarityPairMapper(),
	}
}

func (r *SimilarityPairRepositoryImpl) UpsertBulk(ctx context.Context, pairs []*entity.SimilarityPair) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "embedding_id_a"}, {Name: "embedding_id_b"}},
			DoNothing: true,
		}).
		CreateInBatches(r.mapper.ToModels(pairs), 500)
	if res.Error != nil {
		return 0, wrapDBError(res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *SimilarityPairRepositoryImpl) FindPending(ctx context.Context, limit int) ([]*entity.SimilarityPair, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range []specification.Specification{
		specification.PendingSync{},
		specification.OrderBy{Field: "computed_at"},
		specification.Pagination{Limit: limit},
	} {
		query = spec.Apply(query)
	}
	var models []*model.SimilarityPair
	if err := query.Find(&models).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SimilarityPairRepositoryImpl) MarkSynced(ctx context.Context, keys []entity.PairKey, at time.Time) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	tuples := make([][]interface{}, len(keys))
	for i, k := range keys {
		tuples[i] = []interface{}{k.A, k.B}
	}
	res := r.db.WithContext(ctx).
		Model(&model.SimilarityPair{}).
		Where("(embedding_id_a, embedding_id_b) IN ?", tuples).
		Where("synced = ?", false).
		Updates(map[string]interface{}{"synced": true, "synced_at": at})
	return res.RowsAffected, wrapDBError(res.Error)
}

func (r *SimilarityPairRepositoryImpl) Status(ctx context.Context) (*entity.SyncStatus, error) {
	var row struct {
		Total  int64
		Synced int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.SimilarityPair{}).
		Select("count(*) AS total, count(*) FILTER (WHERE synced) AS synced").
		Scan(&row).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &entity.SyncStatus{TotalPairs: row.Total, Synced: row.Synced, Pending: row.Total - row.Synced}, nil
}

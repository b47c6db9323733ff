package implementation

import (
	"context"
	"fmt"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/mapper"
	"token-pattern-be/internal/model"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/specification"
	"token-pattern-be/pkg/vectorizer"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatternEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PatternEmbeddingMapper
}

func NewPatternEmbeddingRepository(db *gorm.DB) contract.EmbeddingRepository {
	return &PatternEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewPatternEmbeddingMapper(),
	}
}

func (r *PatternEmbeddingRepositoryImpl) Upsert(ctx context.Context, e *entity.Embedding) (bool, error) {
	if err := vectorizer.ValidateVector(e.Strategy, e.Vector); err != nil {
		return false, apperror.ErrDimensionMismatch.WithInternal(err)
	}

	m := r.mapper.ToModel(e)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "config_id"}, {Name: "window_start"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		return false, wrapDBError(res.Error)
	}
	if res.RowsAffected == 1 {
		*e = *r.mapper.ToEntity(m)
		return true, nil
	}

	// The window was already embedded; refresh the computed columns in place.
	key := specification.ByDedupKey{EntityId: m.EntityId, ConfigId: m.ConfigId, WindowStart: m.WindowStart}
	err := key.Apply(r.db.WithContext(ctx).Model(&model.PatternEmbedding{})).
		Updates(map[string]interface{}{
			"strategy":       m.Strategy,
			"layout_version": m.LayoutVersion,
			"phase_id":       m.PhaseId,
			"vector":         m.Vector,
			"window_end":     m.WindowEnd,
			"num_snapshots":  m.NumSnapshots,
			"quality_score":  m.QualityScore,
		}).Error
	if err != nil {
		return false, wrapDBError(err)
	}

	var stored model.PatternEmbedding
	if err := key.Apply(r.db.WithContext(ctx)).First(&stored).Error; err != nil {
		return false, wrapDBError(err)
	}
	*e = *r.mapper.ToEntity(&stored)
	return false, nil
}

func (r *PatternEmbeddingRepositoryImpl) Exists(ctx context.Context, key entity.DedupKey) (bool, error) {
	var count int64
	q := specification.ByDedupKey{EntityId: key.EntityId, ConfigId: key.ConfigId, WindowStart: key.WindowStart}.
		Apply(r.db.WithContext(ctx).Model(&model.PatternEmbedding{}))
	if err := q.Count(&count).Error; err != nil {
		return false, wrapDBError(err)
	}
	return count > 0, nil
}

func (r *PatternEmbeddingRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Embedding, error) {
	var m model.PatternEmbedding
	query := specification.All(specs).Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}
	e := r.mapper.ToEntity(&m)

	var label model.EmbeddingLabel
	err := r.db.WithContext(ctx).Where("embedding_id = ?", e.Id).First(&label).Error
	switch {
	case err == nil:
		e.Label = &label.Label
	case !isNotFound(err):
		return nil, wrapDBError(err)
	}
	return e, nil
}

func (r *PatternEmbeddingRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Embedding, error) {
	return r.findOne(ctx, specification.Filter("pattern_embeddings.id", id))
}

func (r *PatternEmbeddingRepositoryImpl) FindLatestByEntity(ctx context.Context, entityId string, strategy *string) (*entity.Embedding, error) {
	specs := []specification.Specification{specification.ByEntity{EntityId: entityId}}
	if strategy != nil {
		specs = append(specs, specification.ByStrategy{Strategy: *strategy})
	}
	specs = append(specs,
		specification.OrderBy{Field: "pattern_embeddings.window_start", Desc: true},
		specification.OrderBy{Field: "pattern_embeddings.created_at", Desc: true},
	)
	return r.findOne(ctx, specs...)
}

func filterSpecs(f contract.EmbeddingFilter, exclude []uuid.UUID) []specification.Specification {
	var specs []specification.Specification
	if f.PhaseId != nil {
		specs = append(specs, specification.ByPhase{PhaseId: *f.PhaseId})
	}
	if f.Label != nil {
		specs = append(specs, specification.ByLabel{Label: *f.Label})
	}
	if f.Strategy != nil {
		specs = append(specs, specification.ByStrategy{Strategy: *f.Strategy})
	}
	return append(specs, specification.ExcludeEmbeddings{IDs: exclude})
}

// Search ranks by cosine similarity using the HNSW index. ef_search is set
// per transaction; the query over-fetches to max(k, ef_search) candidates
// so filtered and thresholded results still fill k where possible.
func (r *PatternEmbeddingRepositoryImpl) Search(ctx context.Context, q contract.SearchQuery) ([]*entity.ScoredEmbedding, error) {
	if len(q.Vector) != vectorizer.Dimension {
		return nil, apperror.ErrDimensionMismatch.WithMessage("query vector has %d dimensions, index holds %d", len(q.Vector), vectorizer.Dimension)
	}
	if q.K <= 0 {
		return []*entity.ScoredEmbedding{}, nil
	}

	vec := pgvector.NewVector(q.Vector)
	fetch := max(q.K, q.EfSearch)

	var rows []*model.ScoredPatternEmbedding
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if q.EfSearch > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", q.EfSearch)).Error; err != nil {
				return err
			}
		}
		query := tx.Table("pattern_embeddings").
			Select("pattern_embeddings.*, embedding_labels.label AS label, 1 - (pattern_embeddings.vector <=> ?) AS similarity", vec).
			Joins("LEFT JOIN embedding_labels ON embedding_labels.embedding_id = pattern_embeddings.id")
		query = specification.All(filterSpecs(q.Filter, q.ExcludeIds)).Apply(query)
		return query.
			Order(clause.Expr{SQL: "pattern_embeddings.vector <=> ?", Vars: []interface{}{vec}}).
			Limit(fetch).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	kept := rows[:0]
	for _, row := range rows {
		if row.Similarity >= q.MinSimilarity {
			kept = append(kept, row)
		}
	}
	return entity.RankScored(r.mapper.ToScored(kept), q.K), nil
}

func (r *PatternEmbeddingRepositoryImpl) SearchByID(ctx context.Context, id uuid.UUID, q contract.SearchQuery) ([]*entity.ScoredEmbedding, error) {
	var m model.PatternEmbedding
	if err := r.db.WithContext(ctx).Select("id", "vector").Where("id = ?", id).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.ErrNotFound.WithMessage("embedding %s not found", id)
		}
		return nil, wrapDBError(err)
	}
	q.Vector = m.Vector.Slice()
	q.ExcludeIds = append(q.ExcludeIds, id)
	return r.Search(ctx, q)
}

func (r *PatternEmbeddingRepositoryImpl) Sample(ctx context.Context, q contract.SampleQuery) ([]*entity.Embedding, error) {
	var specs []specification.Specification
	if q.Strategy != nil {
		specs = append(specs, specification.ByStrategy{Strategy: *q.Strategy})
	}
	if q.Seed != nil {
		specs = append(specs, specification.SeededOrder{Seed: *q.Seed})
	} else {
		specs = append(specs,
			specification.OrderBy{Field: "pattern_embeddings.window_start", Desc: true},
			specification.OrderBy{Field: "pattern_embeddings.id"},
		)
	}
	specs = append(specs, specification.Pagination{Limit: q.Limit})

	var rows []*model.ScoredPatternEmbedding
	query := r.db.WithContext(ctx).Table("pattern_embeddings").
		Select("pattern_embeddings.*, embedding_labels.label AS label").
		Joins("LEFT JOIN embedding_labels ON embedding_labels.embedding_id = pattern_embeddings.id")
	if err := specification.All(specs).Apply(query).Scan(&rows).Error; err != nil {
		return nil, wrapDBError(err)
	}

	out := make([]*entity.Embedding, len(rows))
	for i, row := range rows {
		out[i] = r.mapper.ToEntity(&row.PatternEmbedding)
		out[i].Label = row.Label
	}
	return out, nil
}

func (r *PatternEmbeddingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PatternEmbedding{}).Count(&count).Error
	return count, wrapDBError(err)
}

func (r *PatternEmbeddingRepositoryImpl) DimensionReport(ctx context.Context) ([]contract.DimensionStat, error) {
	var stats []contract.DimensionStat
	err := r.db.WithContext(ctx).
		Table("pattern_embeddings").
		Select("strategy, layout_version, vector_dims(vector) AS dimension, count(*) AS count").
		Group("strategy, layout_version, vector_dims(vector)").
		Order("strategy, layout_version, dimension").
		Scan(&stats).Error
	return stats, wrapDBError(err)
}

package integration

import (
	"context"
	"log"
	"math"
	"os"
	"testing"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/model"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/implementation"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/database"
	"token-pattern-be/pkg/ingestion"
	"token-pattern-be/pkg/vectorizer"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.Options{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error)
	require.NoError(t, db.AutoMigrate(
		&model.TokenSnapshot{},
		&model.EmbeddingConfig{},
		&model.PatternEmbedding{},
		&model.EmbeddingLabel{},
		&model.EmbeddingLabelHistory{},
		&model.GenerationJob{},
		&model.SimilarityPair{},
	))
	return db
}

func direction(cos float64, axis int) []float32 {
	v := make([]float32, vectorizer.Dimension)
	v[0] = float32(cos)
	v[axis] = float32(math.Sqrt(1 - cos*cos))
	return v
}

func TestPatternRepositories(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	cfg := &entity.EmbeddingConfig{
		Name:          "integration-" + uuid.NewString(),
		Strategy:      vectorizer.StrategyHandcraftedV1,
		WindowSeconds: 300,
		MinSnapshots:  3,
		Normalization: vectorizer.NormalizationMinMax,
		IsActive:      true,
	}
	require.NoError(t, uow.EmbeddingConfigRepository().Create(ctx, cfg))
	t.Cleanup(func() {
		db.Where("id = ?", cfg.Id).Delete(&model.EmbeddingConfig{})
	})

	t0 := time.Now().UTC().Truncate(time.Hour)
	mint := "INT" + uuid.NewString()[:8]
	embed := func(start time.Time, vec []float32) *entity.Embedding {
		return &entity.Embedding{
			EntityId:      mint,
			ConfigId:      cfg.Id,
			Strategy:      vectorizer.StrategyHandcraftedV1,
			LayoutVersion: "handcrafted_v1.0",
			PhaseId:       1,
			Vector:        vec,
			WindowStart:   start,
			WindowEnd:     start.Add(5 * time.Minute),
			NumSnapshots:  10,
			QualityScore:  1,
		}
	}

	a := embed(t0, direction(1, 1))
	created, err := uow.EmbeddingRepository().Upsert(ctx, a)
	require.NoError(t, err)
	assert.True(t, created)

	again := embed(t0, direction(1, 1))
	created, err = uow.EmbeddingRepository().Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created, "same window must not create a second row")
	assert.Equal(t, a.Id, again.Id)

	b := embed(t0.Add(5*time.Minute), direction(0.95, 2))
	_, err = uow.EmbeddingRepository().Upsert(ctx, b)
	require.NoError(t, err)

	t.Run("search by id", func(t *testing.T) {
		hits, err := uow.EmbeddingRepository().SearchByID(ctx, a.Id, contract.SearchQuery{K: 5, MinSimilarity: 0.9, EfSearch: 64})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, b.Id, hits[0].Embedding.Id)
		assert.InDelta(t, 0.95, hits[0].Similarity, 1e-4)
	})

	t.Run("labels", func(t *testing.T) {
		ok, err := uow.LabelRepository().AssignIfUnlabeled(ctx, &entity.Label{EmbeddingId: b.Id, Label: "pump", Confidence: 0.95, Source: entity.LabelSourcePropagated, SourceEmbeddingId: &a.Id})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = uow.LabelRepository().AssignIfUnlabeled(ctx, &entity.Label{EmbeddingId: b.Id, Label: "rug", Confidence: 1, Source: entity.LabelSourceManual})
		require.NoError(t, err)
		assert.False(t, ok)

		history, err := uow.LabelRepository().History(ctx, b.Id)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("similarity pairs", func(t *testing.T) {
		n, err := uow.SimilarityPairRepository().UpsertBulk(ctx, []*entity.SimilarityPair{entity.NewSimilarityPair(a.Id, b.Id, 0.95, time.Now())})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		marked, err := uow.SimilarityPairRepository().MarkSynced(ctx, []entity.PairKey{entity.NewPairKey(b.Id, a.Id)}, time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 1, marked)
	})

	t.Run("generation jobs", func(t *testing.T) {
		job := &entity.GenerationJob{
			JobType:      entity.JobTypeManual,
			ConfigId:     &cfg.Id,
			ProcessStart: time.Now().Add(-time.Hour).UTC(),
			ProcessEnd:   time.Now().UTC(),
			Status:       entity.JobStatusPending,
		}
		require.NoError(t, uow.GenerationJobRepository().Create(ctx, job))
		t.Cleanup(func() {
			db.Where("id = ?", job.Id).Delete(&model.GenerationJob{})
		})

		found, err := uow.GenerationJobRepository().FindById(ctx, job.Id)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, entity.JobStatusPending, found.Status)

		missing, err := uow.GenerationJobRepository().FindById(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestGormSource(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	mint := "SRC" + uuid.NewString()[:8]
	t0 := time.Now().UTC().Truncate(time.Hour)
	rows := []model.TokenSnapshot{
		{EntityId: mint, Timestamp: t0, Price: 1},
		{EntityId: mint, Timestamp: t0.Add(time.Minute), Price: 2},
		{EntityId: mint, Timestamp: t0.Add(5 * time.Minute), Price: 3},
	}
	require.NoError(t, db.Create(&rows).Error)
	t.Cleanup(func() { db.Where("entity_id = ?", mint).Delete(&model.TokenSnapshot{}) })

	src := ingestion.NewGormSource(db)
	snaps, err := src.GetSnapshots(ctx, mint, t0, t0.Add(5*time.Minute))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2.0, snaps[1].Price)

	entities, err := src.ListEntities(ctx, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Contains(t, entities, mint)
}

func TestRedisCursorRepository(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	repo := implementation.NewRedisCursorRepository(rdb)
	ctx := context.Background()
	configId := uuid.New()

	_, ok, err := repo.Get(ctx, configId, "mint")
	require.NoError(t, err)
	assert.False(t, ok)

	next := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Set(ctx, configId, "mint", next))
	got, ok, err := repo.Get(ctx, configId, "mint")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(next))
}

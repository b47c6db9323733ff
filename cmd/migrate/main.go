package main

import (
	"fmt"
	"log"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/model"
	"token-pattern-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up extensions...")
	for _, sql := range []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	} {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute setup SQL: %v", err)
		}
	}

	// 4. AutoMigrate
	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.TokenSnapshot{},
		&model.EmbeddingConfig{},
		&model.PatternEmbedding{},
		&model.EmbeddingLabel{},
		&model.EmbeddingLabelHistory{},
		&model.GenerationJob{},
		&model.SimilarityPair{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: vector index
	log.Println("Step 3: Creating HNSW index...")
	postMigrationSQL := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_pattern_embeddings_hnsw
		 ON pattern_embeddings USING hnsw (vector vector_cosine_ops)
		 WITH (m = %d, ef_construction = %d);`, cfg.Index.M, cfg.Index.EfConstruction),
		`CREATE INDEX IF NOT EXISTS idx_similarity_pairs_pending
		 ON similarity_pairs (computed_at) WHERE synced = false;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: database migration completed")
}

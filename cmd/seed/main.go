package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"time"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/model"
	"token-pattern-be/pkg/database"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	tokens := flag.Int("tokens", 0, "synthetic tokens to seed snapshots for")
	hours := flag.Int("hours", 6, "hours of snapshots per token")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	seedConfigs(db)
	if *tokens > 0 {
		seedSnapshots(db, *tokens, *hours)
	}
}

func seedConfigs(db *gorm.DB) {
	log.Println("Seeding embedding configs...")

	configs := []model.EmbeddingConfig{
		{Name: "launch-5m", Strategy: "handcrafted_v1", WindowSeconds: 300, MinSnapshots: 5, Normalization: "minmax", IsActive: true},
		{Name: "launch-15m-overlap", Strategy: "handcrafted_v1", WindowSeconds: 900, WindowOverlapSeconds: 450, MinSnapshots: 10, Normalization: "zscore", IsActive: true},
		{Name: "bonding-1h", Strategy: "handcrafted_v1", WindowSeconds: 3600, MinSnapshots: 20, PhaseFilter: datatypes.JSONSlice[int]{1, 2}, Normalization: "robust", IsActive: false},
	}

	for _, c := range configs {
		var existing model.EmbeddingConfig
		if err := db.Where("name = ?", c.Name).First(&existing).Error; err == nil {
			log.Printf("Config '%s' already exists, skipping...", c.Name)
			continue
		}
		if err := db.Create(&c).Error; err != nil {
			log.Printf("Failed to seed config '%s': %v", c.Name, err)
			continue
		}
		log.Printf("Seeded config '%s'", c.Name)
	}
}

// seedSnapshots writes a random-walk snapshot every 15s per token, ending
// now, so a local stack has something to embed.
func seedSnapshots(db *gorm.DB, tokens, hours int) {
	log.Printf("Seeding %d hours of snapshots for %d tokens...", hours, tokens)

	end := time.Now().UTC().Truncate(time.Minute)
	start := end.Add(-time.Duration(hours) * time.Hour)
	rng := rand.New(rand.NewPCG(1, 2))

	for t := 0; t < tokens; t++ {
		mint := fmt.Sprintf("SEED%040d", t)
		price := 0.0001 * (1 + rng.Float64())
		wallets := 10

		var batch []model.TokenSnapshot
		for ts := start; ts.Before(end); ts = ts.Add(15 * time.Second) {
			price *= math.Exp(rng.NormFloat64() * 0.02)
			wallets += rng.IntN(3)
			batch = append(batch, model.TokenSnapshot{
				EntityId:       mint,
				Timestamp:      ts,
				PhaseId:        1 + int(ts.Sub(start)/(2*time.Hour)),
				Price:          price,
				VolumeBuy:      rng.ExpFloat64() * 10,
				VolumeSell:     rng.ExpFloat64() * 8,
				BuyCount:       rng.IntN(20),
				SellCount:      rng.IntN(15),
				UniqueWallets:  wallets,
				Top10HolderPct: 30 + rng.Float64()*40,
				DevHoldingPct:  rng.Float64() * 10,
				SniperPct:      rng.Float64() * 5,
				Liquidity:      1000 + rng.Float64()*5000,
			})
		}
		if err := db.CreateInBatches(batch, 1000).Error; err != nil {
			log.Fatalf("Failed to seed snapshots for %s: %v", mint, err)
		}
	}
	log.Println("Success: snapshots seeded")
}

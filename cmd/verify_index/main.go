package main

import (
	"context"
	"os"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/internal/service"
	"token-pattern-be/pkg/database"

	"github.com/fatih/color"
)

// verify_index reports stored vector dimensions per strategy and exits
// non-zero when any group disagrees with its strategy's layout.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		color.Red("DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{})
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	svc := service.NewSearchService(unitofwork.NewRepositoryFactory(db), cfg.Index.EfSearch)
	stats, err := svc.IndexStats(context.Background())
	if err != nil {
		color.Red("Failed to read index stats: %v", err)
		os.Exit(1)
	}

	color.Cyan("Embeddings stored: %d\n", stats.Embeddings)
	invalid := 0
	for _, d := range stats.Dimensions {
		if d.Valid {
			color.Green("  OK    %-16s %-20s dim=%-4d count=%d", d.Strategy, d.LayoutVersion, d.Dimension, d.Count)
			continue
		}
		invalid++
		color.Red("  BAD   %-16s %-20s dim=%-4d count=%d", d.Strategy, d.LayoutVersion, d.Dimension, d.Count)
	}

	if invalid > 0 {
		color.Yellow("%d strategy group(s) do not match their layout; re-generate or remove them", invalid)
		os.Exit(1)
	}
	color.Green("Index is consistent")
}

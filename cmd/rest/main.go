package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"token-pattern-be/internal/bootstrap"
	"token-pattern-be/internal/config"
	"token-pattern-be/internal/server"
	"token-pattern-be/internal/tracer"
	"token-pattern-be/pkg/database"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database (optional)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{
			Verbose: cfg.App.Environment != "production",
		})
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Panicf("Unable to start consumer: %v", err)
	}
	if err := container.SyncService.Start(ctx); err != nil {
		container.Logger.Warn("MAIN", "Mirror ack subscription failed", map[string]interface{}{"error": err.Error()})
	}

	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		container.SchedulerService.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("MAIN", "Service stopped with error", map[string]interface{}{"error": err.Error()})
	}
}

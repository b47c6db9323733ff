package bootstrap

import (
	"context"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/controller"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/implementation"
	"token-pattern-be/internal/repository/memory"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/internal/service"
	"token-pattern-be/internal/websocket"
	"token-pattern-be/pkg/events"
	"token-pattern-be/pkg/hnsw"
	"token-pattern-be/pkg/ingestion"

	pktNats "token-pattern-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ConfigController     controller.IConfigController
	GenerationController controller.IGenerationController
	SearchController     controller.ISearchController
	LabelController      controller.ILabelController
	AnalysisController   controller.IAnalysisController
	SyncController       controller.ISyncController

	// Background Services (exposed for main.go to run)
	SchedulerService service.ISchedulerService
	ConsumerService  service.IConsumerService
	SyncService      service.ISyncService

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger

	// MemorySource is set when no database is configured; snapshots are
	// pushed into it by the embedding process.
	MemorySource *ingestion.MemorySource

	closers []func()
}

// NewContainer wires the service. A nil db selects the in-process index and
// snapshot source.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	// 1. Storage
	var uowFactory unitofwork.RepositoryFactory
	var source ingestion.Source
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
		source = ingestion.NewGormSource(db)
		sysLogger.Info("BOOTSTRAP", "Using PostgreSQL pgvector index", nil)
	} else {
		store := memory.NewStore(hnsw.Config{
			M:              cfg.Index.M,
			EfConstruction: cfg.Index.EfConstruction,
			MaxLevel:       hnsw.DefaultConfig().MaxLevel,
			Seed:           hnsw.DefaultConfig().Seed,
		})
		uowFactory = memory.NewRepositoryFactory(store)
		c.MemorySource = ingestion.NewMemorySource()
		source = c.MemorySource
		sysLogger.Warn("BOOTSTRAP", "DB_CONNECTION_STRING empty, using in-process index", nil)
	}

	// 2. Infrastructure
	rdb := connectRedis(cfg.App.RedisURL, sysLogger)
	var cursors contract.CursorRepository
	if rdb != nil {
		cursors = implementation.NewRedisCursorRepository(rdb)
		c.closers = append(c.closers, func() { rdb.Close() })
	} else {
		cursors = memory.NewCursorRepository()
	}

	// Interfaces stay nil when NATS is down; a typed nil would pass the
	// services' nil checks.
	var pairPublisher service.PairPublisher
	var ackSubscriber service.AckSubscriber
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS publisher, mirror sync disabled", map[string]interface{}{"error": err.Error()})
	} else {
		pairPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS subscriber, mirror acks disabled", map[string]interface{}{"error": err.Error()})
	} else {
		ackSubscriber = natsSub
		c.closers = append(c.closers, natsSub.Close)
	}

	// 3. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { pubSub.Close() })

	// WebSocket Hub
	hubLogger := logger.NewIsolatedLogger(cfg.App.HubLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, hubLogger)

	// 4. Services
	publisherService := service.NewPublisherService(events.EmbeddingsCreated, pubSub)
	syncService := service.NewSyncService(uowFactory, pairPublisher, ackSubscriber, cfg.Similarity, sysLogger)
	similarityService := service.NewSimilarityService(uowFactory, cfg.Similarity, cfg.Index.EfSearch, sysLogger)
	generationService := service.NewGenerationService(uowFactory, source, cursors, cfg.Generation, sysLogger)

	c.SyncService = syncService
	c.ConsumerService = service.NewConsumerService(pubSub, events.EmbeddingsCreated, similarityService, syncService, sysLogger)
	c.SchedulerService = service.NewSchedulerService(
		uowFactory,
		generationService,
		publisherService,
		syncService,
		c.WebSocketHub, // Hub implements IJobNotifier
		cfg.Generation,
		sysLogger,
	)

	// 5. Controllers
	c.ConfigController = controller.NewConfigController(service.NewConfigService(uowFactory))
	c.GenerationController = controller.NewGenerationController(c.SchedulerService)
	c.SearchController = controller.NewSearchController(service.NewSearchService(uowFactory, cfg.Index.EfSearch))
	c.LabelController = controller.NewLabelController(service.NewLabelService(uowFactory, cfg.Index.EfSearch, sysLogger))
	c.AnalysisController = controller.NewAnalysisController(service.NewAnalysisService(uowFactory, sysLogger))
	c.SyncController = controller.NewSyncController(syncService)

	return c
}

// connectRedis returns nil when Redis is unreachable; callers fall back to
// in-process state.
func connectRedis(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to Redis, cursors and hub stay local", map[string]interface{}{"error": err.Error()})
		rdb.Close()
		return nil
	}
	return rdb
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

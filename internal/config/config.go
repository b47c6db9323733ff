package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Generation GenerationConfig
	Index      IndexConfig
	Similarity SimilarityConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	HubLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	// Connection is the PostgreSQL DSN. Empty runs the service on the
	// in-process index.
	Connection string
}

type GenerationConfig struct {
	Interval            time.Duration
	BatchSize           int
	ReloadEvery         int // cycles between active-config reloads
	CollaboratorTimeout time.Duration
	InitialLookback     time.Duration
	Workers             int
}

type IndexConfig struct {
	EfSearch       int
	EfConstruction int
	M              int
}

type SimilarityConfig struct {
	Threshold     float64
	NeighborK     int
	SyncBatchSize int
	PairSubject   string
	AckSubject    string
	AckDurable    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			HubLogFilePath:     getEnv("HUB_LOG_FILE_PATH", "logs/job_hub.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Generation: GenerationConfig{
			Interval:            getEnvAsDuration("GENERATION_INTERVAL", 60*time.Second),
			BatchSize:           getEnvAsInt("GENERATION_BATCH_SIZE", 500),
			ReloadEvery:         getEnvAsInt("GENERATION_CONFIG_RELOAD_CYCLES", 10),
			CollaboratorTimeout: getEnvAsDuration("GENERATION_COLLABORATOR_TIMEOUT", 10*time.Second),
			InitialLookback:     getEnvAsDuration("GENERATION_INITIAL_LOOKBACK", 24*time.Hour),
			Workers:             getEnvAsInt("GENERATION_WORKERS", 8),
		},
		Index: IndexConfig{
			EfSearch:       getEnvAsInt("INDEX_EF_SEARCH", 100),
			EfConstruction: getEnvAsInt("INDEX_EF_CONSTRUCTION", 200),
			M:              getEnvAsInt("INDEX_M", 16),
		},
		Similarity: SimilarityConfig{
			Threshold:     getEnvAsFloat("SIMILARITY_PAIR_THRESHOLD", 0.9),
			NeighborK:     getEnvAsInt("SIMILARITY_NEIGHBOR_K", 10),
			SyncBatchSize: getEnvAsInt("SIMILARITY_SYNC_BATCH_SIZE", 1000),
			PairSubject:   getEnv("SIMILARITY_PAIR_SUBJECT", "events.similarity.pair"),
			AckSubject:    getEnv("SIMILARITY_ACK_SUBJECT", "events.mirror.ack"),
			AckDurable:    getEnv("SIMILARITY_ACK_DURABLE", "pattern-mirror-ack"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

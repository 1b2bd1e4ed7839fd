package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Model artifact and default training data
	ModelPath       string
	DefaultDataPath string

	// Training defaults
	TestFraction float64
	Seed         int64

	// Optional collaborators. Features backed by these are disabled when
	// the URL is empty.
	PostgresURL   string
	RedisURL      string
	ClickHouseURL string

	// Prediction history writer
	HistoryWorkers  int
	HistoryQueue    int
	HistoryBatch    int
	HistoryInterval time.Duration
}

// Load loads configuration from environment variables. Unlike the database
// URLs, the model path always has a value: the service must be able to train
// and serve without any external collaborator.
func Load() *Config {
	cfg := &Config{
		Port: getEnvInt("PORT", 8000),
		Env:  getEnv("ENV", "development"),

		ModelPath:       getEnv("MODEL_PATH", "models/model.json"),
		DefaultDataPath: getEnv("DATA_PATH", "data/games.csv"),

		TestFraction: getEnvFloat("TEST_FRACTION", 0.2),
		Seed:         int64(getEnvInt("TRAIN_SEED", 42)),

		PostgresURL:   getEnv("POSTGRES_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),

		HistoryWorkers:  getEnvInt("HISTORY_WORKERS", 2),
		HistoryQueue:    getEnvInt("HISTORY_QUEUE", 1000),
		HistoryBatch:    getEnvInt("HISTORY_BATCH", 50),
		HistoryInterval: getEnvDuration("HISTORY_FLUSH_INTERVAL", 2*time.Second),
	}

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

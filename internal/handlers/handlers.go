package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// snapshotKey is the Redis hash holding the latest live snapshot per team.
const snapshotKey = "team_snapshots"

// PredictionService is the model facade the handlers talk to.
type PredictionService interface {
	Health() (modelLoaded bool, modelPath string, artifactExists bool)
	TrainingActive() bool
	ModelInfo() models.ModelInfo
	Predict(m models.Matchup) (*models.PredictionResult, error)
	PredictBatch(matchups []models.Matchup) ([]models.BatchPrediction, error)
	Train(path string, testFraction float64) error
}

// HistoryRecorder is the async prediction-history queue.
type HistoryRecorder interface {
	Enqueue(rec *models.PredictionRecord) bool
	QueueDepth() int
}

// PgPool is the slice of pgx the history read path needs.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Config struct {
	Service    PredictionService
	History    HistoryRecorder
	Postgres   PgPool        // nil when POSTGRES_URL is unset
	Redis      redis.Cmdable // nil when REDIS_URL is unset
	ClickHouse driver.Conn   // nil when CLICKHOUSE_URL is unset
	Logger     *zap.Logger

	DefaultDataPath string
	DefaultTestSize float64
}

type Handler struct {
	service   PredictionService
	history   HistoryRecorder
	pg        PgPool
	redis     redis.Cmdable
	ch        driver.Conn
	logger    *zap.SugaredLogger
	validator *validator.Validate

	defaultDataPath string
	defaultTestSize float64
}

func New(cfg Config) *Handler {
	return &Handler{
		service:         cfg.Service,
		history:         cfg.History,
		pg:              cfg.Postgres,
		redis:           cfg.Redis,
		ch:              cfg.ClickHouse,
		logger:          cfg.Logger.Sugar(),
		validator:       validator.New(),
		defaultDataPath: cfg.DefaultDataPath,
		defaultTestSize: cfg.DefaultTestSize,
	}
}

// Package worker implements the buffered writer pool that records served
// predictions. This decouples request handling from database writes:
// predictions are enqueued, batched, and bulk-inserted into Postgres, with
// a flush ticker bounding staleness and a graceful drain on shutdown.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/models"
)

// Prometheus metrics
var (
	recordsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopcast_history_enqueued_total",
		Help: "Total number of prediction records enqueued",
	})

	recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopcast_history_written_total",
		Help: "Total number of prediction records written to Postgres",
	})

	recordsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopcast_history_failed_total",
		Help: "Total number of prediction records that failed to persist",
	})

	recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopcast_history_dropped_total",
		Help: "Total number of prediction records dropped (full queue or shutdown)",
	})

	historyQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hoopcast_history_queue_depth",
		Help: "Current depth of the history writer queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hoopcast_history_batch_insert_duration_seconds",
		Help:    "Duration of history batch inserts",
		Buckets: prometheus.DefBuckets,
	})
)

// PgExecutor is the slice of pgx the writer needs; satisfied by *pgxpool.Pool.
type PgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// HistoryConfig configures the writer pool.
type HistoryConfig struct {
	Workers       int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Postgres      PgExecutor
	Logger        *zap.Logger
}

// HistoryWriter batches prediction records into Postgres.
type HistoryWriter struct {
	config HistoryConfig
	queue  chan *models.PredictionRecord
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.SugaredLogger
}

func NewHistoryWriter(cfg HistoryConfig) *HistoryWriter {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}

	return &HistoryWriter{
		config: cfg,
		queue:  make(chan *models.PredictionRecord, cfg.QueueSize),
		logger: cfg.Logger.Sugar(),
	}
}

// Start launches the writer goroutines.
func (w *HistoryWriter) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)

	for i := 0; i < w.config.Workers; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
	go w.reportQueueDepth()

	w.logger.Infow("History writer started",
		"workers", w.config.Workers,
		"queueSize", w.config.QueueSize,
		"batchSize", w.config.BatchSize,
	)
}

// Stop drains the queue and shuts the workers down. The queue is closed
// before the context is cancelled so workers flush everything already
// enqueued instead of racing the cancellation.
func (w *HistoryWriter) Stop() {
	close(w.queue)
	w.wg.Wait()
	w.cancel()
	w.logger.Info("History writer stopped")
}

// Enqueue submits a record without blocking the request path. A full queue
// drops the record: history is best-effort, predictions are not.
func (w *HistoryWriter) Enqueue(rec *models.PredictionRecord) bool {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Warnw("Failed to enqueue record (writer stopped)", "error", r)
		}
	}()

	select {
	case w.queue <- rec:
		recordsEnqueued.Inc()
		return true
	default:
		recordsDropped.Inc()
		return false
	}
}

// QueueDepth returns the current queue size.
func (w *HistoryWriter) QueueDepth() int {
	return len(w.queue)
}

func (w *HistoryWriter) worker(id int) {
	defer w.wg.Done()

	batch := make([]*models.PredictionRecord, 0, w.config.BatchSize)
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := w.insertBatch(batch); err != nil {
			w.logger.Errorw("History batch insert failed", "worker", id, "batchSize", len(batch), "error", err)
			recordsFailed.Add(float64(len(batch)))
		} else {
			recordsWritten.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-w.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= w.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-w.ctx.Done():
			flush()
			return
		}
	}
}

func (w *HistoryWriter) insertBatch(batch []*models.PredictionRecord) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO predictions (
		id, home_team, away_team, predicted_winner,
		home_win_probability, away_win_probability, confidence,
		model_version, created_at
	) VALUES `)

	args := make([]interface{}, 0, len(batch)*9)
	for i, rec := range batch {
		n := i * 9
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)
		args = append(args,
			rec.ID, rec.HomeTeam, rec.AwayTeam, rec.PredictedWinner,
			rec.HomeWinProbability, rec.AwayWinProbability, rec.Confidence,
			rec.ModelVersion, rec.CreatedAt,
		)
	}
	sb.WriteString(" ON CONFLICT (id) DO NOTHING")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := w.config.Postgres.Exec(ctx, sb.String(), args...)
	return err
}

func (w *HistoryWriter) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			historyQueueDepth.Set(float64(len(w.queue)))
		case <-w.ctx.Done():
			return
		}
	}
}

// NoopRecorder satisfies the recorder interface when no Postgres is
// configured; records are discarded.
type NoopRecorder struct{}

func (NoopRecorder) Enqueue(*models.PredictionRecord) bool { return false }
func (NoopRecorder) QueueDepth() int                       { return 0 }

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/config"
	"github.com/hoopcast/prediction-api/internal/dataset"
	"github.com/hoopcast/prediction-api/internal/handlers"
	"github.com/hoopcast/prediction-api/internal/service"
	"github.com/hoopcast/prediction-api/internal/trainer"
	"github.com/hoopcast/prediction-api/internal/worker"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional collaborators: each one disables its feature when unset.
	var pg *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pg, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			sugar.Fatalw("Failed to connect to Postgres", "error", err)
		}
		defer pg.Close()
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("Invalid REDIS_URL", "error", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	var ch driver.Conn
	if cfg.ClickHouseURL != "" {
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			sugar.Fatalw("Invalid CLICKHOUSE_URL", "error", err)
		}
		ch, err = clickhouse.Open(opts)
		if err != nil {
			sugar.Fatalw("Failed to connect to ClickHouse", "error", err)
		}
		defer ch.Close()
	}

	loader := dataset.NewLoader(ch, logger)
	t := trainer.New(loader, cfg.ModelPath, logger)
	svc := service.New(ctx, t, cfg.ModelPath, cfg.Seed, logger)

	var history handlers.HistoryRecorder = worker.NoopRecorder{}
	if pg != nil {
		writer := worker.NewHistoryWriter(worker.HistoryConfig{
			Workers:       cfg.HistoryWorkers,
			QueueSize:     cfg.HistoryQueue,
			BatchSize:     cfg.HistoryBatch,
			FlushInterval: cfg.HistoryInterval,
			Postgres:      pg,
			Logger:        logger,
		})
		writer.Start(ctx)
		defer writer.Stop()
		history = writer
	}

	h := handlers.New(handlers.Config{
		Service:         svc,
		History:         history,
		Postgres:        pgOrNil(pg),
		Redis:           redisOrNil(rdb),
		ClickHouse:      ch,
		Logger:          logger,
		DefaultDataPath: cfg.DefaultDataPath,
		DefaultTestSize: cfg.TestFraction,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h.Routes(cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("Server listening", "port", cfg.Port, "env", cfg.Env, "modelPath", cfg.ModelPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Graceful shutdown failed", "error", err)
	}
}

// pgOrNil avoids wrapping a nil *pgxpool.Pool into a non-nil interface.
func pgOrNil(pg *pgxpool.Pool) handlers.PgPool {
	if pg == nil {
		return nil
	}
	return pg
}

func redisOrNil(rdb *redis.Client) redis.Cmdable {
	if rdb == nil {
		return nil
	}
	return rdb
}

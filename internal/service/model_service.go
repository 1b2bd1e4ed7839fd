// Package service owns the live model reference. The source of truth is
// the persisted artifact; the service keeps one atomically swappable
// Predictor so serving requests never observe a half-initialized model and
// never block behind a training run.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/features"
	"github.com/hoopcast/prediction-api/internal/gbdt"
	"github.com/hoopcast/prediction-api/internal/models"
	"github.com/hoopcast/prediction-api/internal/predictor"
	"github.com/hoopcast/prediction-api/internal/trainer"
)

// ErrTrainingInProgress rejects a second train call while one is active:
// the artifact path is a single-writer resource.
var ErrTrainingInProgress = errors.New("training already in progress")

// Prometheus metrics
var (
	predictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopcast_predictions_total",
		Help: "Total number of predictions served",
	})

	predictionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopcast_prediction_errors_total",
		Help: "Total number of failed prediction requests",
	})

	modelLoadedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hoopcast_model_loaded",
		Help: "Whether a model is currently loaded (1) or not (0)",
	})
)

// ModelTrainer abstracts the trainer for the facade.
type ModelTrainer interface {
	Train(ctx context.Context, path string, testFraction float64, seed int64) (*gbdt.Model, *trainer.Report, error)
}

type ModelService struct {
	current    atomic.Pointer[predictor.Predictor]
	lastReport atomic.Pointer[trainer.Report]
	training   atomic.Bool

	trainer   ModelTrainer
	modelPath string
	seed      int64
	baseCtx   context.Context
	logger    *zap.SugaredLogger
}

// New builds the facade and attempts an initial load of the artifact.
// A missing artifact is not fatal: the service starts unloaded and reports
// model_loaded=false until a training run succeeds.
func New(baseCtx context.Context, t ModelTrainer, modelPath string, seed int64, logger *zap.Logger) *ModelService {
	s := &ModelService{
		trainer:   t,
		modelPath: modelPath,
		seed:      seed,
		baseCtx:   baseCtx,
		logger:    logger.Sugar(),
	}

	p, err := predictor.New(modelPath)
	switch {
	case err == nil:
		s.current.Store(p)
		modelLoadedGauge.Set(1)
		s.logger.Infow("Model loaded", "path", modelPath, "version", p.Model().Version)
	case errors.Is(err, models.ErrModelNotFound):
		s.logger.Warnw("No model artifact found, serving unloaded", "path", modelPath)
	default:
		s.logger.Errorw("Failed to load model artifact", "path", modelPath, "error", err)
	}

	return s
}

// Health reports whether a model is currently loaded.
func (s *ModelService) Health() (modelLoaded bool, modelPath string, artifactExists bool) {
	_, statErr := os.Stat(s.modelPath)
	return s.current.Load() != nil, s.modelPath, statErr == nil
}

// TrainingActive reports whether a background training run is in flight.
func (s *ModelService) TrainingActive() bool {
	return s.training.Load()
}

// ModelInfo describes the loaded snapshot.
func (s *ModelService) ModelInfo() models.ModelInfo {
	p := s.current.Load()
	if p == nil {
		return models.ModelInfo{ModelLoaded: false}
	}
	m := p.Model()
	return models.ModelInfo{
		ModelLoaded:   true,
		ModelType:     "gradient-boosted trees",
		Version:       m.Version,
		TrainedAt:     m.TrainedAt,
		Features:      features.FeatureNames(),
		BestIteration: m.BestIteration,
	}
}

// LastReport returns the diagnostics of the most recent successful run in
// this process, or nil.
func (s *ModelService) LastReport() *trainer.Report {
	return s.lastReport.Load()
}

// Predict serves one matchup from the current model snapshot. The snapshot
// is taken once per request; a swap mid-request is invisible to the caller.
func (s *ModelService) Predict(m models.Matchup) (*models.PredictionResult, error) {
	p := s.current.Load()
	if p == nil {
		predictionErrors.Inc()
		return nil, models.ErrServiceUnavailable
	}

	result, err := p.Predict(m)
	if err != nil {
		predictionErrors.Inc()
		return nil, err
	}
	predictionsTotal.Inc()
	return result, nil
}

// PredictBatch serves a batch with per-item error isolation.
func (s *ModelService) PredictBatch(matchups []models.Matchup) ([]models.BatchPrediction, error) {
	p := s.current.Load()
	if p == nil {
		predictionErrors.Inc()
		return nil, models.ErrServiceUnavailable
	}

	out := p.PredictBatch(matchups)
	for _, item := range out {
		if item.Error != "" {
			predictionErrors.Inc()
		} else {
			predictionsTotal.Inc()
		}
	}
	return out, nil
}

// Train starts a background training run and returns immediately. The
// dataset path is resolved up front so an unresolvable path fails the call
// rather than the background job. On success the live Predictor reference
// is replaced with one loaded from the freshly persisted artifact in a
// single atomic store.
func (s *ModelService) Train(path string, testFraction float64) error {
	if !strings.Contains(path, "://") {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", models.ErrDataNotFound, path)
		}
	}

	if !s.training.CompareAndSwap(false, true) {
		return ErrTrainingInProgress
	}

	go func() {
		defer s.training.Store(false)

		s.logger.Infow("Training started", "dataset", path, "testFraction", testFraction)

		_, report, err := s.trainer.Train(s.baseCtx, path, testFraction, s.seed)
		if err != nil {
			s.logger.Errorw("Training failed, keeping previous model", "dataset", path, "error", err)
			return
		}

		// Reload from disk so the served model is exactly what the
		// artifact round-trips to.
		p, err := predictor.New(s.modelPath)
		if err != nil {
			s.logger.Errorw("Failed to reload model after training", "path", s.modelPath, "error", err)
			return
		}

		s.current.Store(p)
		s.lastReport.Store(report)
		modelLoadedGauge.Set(1)
		s.logger.Infow("Model swapped",
			"version", p.Model().Version,
			"valAccuracy", report.ValAccuracy,
			"valAUC", report.ValAUC,
		)
	}()

	return nil
}

// Package trainer runs the offline classifier lifecycle: load historical
// games, build features, split, fit, evaluate, persist.
package trainer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/dataset"
	"github.com/hoopcast/prediction-api/internal/features"
	"github.com/hoopcast/prediction-api/internal/gbdt"
	"github.com/hoopcast/prediction-api/internal/models"
)

// Prometheus metrics
var (
	trainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoopcast_training_runs_total",
		Help: "Total number of training runs by outcome",
	}, []string{"outcome"})

	trainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hoopcast_training_duration_seconds",
		Help:    "Wall-clock duration of training runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// FeatureImportance is one entry of the ranked importance report.
type FeatureImportance struct {
	Name string  `json:"name"`
	Gain float64 `json:"gain"`
}

// Report carries the diagnostic outputs of a training run. It is logged and
// returned to the caller but is not part of the persisted artifact.
type Report struct {
	Rows           int                 `json:"rows"`
	TrainRows      int                 `json:"train_rows"`
	ValRows        int                 `json:"val_rows"`
	TrainAccuracy  float64             `json:"train_accuracy"`
	ValAccuracy    float64             `json:"val_accuracy"`
	TrainAUC       float64             `json:"train_auc"`
	ValAUC         float64             `json:"val_auc"`
	Confusion      [2][2]int           `json:"confusion"` // [actual][predicted], validation set
	Precision      [2]float64          `json:"precision"` // class 0 = away win, 1 = home win
	Recall         [2]float64          `json:"recall"`
	Importance     []FeatureImportance `json:"importance"`
	BestIteration  int                 `json:"best_iteration"`
	ModelVersion   string              `json:"model_version"`
	Duration       time.Duration       `json:"duration"`
}

type Trainer struct {
	loader    *dataset.Loader
	modelPath string
	params    gbdt.Params
	logger    *zap.SugaredLogger
}

func New(loader *dataset.Loader, modelPath string, logger *zap.Logger) *Trainer {
	return &Trainer{
		loader:    loader,
		modelPath: modelPath,
		params:    gbdt.DefaultParams(),
		logger:    logger.Sugar(),
	}
}

// Train runs the full lifecycle against the dataset at path and persists
// the fitted model at the configured artifact location. Training is never
// silently partial: any failure before the atomic persist leaves the prior
// artifact untouched.
func (t *Trainer) Train(ctx context.Context, path string, testFraction float64, seed int64) (*gbdt.Model, *Report, error) {
	start := time.Now()

	model, report, err := t.train(ctx, path, testFraction, seed)
	trainingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		trainingRuns.WithLabelValues("failure").Inc()
		return nil, nil, err
	}
	trainingRuns.WithLabelValues("success").Inc()

	report.Duration = time.Since(start)
	return model, report, nil
}

func (t *Trainer) train(ctx context.Context, path string, testFraction float64, seed int64) (*gbdt.Model, *Report, error) {
	table, err := t.loader.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	X, y, err := features.BuildFromHistory(table)
	if err != nil {
		return nil, nil, err
	}

	homeWins := 0
	for _, label := range y {
		homeWins += label
	}
	t.logger.Infow("Training dataset ready",
		"rows", len(X),
		"homeWins", homeWins,
		"awayWins", len(y)-homeWins,
	)

	split, err := dataset.StratifiedSplit(X, y, testFraction, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrTraining, err)
	}

	params := t.params
	params.Seed = seed
	model, err := gbdt.Train(split.TrainX, split.TrainY, split.ValX, split.ValY, features.FeatureNames(), params)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrTraining, err)
	}
	model.Version = uuid.NewString()
	model.TrainedAt = time.Now().UTC()

	report := t.evaluate(model, split)
	report.Rows = len(X)
	report.ModelVersion = model.Version

	if err := model.Save(t.modelPath); err != nil {
		return nil, nil, fmt.Errorf("%w: persist artifact: %v", models.ErrTraining, err)
	}

	t.logger.Infow("Model persisted", "path", t.modelPath, "version", model.Version, "bestIteration", model.BestIteration)
	return model, report, nil
}

func (t *Trainer) evaluate(model *gbdt.Model, split *dataset.Split) *Report {
	trainProbs := predictAll(model, split.TrainX)
	valProbs := predictAll(model, split.ValX)

	cm := confusionMatrix(valProbs, split.ValY)
	precision, recall := precisionRecall(cm)

	report := &Report{
		TrainRows:     len(split.TrainX),
		ValRows:       len(split.ValX),
		TrainAccuracy: accuracy(trainProbs, split.TrainY),
		ValAccuracy:   accuracy(valProbs, split.ValY),
		TrainAUC:      rocAUC(trainProbs, split.TrainY),
		ValAUC:        rocAUC(valProbs, split.ValY),
		Confusion:     cm,
		Precision:     precision,
		Recall:        recall,
		BestIteration: model.BestIteration,
	}

	for i, name := range model.FeatureNames {
		report.Importance = append(report.Importance, FeatureImportance{Name: name, Gain: model.Importance[i]})
	}
	sort.Slice(report.Importance, func(a, b int) bool {
		return report.Importance[a].Gain > report.Importance[b].Gain
	})

	t.logger.Infow("Model evaluated",
		"trainAccuracy", report.TrainAccuracy,
		"valAccuracy", report.ValAccuracy,
		"trainAUC", report.TrainAUC,
		"valAUC", report.ValAUC,
		"confusion", cm,
		"bestIteration", report.BestIteration,
	)
	for _, fi := range report.Importance {
		t.logger.Infow("Feature importance", "feature", fi.Name, "gain", fi.Gain)
	}

	return report
}

func predictAll(model *gbdt.Model, X [][]float64) []float64 {
	probs := make([]float64, len(X))
	for i, row := range X {
		probs[i] = model.PredictProba(row)
	}
	return probs
}

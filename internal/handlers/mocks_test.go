package handlers

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/hoopcast/prediction-api/internal/models"
)

// MockPredictionService implements PredictionService with overridable
// behavior per test.
type MockPredictionService struct {
	HealthFunc       func() (bool, string, bool)
	TrainingFunc     func() bool
	ModelInfoFunc    func() models.ModelInfo
	PredictFunc      func(m models.Matchup) (*models.PredictionResult, error)
	PredictBatchFunc func(matchups []models.Matchup) ([]models.BatchPrediction, error)
	TrainFunc        func(path string, testFraction float64) error
}

func (m *MockPredictionService) Health() (bool, string, bool) {
	if m.HealthFunc != nil {
		return m.HealthFunc()
	}
	return true, "models/model.json", true
}

func (m *MockPredictionService) TrainingActive() bool {
	if m.TrainingFunc != nil {
		return m.TrainingFunc()
	}
	return false
}

func (m *MockPredictionService) ModelInfo() models.ModelInfo {
	if m.ModelInfoFunc != nil {
		return m.ModelInfoFunc()
	}
	return models.ModelInfo{ModelLoaded: true, Version: "v-test"}
}

func (m *MockPredictionService) Predict(matchup models.Matchup) (*models.PredictionResult, error) {
	return m.PredictFunc(matchup)
}

func (m *MockPredictionService) PredictBatch(matchups []models.Matchup) ([]models.BatchPrediction, error) {
	return m.PredictBatchFunc(matchups)
}

func (m *MockPredictionService) Train(path string, testFraction float64) error {
	if m.TrainFunc != nil {
		return m.TrainFunc(path, testFraction)
	}
	return nil
}

// MockHistory captures enqueued records.
type MockHistory struct {
	mu      sync.Mutex
	records []*models.PredictionRecord
}

func (m *MockHistory) Enqueue(rec *models.PredictionRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return true
}

func (m *MockHistory) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MockHistory) Records() []*models.PredictionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.PredictionRecord(nil), m.records...)
}

// MockRedis overrides the snapshot-cache slice of redis.Cmdable. The
// embedded interface panics on anything the handlers should not touch.
type MockRedis struct {
	redis.Cmdable

	HGetFunc func(ctx context.Context, key, field string) *redis.StringCmd
	HSetFunc func(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	PingFunc func(ctx context.Context) *redis.StatusCmd
}

func (m *MockRedis) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	return m.HGetFunc(ctx, key, field)
}

func (m *MockRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	return m.HSetFunc(ctx, key, values...)
}

func (m *MockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return redis.NewStatusResult("PONG", nil)
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hoopcast/prediction-api/internal/models"
	"github.com/hoopcast/prediction-api/internal/service"
)

func newTestHandler(cfg Config) *Handler {
	if cfg.History == nil {
		cfg.History = &MockHistory{}
	}
	cfg.Logger = zap.NewNop()
	if cfg.DefaultDataPath == "" {
		cfg.DefaultDataPath = "data/games.csv"
	}
	if cfg.DefaultTestSize == 0 {
		cfg.DefaultTestSize = 0.2
	}
	return New(cfg)
}

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.Routes([]string{"*"}).ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rr.Body.String())
	}
	return out
}

func snapshotJSON(abbr string, ppg float64) string {
	return fmt.Sprintf(`{"abbreviation":%q,"stats":{"points_per_game":%g,"rebounds":44,"assists":24,"turnovers":13},"elo":1520}`, abbr, ppg)
}

func predictBody() string {
	return fmt.Sprintf(`{"home":%s,"away":%s}`, snapshotJSON("LAL", 110), snapshotJSON("GSW", 104))
}

func homeWinResult() *models.PredictionResult {
	return &models.PredictionResult{
		PredictedWinner:    "LAL",
		HomeWinProbability: 0.73,
		AwayWinProbability: 0.27,
		Confidence:         0.73,
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}})

	rr := serve(h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := decodeBody(t, rr)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["model_loaded"] != true {
		t.Errorf("model_loaded = %v, want true", body["model_loaded"])
	}
	if body["training_active"] != false {
		t.Errorf("training_active = %v, want false", body["training_active"])
	}
}

func TestReadyNoCollaborators(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}})

	rr := serve(h, http.MethodGet, "/ready", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := decodeBody(t, rr); body["ready"] != true {
		t.Errorf("ready = %v, want true", body["ready"])
	}
}

func TestPredict(t *testing.T) {
	history := &MockHistory{}
	svc := &MockPredictionService{
		PredictFunc: func(m models.Matchup) (*models.PredictionResult, error) {
			if m.Home.Abbreviation != "LAL" || m.Away.Abbreviation != "GSW" {
				t.Errorf("matchup = %s vs %s", m.Home.Abbreviation, m.Away.Abbreviation)
			}
			return homeWinResult(), nil
		},
	}
	h := newTestHandler(Config{Service: svc, History: history})

	rr := serve(h, http.MethodPost, "/predict", predictBody())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	if body["predicted_winner"] != "LAL" {
		t.Errorf("predicted_winner = %v, want LAL", body["predicted_winner"])
	}

	records := history.Records()
	if len(records) != 1 {
		t.Fatalf("history records = %d, want 1", len(records))
	}
	if records[0].ModelVersion != "v-test" || records[0].HomeTeam != "LAL" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestPredictInvalidJSON(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}})
	rr := serve(h, http.MethodPost, "/predict", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestPredictMissingStats(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{
		PredictFunc: func(models.Matchup) (*models.PredictionResult, error) {
			t.Error("service reached with an invalid request")
			return nil, nil
		},
	}})

	body := fmt.Sprintf(`{"home":{"abbreviation":"LAL"},"away":%s}`, snapshotJSON("GSW", 104))
	rr := serve(h, http.MethodPost, "/predict", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\n%s", rr.Code, rr.Body.String())
	}
}

func TestPredictNoModel(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{
		PredictFunc: func(models.Matchup) (*models.PredictionResult, error) {
			return nil, models.ErrServiceUnavailable
		},
	}})

	rr := serve(h, http.MethodPost, "/predict", predictBody())
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestPredictBatchPartialFailure(t *testing.T) {
	history := &MockHistory{}
	svc := &MockPredictionService{
		PredictBatchFunc: func(matchups []models.Matchup) ([]models.BatchPrediction, error) {
			return []models.BatchPrediction{
				{Result: homeWinResult()},
				{Error: "team stats are required"},
			}, nil
		},
	}
	h := newTestHandler(Config{Service: svc, History: history})

	body := fmt.Sprintf(`{"games":[{"home":%s,"away":%s},{"home":%s,"away":%s}]}`,
		snapshotJSON("LAL", 110), snapshotJSON("GSW", 104),
		snapshotJSON("BOS", 108), snapshotJSON("MIA", 102))
	rr := serve(h, http.MethodPost, "/predict/batch", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rr.Code, rr.Body.String())
	}

	out := decodeBody(t, rr)
	if out["count"] != float64(2) {
		t.Errorf("count = %v, want 2", out["count"])
	}
	if got := len(history.Records()); got != 1 {
		t.Errorf("history records = %d, want only the successful entry", got)
	}
}

func TestPredictBatchEmpty(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}})
	rr := serve(h, http.MethodPost, "/predict/batch", `{"games":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestTrainDefaults(t *testing.T) {
	var gotPath string
	var gotSize float64
	h := newTestHandler(Config{Service: &MockPredictionService{
		TrainFunc: func(path string, testFraction float64) error {
			gotPath, gotSize = path, testFraction
			return nil
		},
	}})

	rr := serve(h, http.MethodPost, "/train", "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202\n%s", rr.Code, rr.Body.String())
	}
	if gotPath != "data/games.csv" || gotSize != 0.2 {
		t.Errorf("trained with (%q, %v), want defaults", gotPath, gotSize)
	}
	if body := decodeBody(t, rr); body["status"] != "training_started" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestTrainOverrides(t *testing.T) {
	var gotPath string
	var gotSize float64
	h := newTestHandler(Config{Service: &MockPredictionService{
		TrainFunc: func(path string, testFraction float64) error {
			gotPath, gotSize = path, testFraction
			return nil
		},
	}})

	rr := serve(h, http.MethodPost, "/train", `{"data_path":"ch://games","test_size":0.3}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rr.Code)
	}
	if gotPath != "ch://games" || gotSize != 0.3 {
		t.Errorf("trained with (%q, %v), want overrides", gotPath, gotSize)
	}
}

func TestTrainConflict(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{
		TrainFunc: func(string, float64) error { return service.ErrTrainingInProgress },
	}})

	rr := serve(h, http.MethodPost, "/train", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}

func TestTrainMissingDataset(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{
		TrainFunc: func(string, float64) error { return models.ErrDataNotFound },
	}})

	rr := serve(h, http.MethodPost, "/train", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestModelInfo(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}})
	rr := serve(h, http.MethodGet, "/model/info", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := decodeBody(t, rr); body["version"] != "v-test" {
		t.Errorf("version = %v, want v-test", body["version"])
	}
}

func TestListPredictionsUnconfigured(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}})
	rr := serve(h, http.MethodGet, "/predictions", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestPredictTeams(t *testing.T) {
	cache := map[string]string{
		"LAL": snapshotJSON("LAL", 110),
		"GSW": snapshotJSON("GSW", 104),
	}
	rds := &MockRedis{
		HGetFunc: func(ctx context.Context, key, field string) *redis.StringCmd {
			if key != snapshotKey {
				t.Errorf("key = %q, want %q", key, snapshotKey)
			}
			if v, ok := cache[field]; ok {
				return redis.NewStringResult(v, nil)
			}
			return redis.NewStringResult("", redis.Nil)
		},
	}
	svc := &MockPredictionService{
		PredictFunc: func(m models.Matchup) (*models.PredictionResult, error) {
			if m.Home.Abbreviation != "LAL" || m.Away.Abbreviation != "GSW" {
				t.Errorf("matchup = %s vs %s", m.Home.Abbreviation, m.Away.Abbreviation)
			}
			return homeWinResult(), nil
		},
	}
	h := newTestHandler(Config{Service: svc, Redis: rds})

	rr := serve(h, http.MethodPost, "/predict/teams", `{"home_abbr":"LAL","away_abbr":"GSW"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rr.Code, rr.Body.String())
	}

	rr = serve(h, http.MethodPost, "/predict/teams", `{"home_abbr":"LAL","away_abbr":"SEA"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("uncached team status = %d, want 404", rr.Code)
	}
}

func TestPredictTeamsNoCache(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}})
	rr := serve(h, http.MethodPost, "/predict/teams", `{"home_abbr":"LAL","away_abbr":"GSW"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestPutTeamSnapshot(t *testing.T) {
	var stored []interface{}
	rds := &MockRedis{
		HSetFunc: func(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
			stored = values
			return redis.NewIntResult(1, nil)
		},
	}
	h := newTestHandler(Config{Service: &MockPredictionService{}, Redis: rds})

	rr := serve(h, http.MethodPut, "/teams/LAL/snapshot", snapshotJSON("LAL", 110))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rr.Code, rr.Body.String())
	}
	if len(stored) != 2 || stored[0] != "LAL" {
		t.Fatalf("HSet values = %v, want [LAL <payload>]", stored)
	}

	var snapshot models.TeamSnapshot
	if err := json.Unmarshal(stored[1].([]byte), &snapshot); err != nil {
		t.Fatalf("cached payload is not a snapshot: %v", err)
	}
	if snapshot.Abbreviation != "LAL" || snapshot.Stats == nil {
		t.Errorf("cached snapshot = %+v", snapshot)
	}
}

func TestPutTeamSnapshotMissingStats(t *testing.T) {
	h := newTestHandler(Config{Service: &MockPredictionService{}, Redis: &MockRedis{}})
	rr := serve(h, http.MethodPut, "/teams/LAL/snapshot", `{"elo":1500}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\n%s", rr.Code, rr.Body.String())
	}
}

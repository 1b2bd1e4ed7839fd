package models

import "time"

// PredictionResult is the outcome of a single matchup inference. Both raw
// probabilities are retained so callers can apply their own risk framing
// instead of relying on the label alone.
type PredictionResult struct {
	PredictedWinner    string  `json:"predicted_winner"`
	HomeWinProbability float64 `json:"home_win_probability"`
	AwayWinProbability float64 `json:"away_win_probability"`
	Confidence         float64 `json:"confidence"`
}

// BatchPrediction is one entry of a batch response. Exactly one of Result
// and Error is set; a failed matchup never aborts the rest of the batch.
type BatchPrediction struct {
	Result *PredictionResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// PredictionRecord is the persisted form of a served prediction.
type PredictionRecord struct {
	ID                 string    `json:"id"`
	HomeTeam           string    `json:"home_team"`
	AwayTeam           string    `json:"away_team"`
	PredictedWinner    string    `json:"predicted_winner"`
	HomeWinProbability float64   `json:"home_win_probability"`
	AwayWinProbability float64   `json:"away_win_probability"`
	Confidence         float64   `json:"confidence"`
	ModelVersion       string    `json:"model_version"`
	CreatedAt          time.Time `json:"created_at"`
}

// ModelInfo describes the currently loaded model.
type ModelInfo struct {
	ModelLoaded   bool      `json:"model_loaded"`
	ModelType     string    `json:"model_type,omitempty"`
	Version       string    `json:"version,omitempty"`
	TrainedAt     time.Time `json:"trained_at,omitempty"`
	Features      []string  `json:"features,omitempty"`
	BestIteration int       `json:"best_iteration,omitempty"`
}

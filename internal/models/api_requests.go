package models

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Home     TeamSnapshot           `json:"home" validate:"required"`
	Away     TeamSnapshot           `json:"away" validate:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// PredictBatchRequest is the body of POST /predict/batch.
type PredictBatchRequest struct {
	Games []Matchup `json:"games" validate:"required,min=1"`
}

// PredictTeamsRequest resolves both sides from the snapshot cache.
type PredictTeamsRequest struct {
	HomeAbbr string `json:"home_abbr" validate:"required"`
	AwayAbbr string `json:"away_abbr" validate:"required"`
}

// TrainRequest is the body of POST /train.
type TrainRequest struct {
	DataPath string  `json:"data_path"`
	TestSize float64 `json:"test_size"`
}

// TrainResponse acknowledges an accepted training run. The caller polls
// /health or /model/info to learn when the new model is live.
type TrainResponse struct {
	Status   string  `json:"status"`
	DataPath string  `json:"data_path"`
	TestSize float64 `json:"test_size"`
}

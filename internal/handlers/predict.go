package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hoopcast/prediction-api/internal/models"
)

// Predict handles POST /predict
// @Summary Predict the winner of a matchup
// @Accept json
// @Produce json
// @Param body body models.PredictRequest true "Matchup snapshots"
// @Success 200 {object} models.PredictionResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "No model loaded"
// @Router /predict [post]
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	matchup := models.Matchup{Home: req.Home, Away: req.Away}
	result, err := h.service.Predict(matchup)
	if err != nil {
		h.logger.Errorw("Prediction failed", "error", err, "home", req.Home.Abbreviation, "away", req.Away.Abbreviation)
		h.errorResponse(w, errorStatus(err), err.Error())
		return
	}

	h.recordPrediction(matchup, result)
	h.jsonResponse(w, http.StatusOK, result)
}

// PredictBatch handles POST /predict/batch. One malformed matchup yields an
// error entry in its slot; the rest of the batch is still served.
// @Summary Predict a batch of matchups
// @Accept json
// @Produce json
// @Param body body models.PredictBatchRequest true "Matchups"
// @Success 200 {object} map[string]interface{}
// @Router /predict/batch [post]
func (h *Handler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	var req models.PredictBatchRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Games) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "At least one matchup is required")
		return
	}

	results, err := h.service.PredictBatch(req.Games)
	if err != nil {
		h.logger.Errorw("Batch prediction failed", "error", err, "count", len(req.Games))
		h.errorResponse(w, errorStatus(err), err.Error())
		return
	}

	for i, item := range results {
		if item.Result != nil {
			h.recordPrediction(req.Games[i], item.Result)
		}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":       len(results),
		"predictions": results,
	})
}

// PredictTeams handles POST /predict/teams: both sides are resolved from
// the live snapshot cache by team abbreviation.
// @Summary Predict a matchup from cached team snapshots
// @Accept json
// @Produce json
// @Param body body models.PredictTeamsRequest true "Team abbreviations"
// @Success 200 {object} models.PredictionResult
// @Failure 404 {object} map[string]string "Snapshot not cached"
// @Router /predict/teams [post]
func (h *Handler) PredictTeams(w http.ResponseWriter, r *http.Request) {
	if h.redis == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Snapshot cache is not configured")
		return
	}

	var req models.PredictTeamsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	home, ok := h.loadSnapshot(w, r, req.HomeAbbr)
	if !ok {
		return
	}
	away, ok := h.loadSnapshot(w, r, req.AwayAbbr)
	if !ok {
		return
	}

	matchup := models.Matchup{Home: home, Away: away}
	result, err := h.service.Predict(matchup)
	if err != nil {
		h.logger.Errorw("Prediction failed", "error", err, "home", req.HomeAbbr, "away", req.AwayAbbr)
		h.errorResponse(w, errorStatus(err), err.Error())
		return
	}

	h.recordPrediction(matchup, result)
	h.jsonResponse(w, http.StatusOK, result)
}

func (h *Handler) loadSnapshot(w http.ResponseWriter, r *http.Request, abbr string) (models.TeamSnapshot, bool) {
	var snapshot models.TeamSnapshot

	data, err := h.redis.HGet(r.Context(), snapshotKey, abbr).Result()
	if err == redis.Nil {
		h.errorResponse(w, http.StatusNotFound, "No cached snapshot for team "+abbr)
		return snapshot, false
	}
	if err != nil {
		h.logger.Errorw("Snapshot cache read failed", "error", err, "team", abbr)
		h.errorResponse(w, http.StatusInternalServerError, "Snapshot cache unavailable")
		return snapshot, false
	}

	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		h.logger.Errorw("Corrupt cached snapshot", "error", err, "team", abbr)
		h.errorResponse(w, http.StatusInternalServerError, "Corrupt cached snapshot for team "+abbr)
		return snapshot, false
	}
	return snapshot, true
}

func (h *Handler) recordPrediction(m models.Matchup, result *models.PredictionResult) {
	info := h.service.ModelInfo()
	h.history.Enqueue(&models.PredictionRecord{
		ID:                 uuid.NewString(),
		HomeTeam:           m.Home.Abbreviation,
		AwayTeam:           m.Away.Abbreviation,
		PredictedWinner:    result.PredictedWinner,
		HomeWinProbability: result.HomeWinProbability,
		AwayWinProbability: result.AwayWinProbability,
		Confidence:         result.Confidence,
		ModelVersion:       info.Version,
		CreatedAt:          time.Now().UTC(),
	})
}

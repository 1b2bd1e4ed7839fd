package handlers

import (
	"net/http"

	"github.com/hoopcast/prediction-api/internal/models"
)

// Train handles POST /train: validates the dataset source, kicks off a
// background training run, and returns immediately. Callers poll /health
// or /model/info to learn when the new model is live.
// @Summary Start an async training run
// @Accept json
// @Produce json
// @Param body body models.TrainRequest false "Training parameters"
// @Success 202 {object} models.TrainResponse
// @Failure 404 {object} map[string]string "Dataset not found"
// @Failure 409 {object} map[string]string "Training already in progress"
// @Router /train [post]
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	req := models.TrainRequest{
		DataPath: h.defaultDataPath,
		TestSize: h.defaultTestSize,
	}
	if r.ContentLength != 0 {
		if !h.decodeJSON(w, r, &req) {
			return
		}
	}
	if req.DataPath == "" {
		req.DataPath = h.defaultDataPath
	}
	if req.TestSize <= 0 || req.TestSize >= 1 {
		req.TestSize = h.defaultTestSize
	}

	if err := h.service.Train(req.DataPath, req.TestSize); err != nil {
		h.logger.Warnw("Training not started", "error", err, "dataset", req.DataPath)
		h.errorResponse(w, errorStatus(err), err.Error())
		return
	}

	h.logger.Infow("Training accepted", "dataset", req.DataPath, "testSize", req.TestSize)
	h.jsonResponse(w, http.StatusAccepted, models.TrainResponse{
		Status:   "training_started",
		DataPath: req.DataPath,
		TestSize: req.TestSize,
	})
}

// ModelInfo handles GET /model/info
// @Summary Describe the currently loaded model
// @Produce json
// @Success 200 {object} models.ModelInfo
// @Router /model/info [get]
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.service.ModelInfo())
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hoopcast/prediction-api/internal/models"
	"github.com/hoopcast/prediction-api/internal/service"
)

// Health check endpoint
// @Summary Service health and model status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	loaded, path, exists := h.service.Health()
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"model_loaded":    loaded,
		"model_path":      path,
		"model_exists":    exists,
		"training_active": h.service.TrainingActive(),
		"timestamp":       time.Now().UTC(),
	})
}

// Ready check endpoint. Only configured collaborators are pinged.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]bool{}
	if h.pg != nil {
		checks["postgres"] = h.pg.Ping(ctx) == nil
	}
	if h.redis != nil {
		checks["redis"] = h.redis.Ping(ctx).Err() == nil
	}
	if h.ch != nil {
		checks["clickhouse"] = h.ch.Ping(ctx) == nil
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": h.history.QueueDepth(),
	})
}

// decodeJSON reads and decodes a size-capped request body into dst.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// errorStatus maps the service error taxonomy to HTTP status codes. "No
// model yet" (503, retryable) is kept distinct from "bad input" (400) and
// from internal failures (500).
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDataNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrServiceUnavailable), errors.Is(err, models.ErrModelNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrTrainingInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

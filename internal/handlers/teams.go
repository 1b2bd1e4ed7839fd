package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoopcast/prediction-api/internal/models"
)

// PutTeamSnapshot handles PUT /teams/{abbr}/snapshot: the live stats
// collaborator pushes the latest per-team state here, and the
// predict-by-teams path resolves against it.
// @Summary Cache a live team snapshot
// @Accept json
// @Produce json
// @Param abbr path string true "Team abbreviation"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /teams/{abbr}/snapshot [put]
func (h *Handler) PutTeamSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.redis == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Snapshot cache is not configured")
		return
	}

	abbr := chi.URLParam(r, "abbr")
	if abbr == "" {
		h.errorResponse(w, http.StatusBadRequest, "Team abbreviation is required")
		return
	}

	var snapshot models.TeamSnapshot
	if !h.decodeJSON(w, r, &snapshot) {
		return
	}
	snapshot.Abbreviation = abbr
	if err := h.validator.Struct(&snapshot); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid snapshot: "+err.Error())
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		h.errorResponse(w, http.StatusInternalServerError, "Failed to encode snapshot")
		return
	}
	if err := h.redis.HSet(r.Context(), snapshotKey, abbr, data).Err(); err != nil {
		h.logger.Errorw("Snapshot cache write failed", "error", err, "team", abbr)
		h.errorResponse(w, http.StatusInternalServerError, "Snapshot cache unavailable")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "cached", "team": abbr})
}

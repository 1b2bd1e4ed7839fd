package handlers

import (
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hoopcast/prediction-api/internal/models"
)

// ListPredictions handles GET /predictions?limit=&offset=
// @Summary List recorded predictions, newest first
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /predictions [get]
func (h *Handler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	if h.pg == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Prediction history is not configured")
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var (
		total   int64
		records []models.PredictionRecord
	)

	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		return h.pg.QueryRow(ctx, "SELECT count(*) FROM predictions").Scan(&total)
	})

	g.Go(func() error {
		rows, err := h.pg.Query(ctx, `
			SELECT id, home_team, away_team, predicted_winner,
			       home_win_probability, away_win_probability, confidence,
			       model_version, created_at
			FROM predictions
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec models.PredictionRecord
			if err := rows.Scan(
				&rec.ID, &rec.HomeTeam, &rec.AwayTeam, &rec.PredictedWinner,
				&rec.HomeWinProbability, &rec.AwayWinProbability, &rec.Confidence,
				&rec.ModelVersion, &rec.CreatedAt,
			); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		h.logger.Errorw("Failed to list predictions", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to list predictions")
		return
	}

	if records == nil {
		records = []models.PredictionRecord{}
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"total":       total,
		"limit":       limit,
		"offset":      offset,
		"predictions": records,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

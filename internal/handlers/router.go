package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes assembles the service router.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/model/info", h.ModelInfo)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/predict", h.Predict)
	r.Post("/predict/batch", h.PredictBatch)
	r.Post("/predict/teams", h.PredictTeams)
	r.Post("/train", h.Train)

	r.Get("/predictions", h.ListPredictions)
	r.Put("/teams/{abbr}/snapshot", h.PutTeamSnapshot)

	return r
}

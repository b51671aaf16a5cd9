// Package server exposes the recommender over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"meal-recommender/internal/planner"
	"meal-recommender/internal/ranker"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultCalories is the plan budget when a request leaves it out.
const DefaultCalories = 2000

// Service is the part of app.App the HTTP API uses.
type Service interface {
	ComposePlan(ctx context.Context, tags []string, totalCalories int) (*planner.MealPlan, error)
	RankCandidates(ctx context.Context, userID, query string, topN int) ([]ranker.RankedItem, error)
}

type planRequest struct {
	Preferences []string `json:"preferences"`
	Calories    *int     `json:"calories"`
}

type rankRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	TopN   int    `json:"top_n"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	svc    Service
	logger zerolog.Logger
}

// NewRouter builds the HTTP routes. webhook may be nil when no bot runs.
func NewRouter(svc Service, webhook http.HandlerFunc, logger zerolog.Logger) http.Handler {
	h := &handler{svc: svc, logger: logger.With().Str("component", "http").Logger()}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if webhook != nil {
		r.Post("/webhook", webhook)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		r.Post("/plan", h.plan)
		r.Post("/rank", h.rank)
	})
	return r
}

func (h *handler) plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	calories := DefaultCalories
	if req.Calories != nil {
		calories = *req.Calories
	}

	plan, err := h.svc.ComposePlan(r.Context(), req.Preferences, calories)
	switch {
	case errors.Is(err, planner.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		h.fail(w, err, "failed to compose plan")
	default:
		writeJSON(w, http.StatusOK, plan)
	}
}

func (h *handler) rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	items, err := h.svc.RankCandidates(r.Context(), req.UserID, req.Query, req.TopN)
	switch {
	case errors.Is(err, ranker.ErrInvalidTopN):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		h.fail(w, err, "failed to rank candidates")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (h *handler) fail(w http.ResponseWriter, err error, msg string) {
	h.logger.Error().Err(err).Msg(msg)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"analytics-sync-service/internal/store"
	"analytics-sync-service/internal/sync"
)

// Handler is the serve-mode control plane: trigger syncs, inspect state,
// run validation.
type Handler struct {
	manager *sync.Manager
	state   store.Store
}

func NewHandler(manager *sync.Manager, state store.Store) *Handler {
	return &Handler{manager: manager, state: state}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync/incremental", h.TriggerIncremental)
		r.Get("/sync/status", h.GetStatus)
		r.Get("/sync/watermarks", h.GetWatermarks)
		r.Get("/sync/runs", h.GetRuns)
		r.Post("/validate", h.RunValidation)
	})

	return r
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) TriggerIncremental(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.RunIncremental(r.Context())
	if err != nil {
		if errors.Is(err, sync.ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.manager.Status())
}

func (h *Handler) GetWatermarks(w http.ResponseWriter, r *http.Request) {
	watermarks, err := h.state.Watermarks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, watermarks)
}

func (h *Handler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := h.state.RunRecords(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (h *Handler) RunValidation(w http.ResponseWriter, r *http.Request) {
	days := 0
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = n
	}

	report, err := h.manager.RunValidation(r.Context(), days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Package api provides the ops HTTP endpoints for the bot.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/faceswap-bot/internal/track"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handler serves the health and usage-stats endpoints.
type Handler struct {
	tracker track.Store
}

// NewHandler creates a new Handler.
func NewHandler(tracker track.Store) *Handler {
	return &Handler{tracker: tracker}
}

// Router builds the ops router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	return r
}

// Health reports whether the counter database is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Ping(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stats reports aggregate command usage per kind.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.tracker.Totals(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read usage totals")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"commands": totals})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

package handler

import (
	"net/http"
	"time"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	if h.ready != nil {
		if err := h.ready(); err != nil {
			h.writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{
				Status: "not_ready",
				Time:   now,
				Reason: err.Error(),
			})
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ready", Time: now})
}

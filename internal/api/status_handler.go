package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

// GetStatus handles GET /api/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context())
	if err != nil {
		h.logger.Error("failed to get service status",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusInternalServerError, "failed to get service status")
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}

// GetFailoverStats handles GET /api/failover/stats
func (h *Handler) GetFailoverStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.FailoverStats(r.Context())
	if err != nil {
		h.logger.Error("failed to get failover stats",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusInternalServerError, "failed to get failover stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// ListFailoverEvents handles GET /api/failover/events
func (h *Handler) ListFailoverEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.service.RecentFailoverEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list failover events",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusInternalServerError, "failed to list failover events")
		return
	}

	h.respondJSON(w, http.StatusOK, events)
}

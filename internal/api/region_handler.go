package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListRegions handles GET /api/regions
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.ListRegions(r.Context())
	if err != nil {
		h.logger.Warn("failed to list regions",
			slog.String("error", err.Error()),
		)
		// Return empty list instead of error so polling dashboards keep working
		h.respondJSON(w, http.StatusOK, []any{})
		return
	}

	h.respondJSON(w, http.StatusOK, regions)
}

// GetRegionStatus handles GET /api/regions/{id}
func (h *Handler) GetRegionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "region id is required")
		return
	}

	status, err := h.service.GetRegionStatus(r.Context(), id)
	if err != nil {
		h.logger.Warn("region not found",
			slog.String("region", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}

package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kirychukyurii/webitel-region-router/internal/model"
	"github.com/kirychukyurii/webitel-region-router/internal/repository"
	"github.com/kirychukyurii/webitel-region-router/internal/router"
)

// Header carrying the client geography hint (ISO country code)
const headerGeoCountry = "X-Geo-Country"

// hopByHopHeaders are stripped before forwarding a request upstream
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// RouteRequest handles any-method /route/* by forwarding the request to the
// best available region with failover
func (h *Handler) RouteRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	path := "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	header := r.Header.Clone()
	for _, name := range hopByHopHeaders {
		header.Del(name)
	}

	geoHint := r.Header.Get(headerGeoCountry)
	if geoHint == "" {
		geoHint = r.URL.Query().Get("geo")
	}

	spec := model.RequestSpec{
		Method: r.Method,
		Path:   path,
		Header: header,
		Body:   body,
	}

	result, err := h.service.Route(r.Context(), spec, geoHint)
	if err != nil {
		var exhausted *router.FailoverExhaustedError
		if errors.As(err, &exhausted) {
			h.logger.Error("routing failed, all candidates exhausted",
				slog.String("path", path),
				slog.Int("attempts", exhausted.Attempts),
			)
			h.respondJSON(w, http.StatusBadGateway, errorResponse{
				Error:    exhausted.Error(),
				Attempts: exhausted.Attempts,
			})
			return
		}

		h.logger.Error("routing failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	for key, values := range result.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(repository.HeaderRegion, result.RegionID)
	w.Header().Set(repository.HeaderAttempt, strconv.Itoa(result.Attempts))

	w.WriteHeader(result.StatusCode)
	if _, err := w.Write(result.Body); err != nil {
		h.logger.Error("failed to write routed response",
			slog.String("error", err.Error()),
		)
	}
}

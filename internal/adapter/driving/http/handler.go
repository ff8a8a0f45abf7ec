// Package httphandler is the HTTP driving adapter serving the operational
// API: health, the watched-repository listing, and Prometheus metrics.
package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekorchagin/commitwatch/internal/domain/port/driven"
)

// Pinger reports whether the underlying storage is reachable.
type Pinger interface {
	Ping() error
}

// Handler serves the operational HTTP endpoints.
type Handler struct {
	store  driven.WatchStore
	pinger Pinger
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(store driven.WatchStore, pinger Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		pinger: pinger,
		logger: logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/watches", h.ListWatches)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports service liveness and storage reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// ListWatches returns all watched repositories with their subscriber counts.
func (h *Handler) ListWatches(w http.ResponseWriter, r *http.Request) {
	watches, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list watches", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]watchResponse, 0, len(watches))
	for _, watch := range watches {
		resp = append(resp, toWatchResponse(watch))
	}

	writeJSON(w, http.StatusOK, resp)
}

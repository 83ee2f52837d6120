// Package httphandler implements the status API driving adapter.
package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
)

const (
	defaultDeliveryLimit = 20
	maxDeliveryLimit     = 200
)

// LoopController is the subset of the poll service the API needs.
type LoopController interface {
	Status() model.LoopStatus
	RefreshNow(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the status API.
type Handler struct {
	loop    LoopController
	journal driven.DeliveryStore
	logger  *slog.Logger
}

// NewHandler creates a Handler. journal may be nil when the delivery journal
// is disabled.
func NewHandler(loop LoopController, journal driven.DeliveryStore, logger *slog.Logger) *Handler {
	return &Handler{
		loop:    loop,
		journal: journal,
		logger:  logger,
	}
}

// RegisterAPIRoutes registers the JSON API and the metrics endpoint on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/status", h.Status)
	mux.HandleFunc("GET /api/v1/deliveries", h.ListDeliveries)
	mux.HandleFunc("POST /api/v1/poll", h.Poll)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// ApplyMiddleware wraps handler with request-id, logging and recovery middleware.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)
	return wrapped
}

// NewServeMux creates an http.Handler with the API routes registered and
// middleware applied.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	status := h.loop.Status()

	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if status.State == model.LoopStateStopped {
		resp.Status = "stopped"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Status returns the latest poll loop snapshot.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatusResponse(h.loop.Status()))
}

// ListDeliveries returns the most recent delivery attempts, newest first.
// The optional limit query parameter defaults to 20 and is capped at 200.
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "delivery journal is disabled")
		return
	}

	limit := defaultDeliveryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxDeliveryLimit)
	}

	deliveries, err := h.journal.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list deliveries", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		resp = append(resp, toDeliveryResponse(d))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Poll wakes the poll loop and waits for the resulting iteration. A failed
// iteration is reported as 502 with the failure message; the loop itself
// keeps running and backs off as usual.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	err := h.loop.RefreshNow(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "poll request canceled")
			return
		}
		writeJSON(w, http.StatusBadGateway, PollResponse{
			Error:  err.Error(),
			Status: toStatusResponse(h.loop.Status()),
		})
		return
	}

	writeJSON(w, http.StatusOK, PollResponse{Status: toStatusResponse(h.loop.Status())})
}

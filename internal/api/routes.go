// Package api serves the local status surface: tracker state, counters,
// Prometheus metrics and live event/log streams.
package api

import (
	"net/http"
	"time"

	"reeldrop/internal/event"
	"reeldrop/internal/logging"
	"reeldrop/internal/metrics"
	"reeldrop/internal/tracker"
)

// Handler carries the dependencies for the status endpoints.
type Handler struct {
	Tracker       *tracker.Tracker
	Bus           *event.Bus[event.RecordingEvent]
	Logger        *logging.Logger
	Registry      *metrics.Registry
	AuthToken     string
	WatchDir      string
	CheckInterval time.Duration
	StartedAt     time.Time
}

// RegisterRoutes wires the status endpoints onto mux.
func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	if mux == nil || handler == nil {
		return
	}

	mux.Handle("/api/health", restHandler(handler.Logger, "", handler.handleHealth))
	mux.Handle("/api/status", restHandler(handler.Logger, handler.AuthToken, handler.handleStatus))
	mux.Handle("/api/events", restHandler(handler.Logger, handler.AuthToken, handler.handleEvents))
	mux.Handle("/api/logs", restHandler(handler.Logger, handler.AuthToken, handler.handleLogs))
	mux.Handle("/metrics", restHandler(handler.Logger, handler.AuthToken, handler.handleMetrics))
	mux.HandleFunc("/ws/events", handler.handleEventsStream)
	mux.HandleFunc("/ws/logs", handler.handleLogsStream)
}

package api

import (
	"net/http"
	"time"

	"reeldrop/internal/metrics"
	"reeldrop/internal/version"
)

type statusResponse struct {
	TrackingPath  string           `json:"tracking_path,omitempty"`
	Tracking      bool             `json:"tracking"`
	WatchDir      string           `json:"watch_dir"`
	CheckInterval string           `json:"check_interval"`
	ServerTime    time.Time        `json:"server_time"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Version       string           `json:"version"`
	Counters      metrics.Snapshot `json:"counters"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	return nil
}

func (handler *Handler) handleStatus(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}

	response := statusResponse{
		WatchDir:      handler.WatchDir,
		CheckInterval: handler.CheckInterval.String(),
		ServerTime:    time.Now().UTC(),
		Version:       version.GetVersionInfo().Version,
	}
	if !handler.StartedAt.IsZero() {
		response.UptimeSeconds = int64(time.Since(handler.StartedAt).Seconds())
	}
	if handler.Tracker != nil {
		response.TrackingPath, response.Tracking = handler.Tracker.Tracking()
	}
	if handler.Registry != nil {
		response.Counters = handler.Registry.Snapshot()
	}

	writeJSON(w, http.StatusOK, response)
	return nil
}

func (handler *Handler) handleEvents(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}
	if handler.Bus == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "event bus unavailable"}
	}
	writeJSON(w, http.StatusOK, handler.Bus.History())
	return nil
}

func (handler *Handler) handleLogs(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}
	if handler.Logger == nil || handler.Logger.History() == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "log history unavailable"}
	}
	writeJSON(w, http.StatusOK, handler.Logger.History().List())
	return nil
}

func (handler *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}
	registry := handler.Registry
	if registry == nil {
		registry = metrics.Default
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_ = registry.WritePrometheus(w)
	return nil
}

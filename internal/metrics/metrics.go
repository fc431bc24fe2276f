package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Registry collects process-wide counters exposed on /metrics.
type Registry struct {
	recordingsStarted   atomic.Int64
	recordingsFinished  atomic.Int64
	recordingsAbandoned atomic.Int64
	checksRun           atomic.Int64
	uploadsStarted      atomic.Int64
	uploadsCompleted    atomic.Int64
	uploadsFailed       atomic.Int64
	uploadRetries       atomic.Int64
	watcherEvents       atomic.Int64
	watcherDropped      atomic.Int64
	watcherErrors       atomic.Int64
}

var Default = &Registry{}

func (registry *Registry) IncRecordingStarted() {
	if registry == nil {
		return
	}
	registry.recordingsStarted.Add(1)
}

func (registry *Registry) IncRecordingFinished() {
	if registry == nil {
		return
	}
	registry.recordingsFinished.Add(1)
}

func (registry *Registry) IncRecordingAbandoned() {
	if registry == nil {
		return
	}
	registry.recordingsAbandoned.Add(1)
}

func (registry *Registry) IncCheckRun() {
	if registry == nil {
		return
	}
	registry.checksRun.Add(1)
}

func (registry *Registry) IncUploadStarted() {
	if registry == nil {
		return
	}
	registry.uploadsStarted.Add(1)
}

func (registry *Registry) IncUploadCompleted() {
	if registry == nil {
		return
	}
	registry.uploadsCompleted.Add(1)
}

func (registry *Registry) IncUploadFailed() {
	if registry == nil {
		return
	}
	registry.uploadsFailed.Add(1)
}

func (registry *Registry) AddUploadRetries(count int64) {
	if registry == nil || count <= 0 {
		return
	}
	registry.uploadRetries.Add(count)
}

func (registry *Registry) AddWatcherEvents(delivered, dropped int64) {
	if registry == nil {
		return
	}
	if delivered > 0 {
		registry.watcherEvents.Add(delivered)
	}
	if dropped > 0 {
		registry.watcherDropped.Add(dropped)
	}
}

func (registry *Registry) IncWatcherError() {
	if registry == nil {
		return
	}
	registry.watcherErrors.Add(1)
}

// Snapshot reports current counter values for the status API.
type Snapshot struct {
	RecordingsStarted   int64 `json:"recordings_started"`
	RecordingsFinished  int64 `json:"recordings_finished"`
	RecordingsAbandoned int64 `json:"recordings_abandoned"`
	ChecksRun           int64 `json:"checks_run"`
	UploadsStarted      int64 `json:"uploads_started"`
	UploadsCompleted    int64 `json:"uploads_completed"`
	UploadsFailed       int64 `json:"uploads_failed"`
	UploadRetries       int64 `json:"upload_retries"`
	WatcherEvents       int64 `json:"watcher_events"`
	WatcherDropped      int64 `json:"watcher_dropped"`
	WatcherErrors       int64 `json:"watcher_errors"`
}

func (registry *Registry) Snapshot() Snapshot {
	if registry == nil {
		return Snapshot{}
	}
	return Snapshot{
		RecordingsStarted:   registry.recordingsStarted.Load(),
		RecordingsFinished:  registry.recordingsFinished.Load(),
		RecordingsAbandoned: registry.recordingsAbandoned.Load(),
		ChecksRun:           registry.checksRun.Load(),
		UploadsStarted:      registry.uploadsStarted.Load(),
		UploadsCompleted:    registry.uploadsCompleted.Load(),
		UploadsFailed:       registry.uploadsFailed.Load(),
		UploadRetries:       registry.uploadRetries.Load(),
		WatcherEvents:       registry.watcherEvents.Load(),
		WatcherDropped:      registry.watcherDropped.Load(),
		WatcherErrors:       registry.watcherErrors.Load(),
	}
}

func (registry *Registry) WritePrometheus(writer io.Writer) error {
	if registry == nil {
		return nil
	}

	snapshot := registry.Snapshot()
	writeCounter(writer, "reeldrop_recordings_started_total", "Recordings observed starting", snapshot.RecordingsStarted)
	writeCounter(writer, "reeldrop_recordings_finished_total", "Recordings detected as finished", snapshot.RecordingsFinished)
	writeCounter(writer, "reeldrop_recordings_abandoned_total", "Recordings replaced before completion", snapshot.RecordingsAbandoned)
	writeCounter(writer, "reeldrop_checks_run_total", "Quiescence checks executed", snapshot.ChecksRun)
	writeCounter(writer, "reeldrop_uploads_started_total", "Uploads started", snapshot.UploadsStarted)
	writeCounter(writer, "reeldrop_uploads_completed_total", "Uploads completed", snapshot.UploadsCompleted)
	writeCounter(writer, "reeldrop_uploads_failed_total", "Uploads failed after retries", snapshot.UploadsFailed)
	writeCounter(writer, "reeldrop_upload_retries_total", "Upload retry attempts", snapshot.UploadRetries)
	writeCounter(writer, "reeldrop_watcher_events_total", "Filesystem events delivered", snapshot.WatcherEvents)
	writeCounter(writer, "reeldrop_watcher_dropped_total", "Filesystem events coalesced or dropped", snapshot.WatcherDropped)
	writeCounter(writer, "reeldrop_watcher_errors_total", "Watcher errors", snapshot.WatcherErrors)
	return nil
}

func writeCounter(writer io.Writer, metric, help string, value int64) {
	fmt.Fprintf(writer, "# HELP %s %s\n", metric, help)
	fmt.Fprintf(writer, "# TYPE %s counter\n", metric)
	fmt.Fprintf(writer, "%s %d\n", metric, value)
}

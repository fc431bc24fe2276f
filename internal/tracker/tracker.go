package tracker

import (
	"fmt"
	"sync"
	"time"

	"reeldrop/internal/event"
	"reeldrop/internal/logging"
	"reeldrop/internal/metrics"
)

// Options configures a Tracker.
type Options struct {
	// CheckInterval is reported in log lines so operators know when the next
	// decision happens. The Checker owns the actual schedule.
	CheckInterval time.Duration

	// OnFinished is invoked with the file path once quiescence is detected.
	// It runs outside the tracker lock; a slow callback never blocks event
	// processing.
	OnFinished func(path string)

	Logger   *logging.Logger
	Bus      *event.Bus[event.RecordingEvent]
	Registry *metrics.Registry
}

// Tracker owns the state for the single file being watched. All state lives
// behind one mutex; OnCreate, OnModify and Check are safe to call from the
// event source and the periodic checker concurrently.
type Tracker struct {
	mutex        sync.Mutex
	path         string
	lastModified time.Time
	lastChecked  time.Time

	checkInterval time.Duration
	onFinished    func(path string)
	logger        *logging.Logger
	bus           *event.Bus[event.RecordingEvent]
	registry      *metrics.Registry
	now           func() time.Time
}

func New(options Options) *Tracker {
	logger := options.Logger
	if logger == nil {
		logger = logging.NewLoggerWithOutput(logging.NewHistory(logging.DefaultHistorySize), logging.LevelInfo, nil)
	}
	registry := options.Registry
	if registry == nil {
		registry = metrics.Default
	}
	return &Tracker{
		checkInterval: options.CheckInterval,
		onFinished:    options.OnFinished,
		logger:        logger.With(map[string]string{"component": "tracker"}),
		bus:           options.Bus,
		registry:      registry,
		now:           time.Now,
	}
}

// OnCreate starts tracking path. A recording already in progress is replaced:
// the latest recording wins and the replaced file never completes.
func (tracker *Tracker) OnCreate(path string) {
	if tracker == nil || path == "" {
		return
	}

	now := tracker.now()

	tracker.mutex.Lock()
	replaced := tracker.path
	tracker.path = path
	tracker.lastModified = now
	tracker.lastChecked = now
	tracker.mutex.Unlock()

	if replaced != "" {
		tracker.logger.Warn("already tracking a recording, replacing it", map[string]string{
			"previous": replaced,
			"path":     path,
		})
	}
	// A re-created path restarts its own tracking; only a different path
	// abandons the previous recording.
	if replaced != "" && replaced != path {
		tracker.registry.IncRecordingAbandoned()
		tracker.publish(event.TypeRecordingAbandoned, replaced, map[string]string{
			"replaced_by": path,
		})
	}

	tracker.logger.Info("recording started", map[string]string{
		"path":           path,
		"check_interval": tracker.checkInterval.String(),
	})
	tracker.registry.IncRecordingStarted()
	tracker.publish(event.TypeRecordingStarted, path, nil)
}

// OnModify records a write to the tracked file. Modifications to any other
// path are ignored. The timestamp is assigned at receipt, never taken from
// the event, so receipt order is processing order.
func (tracker *Tracker) OnModify(path string) {
	if tracker == nil || path == "" {
		return
	}

	tracker.mutex.Lock()
	if path == tracker.path {
		tracker.lastModified = tracker.now()
	}
	tracker.mutex.Unlock()
}

// Check decides whether the tracked file has gone quiet. A file modified
// since the previous check stays tracked for another interval; otherwise the
// state is cleared and the completion callback fires with the path, outside
// the lock. A check immediately after creation with no intervening modify
// sees equal timestamps and counts as quiescent: one silent interval is the
// completion signal.
func (tracker *Tracker) Check() {
	if tracker == nil {
		return
	}
	tracker.registry.IncCheckRun()

	tracker.mutex.Lock()
	if tracker.path == "" {
		tracker.mutex.Unlock()
		return
	}

	now := tracker.now()
	elapsed := now.Sub(tracker.lastModified)

	if tracker.lastModified.After(tracker.lastChecked) {
		tracker.lastChecked = now
		path := tracker.path
		tracker.mutex.Unlock()

		tracker.logger.Info("file still being written", map[string]string{
			"path":           path,
			"last_write_ago": formatElapsed(elapsed),
			"next_check_in":  tracker.checkInterval.String(),
		})
		tracker.publish(event.TypeRecordingWriting, path, map[string]string{
			"last_write_ago": formatElapsed(elapsed),
		})
		return
	}

	finished := tracker.path
	tracker.path = ""
	tracker.lastModified = time.Time{}
	tracker.lastChecked = time.Time{}
	tracker.mutex.Unlock()

	tracker.logger.Info("recording finished", map[string]string{
		"path":           finished,
		"last_write_ago": formatElapsed(elapsed),
	})
	tracker.registry.IncRecordingFinished()
	tracker.publish(event.TypeRecordingFinished, finished, nil)

	if tracker.onFinished != nil {
		tracker.onFinished(finished)
	}
}

// Tracking reports the currently tracked path, if any.
func (tracker *Tracker) Tracking() (string, bool) {
	if tracker == nil {
		return "", false
	}
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	return tracker.path, tracker.path != ""
}

func (tracker *Tracker) publish(eventType, path string, detail map[string]string) {
	if tracker.bus == nil {
		return
	}
	tracker.bus.Publish(event.NewRecordingEvent(eventType, path, detail))
}

func formatElapsed(elapsed time.Duration) string {
	return fmt.Sprintf("%.1fs", elapsed.Seconds())
}

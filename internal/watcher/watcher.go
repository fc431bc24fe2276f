package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"reeldrop/internal/logging"
	"reeldrop/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce    = 100 * time.Millisecond
	maxRestartAttempts = 3
	restartBaseDelay   = 200 * time.Millisecond
)

// New creates a Watcher with default options.
func New() (*Watcher, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Watcher with custom options.
func NewWithOptions(options Options) (*Watcher, error) {
	source, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = logging.NewLoggerWithOutput(logging.NewHistory(logging.DefaultHistorySize), logging.LevelInfo, nil)
	}

	registry := options.Registry
	if registry == nil {
		registry = metrics.Default
	}

	debounce := options.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	instance := &Watcher{
		source:       source,
		callbacks:    make(map[string][]callbackEntry),
		debouncer:    newDebouncer(debounce),
		events:       make(chan fsnotify.Event, 16),
		errors:       make(chan error, 4),
		done:         make(chan struct{}),
		errorHandler: options.ErrorHandler,
		logger:       logger,
		registry:     registry,
	}

	instance.startForwarder(source)
	go instance.run()
	return instance, nil
}

// Close shuts down the watcher and stops event processing.
func (watcher *Watcher) Close() error {
	if watcher == nil {
		return nil
	}

	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil
	}
	watcher.closed = true
	if watcher.debouncer != nil {
		watcher.debouncer.stop()
		watcher.debouncer = nil
	}
	watcher.mutex.Unlock()

	watcher.restartMutex.Lock()
	if watcher.restartTimer != nil {
		watcher.restartTimer.Stop()
		watcher.restartTimer = nil
	}
	watcher.restartMutex.Unlock()

	close(watcher.done)
	if watcher.source == nil {
		return nil
	}
	return watcher.source.Close()
}

func (watcher *Watcher) run() {
	for {
		select {
		case raw := <-watcher.events:
			watcher.handleRaw(raw)
		case err := <-watcher.errors:
			watcher.handleError(err)
		case <-watcher.done:
			return
		}
	}
}

// handleRaw classifies an fsnotify event and schedules delivery. Directory
// events and ops other than create/write stop here; callbacks never see them.
func (watcher *Watcher) handleRaw(raw fsnotify.Event) {
	var kind Kind
	switch {
	case raw.Op.Has(fsnotify.Create):
		kind = KindCreated
	case raw.Op.Has(fsnotify.Write):
		kind = KindModified
	default:
		return
	}

	if kind == KindCreated {
		info, err := os.Stat(raw.Name)
		if err != nil || info.IsDir() {
			return
		}
	}

	watcher.mutex.Lock()
	if watcher.closed || watcher.debouncer == nil {
		watcher.mutex.Unlock()
		return
	}
	if len(watcher.callbacksForLocked(raw.Name)) == 0 {
		watcher.mutex.Unlock()
		return
	}

	entry := Event{
		Path:      raw.Name,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
	// Created must not be swallowed by a pending Modified for the same path:
	// downstream tracking starts on Created.
	coalesced := watcher.debouncer.schedule(debounceKey(entry), entry, watcher.flush)
	watcher.mutex.Unlock()

	if coalesced {
		watcher.registry.AddWatcherEvents(0, 1)
	}
}

func (watcher *Watcher) flush(key string) {
	watcher.mutex.Lock()
	if watcher.closed || watcher.debouncer == nil {
		watcher.mutex.Unlock()
		return
	}
	entry, ok := watcher.debouncer.pop(key)
	if !ok {
		watcher.mutex.Unlock()
		return
	}
	callbacks := watcher.callbacksForLocked(entry.Path)
	watcher.mutex.Unlock()

	for _, callback := range callbacks {
		callback(entry)
		watcher.registry.AddWatcherEvents(1, 0)
	}
}

func debounceKey(entry Event) string {
	return string(entry.Kind) + ":" + entry.Path
}

func (watcher *Watcher) callbacksForLocked(path string) []func(Event) {
	entries := watcher.callbacks[filepath.Dir(path)]
	if len(entries) == 0 {
		return nil
	}
	callbacks := make([]func(Event), 0, len(entries))
	for _, entry := range entries {
		callbacks = append(callbacks, entry.callback)
	}
	return callbacks
}

func (watcher *Watcher) startForwarder(source *fsnotify.Watcher) {
	if source == nil {
		return
	}

	go func() {
		for {
			select {
			case raw, ok := <-source.Events:
				if !ok {
					return
				}
				select {
				case watcher.events <- raw:
				case <-watcher.done:
					return
				}
			case err, ok := <-source.Errors:
				if !ok {
					return
				}
				select {
				case watcher.errors <- err:
				case <-watcher.done:
					return
				}
			case <-watcher.done:
				return
			}
		}
	}()
}

// SetErrorHandler configures a callback for unrecoverable watcher failures.
func (watcher *Watcher) SetErrorHandler(handler func(error)) {
	if watcher == nil {
		return
	}
	watcher.restartMutex.Lock()
	watcher.errorHandler = handler
	watcher.restartMutex.Unlock()
}

func (watcher *Watcher) logWarn(message string, fields map[string]string) {
	if watcher == nil || watcher.logger == nil {
		return
	}
	watcher.logger.Warn(message, withWatcherFields(fields))
}

func (watcher *Watcher) logDebug(message string, fields map[string]string) {
	if watcher == nil || watcher.logger == nil {
		return
	}
	watcher.logger.Debug(message, withWatcherFields(fields))
}

func withWatcherFields(fields map[string]string) map[string]string {
	merged := make(map[string]string, len(fields)+1)
	merged["component"] = "watcher"
	for key, value := range fields {
		merged[key] = value
	}
	return merged
}

var errWatcherClosed = errors.New("watcher is closed")

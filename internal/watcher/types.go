package watcher

import (
	"sync"
	"time"

	"reeldrop/internal/logging"
	"reeldrop/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// Kind classifies a file notification.
type Kind string

const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
)

// Event represents a single change to a regular file.
type Event struct {
	Path      string
	Kind      Kind
	Timestamp time.Time
}

// Handle releases watcher resources for a registration.
type Handle interface {
	Close() error
}

// Watch registers a callback for file events under a directory.
type Watch interface {
	Watch(dir string, callback func(Event)) (Handle, error)
}

// Options controls watcher behavior.
type Options struct {
	Logger       *logging.Logger
	Registry     *metrics.Registry
	Debounce     time.Duration
	ErrorHandler func(error)
}

// Watcher is the concrete fsnotify-backed implementation.
type Watcher struct {
	source *fsnotify.Watcher

	mutex     sync.Mutex
	callbacks map[string][]callbackEntry
	debouncer *debouncer
	closed    bool
	nextID    uint64

	events chan fsnotify.Event
	errors chan error
	done   chan struct{}

	restartMutex    sync.Mutex
	restartTimer    *time.Timer
	restartAttempts int
	errorHandler    func(error)

	logger   *logging.Logger
	registry *metrics.Registry
}

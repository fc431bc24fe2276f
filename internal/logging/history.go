package logging

import (
	"sync"

	"reeldrop/internal/buffer"
)

// History retains the most recent log entries for the status API.
type History struct {
	mu      sync.Mutex
	entries *buffer.Ring[Entry]
}

func NewHistory(size int) *History {
	return &History{
		entries: buffer.NewRing[Entry](size),
	}
}

func (history *History) Add(entry Entry) {
	history.mu.Lock()
	defer history.mu.Unlock()

	if history.entries == nil {
		return
	}
	history.entries.Push(entry)
}

func (history *History) List() []Entry {
	history.mu.Lock()
	defer history.mu.Unlock()

	return history.entries.Snapshot()
}

package watcher

import "time"

type debounceEntry struct {
	timer *time.Timer
	event Event
}

type debouncer struct {
	duration time.Duration
	entries  map[string]debounceEntry
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{
		duration: duration,
		entries:  make(map[string]debounceEntry),
	}
}

// schedule queues an event for delivery after the debounce window. It reports
// whether a pending event for the same key was coalesced.
func (debouncer *debouncer) schedule(key string, event Event, flush func(string)) bool {
	if debouncer == nil {
		return false
	}
	entry := debouncer.entries[key]
	coalesced := entry.timer != nil
	entry.event = event
	if entry.timer == nil {
		entry.timer = time.AfterFunc(debouncer.duration, func() {
			flush(key)
		})
	} else {
		entry.timer.Reset(debouncer.duration)
	}
	debouncer.entries[key] = entry
	return coalesced
}

func (debouncer *debouncer) pop(key string) (Event, bool) {
	if debouncer == nil {
		return Event{}, false
	}
	entry, ok := debouncer.entries[key]
	if !ok {
		return Event{}, false
	}
	delete(debouncer.entries, key)
	return entry.event, true
}

func (debouncer *debouncer) stop() {
	if debouncer == nil {
		return
	}
	for _, entry := range debouncer.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	debouncer.entries = nil
}

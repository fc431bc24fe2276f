package watcher

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

type callbackEntry struct {
	id       uint64
	callback func(Event)
}

type watchHandle struct {
	watcher *Watcher
	dir     string
	id      uint64
	once    sync.Once
}

func (handle *watchHandle) Close() error {
	if handle == nil || handle.watcher == nil {
		return nil
	}
	var err error
	handle.once.Do(func() {
		err = handle.watcher.removeCallback(handle.dir, handle.id)
	})
	return err
}

// Watch registers a callback for file events inside dir. The watch is not
// recursive: only direct children of dir are reported.
func (watcher *Watcher) Watch(dir string, callback func(Event)) (Handle, error) {
	if watcher == nil {
		return nil, errors.New("watcher is nil")
	}
	if dir == "" {
		return nil, errors.New("directory is required")
	}
	if callback == nil {
		return nil, errors.New("callback is required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path is not a directory: %s", dir)
	}

	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil, errWatcherClosed
	}
	needsAdd := watcher.callbacks[dir] == nil
	watcher.nextID++
	entry := callbackEntry{callback: callback, id: watcher.nextID}
	watcher.callbacks[dir] = append(watcher.callbacks[dir], entry)
	watcher.mutex.Unlock()

	if needsAdd {
		if err := watcher.source.Add(dir); err != nil {
			watcher.dropCallback(dir, entry.id)
			watcher.logWarn("watch add failed", map[string]string{
				"dir":   dir,
				"error": err.Error(),
			})
			return nil, err
		}
		watcher.logDebug("watch added", map[string]string{"dir": dir})
	}

	return &watchHandle{watcher: watcher, dir: dir, id: entry.id}, nil
}

func (watcher *Watcher) removeCallback(dir string, id uint64) error {
	if watcher == nil {
		return nil
	}

	shouldRemove := false
	watcher.mutex.Lock()
	entries := watcher.callbacks[dir]
	if len(entries) > 0 {
		for index, candidate := range entries {
			if candidate.id == id {
				entries = append(entries[:index], entries[index+1:]...)
				break
			}
		}
		if len(entries) == 0 {
			delete(watcher.callbacks, dir)
			shouldRemove = true
		} else {
			watcher.callbacks[dir] = entries
		}
	}
	closed := watcher.closed
	watcher.mutex.Unlock()

	if shouldRemove && watcher.source != nil && !closed {
		if err := watcher.source.Remove(dir); err != nil {
			watcher.logWarn("watch remove failed", map[string]string{
				"dir":   dir,
				"error": err.Error(),
			})
			return err
		}
		watcher.logDebug("watch removed", map[string]string{"dir": dir})
	}
	return nil
}

func (watcher *Watcher) dropCallback(dir string, id uint64) {
	if watcher == nil {
		return
	}

	watcher.mutex.Lock()
	entries := watcher.callbacks[dir]
	if len(entries) > 0 {
		for index, candidate := range entries {
			if candidate.id == id {
				entries = append(entries[:index], entries[index+1:]...)
				break
			}
		}
		if len(entries) == 0 {
			delete(watcher.callbacks, dir)
		} else {
			watcher.callbacks[dir] = entries
		}
	}
	watcher.mutex.Unlock()
}

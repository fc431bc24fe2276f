package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDispatchesCreateEvent(t *testing.T) {
	watcher, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	dir := t.TempDir()
	events := make(chan Event, 4)
	handle, err := watcher.Watch(dir, func(event Event) {
		select {
		case events <- event:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch dir: %v", err)
	}
	defer handle.Close()

	path := filepath.Join(dir, "session.mkv")
	if err := os.WriteFile(path, []byte("frame"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	event, ok := waitForKind(events, KindCreated)
	if !ok {
		t.Fatal("timed out waiting for create event")
	}
	if event.Path != path {
		t.Fatalf("expected path %q, got %q", path, event.Path)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected event timestamp to be set")
	}
}

func TestWatcherDispatchesModifyEvent(t *testing.T) {
	watcher, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "session.mkv")
	if err := os.WriteFile(path, []byte("frame"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	events := make(chan Event, 4)
	handle, err := watcher.Watch(dir, func(event Event) {
		select {
		case events <- event:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch dir: %v", err)
	}
	defer handle.Close()

	if err := os.WriteFile(path, []byte("frame frame"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	event, ok := waitForKind(events, KindModified)
	if !ok {
		t.Fatal("timed out waiting for modify event")
	}
	if event.Path != path {
		t.Fatalf("expected path %q, got %q", path, event.Path)
	}
}

func TestWatcherIgnoresDirectoryCreation(t *testing.T) {
	watcher, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	dir := t.TempDir()
	events := make(chan Event, 4)
	handle, err := watcher.Watch(dir, func(event Event) {
		select {
		case events <- event:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch dir: %v", err)
	}
	defer handle.Close()

	nested := filepath.Join(dir, "clips")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	deadline := time.After(500 * time.Millisecond)
	for {
		select {
		case event := <-events:
			if event.Path == nested && event.Kind == KindCreated {
				t.Fatalf("unexpected create event for directory %q", nested)
			}
		case <-deadline:
			return
		}
	}
}

func TestWatchRejectsNonDirectory(t *testing.T) {
	watcher, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	path := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := watcher.Watch(path, func(Event) {}); err == nil {
		t.Fatal("expected error watching a regular file")
	}
}

func TestHandleCloseStopsDelivery(t *testing.T) {
	watcher, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	dir := t.TempDir()
	events := make(chan Event, 4)
	handle, err := watcher.Watch(dir, func(event Event) {
		select {
		case events <- event:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch dir: %v", err)
	}

	if err := handle.Close(); err != nil {
		t.Fatalf("close handle: %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("second close returned error: %v", err)
	}

	path := filepath.Join(dir, "late.mkv")
	if err := os.WriteFile(path, []byte("frame"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case event := <-events:
		t.Fatalf("unexpected event after close: %+v", event)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchAfterCloseFails(t *testing.T) {
	watcher, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Fatalf("close watcher: %v", err)
	}

	if _, err := watcher.Watch(t.TempDir(), func(Event) {}); err == nil {
		t.Fatal("expected error watching after close")
	}
}

func waitForKind(events <-chan Event, kind Kind) (Event, bool) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Kind == kind {
				return event, true
			}
		case <-deadline:
			return Event{}, false
		}
	}
}

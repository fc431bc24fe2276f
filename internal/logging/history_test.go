package logging

import (
	"strconv"
	"sync"
	"testing"
)

func TestHistoryKeepsMostRecentEntries(t *testing.T) {
	history := NewHistory(3)
	for index := 0; index < 5; index++ {
		history.Add(Entry{Message: strconv.Itoa(index)})
	}

	entries := history.List()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for index, entry := range entries {
		expected := strconv.Itoa(index + 2)
		if entry.Message != expected {
			t.Fatalf("entry %d: expected %q, got %q", index, expected, entry.Message)
		}
	}
}

func TestHistoryConcurrentAdds(t *testing.T) {
	history := NewHistory(100)

	var group sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		group.Add(1)
		go func() {
			defer group.Done()
			for index := 0; index < 25; index++ {
				history.Add(Entry{Message: "entry"})
			}
		}()
	}
	group.Wait()

	if got := len(history.List()); got != 100 {
		t.Fatalf("expected 100 retained entries, got %d", got)
	}
}

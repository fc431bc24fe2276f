package tracker

import (
	"testing"
	"time"
)

func TestCheckerRunsOnInterval(t *testing.T) {
	checks := make(chan struct{}, 16)
	checker := NewChecker(10*time.Millisecond, func() {
		checks <- struct{}{}
	}, nil)
	checker.Start()
	defer checker.Stop()

	deadline := time.After(2 * time.Second)
	for count := 0; count < 3; count++ {
		select {
		case <-checks:
		case <-deadline:
			t.Fatalf("expected at least 3 checks, got %d", count)
		}
	}
}

func TestCheckerStopPreventsFurtherChecks(t *testing.T) {
	checks := make(chan struct{}, 16)
	checker := NewChecker(10*time.Millisecond, func() {
		checks <- struct{}{}
	}, nil)
	checker.Start()

	select {
	case <-checks:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected an initial check")
	}

	checker.Stop()

	// Drain anything delivered before Stop returned, then confirm silence.
	for {
		select {
		case <-checks:
			continue
		default:
		}
		break
	}
	select {
	case <-checks:
		t.Fatalf("check ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCheckerStopIsIdempotent(t *testing.T) {
	checker := NewChecker(10*time.Millisecond, func() {}, nil)
	checker.Start()
	checker.Stop()
	checker.Stop()
}

func TestCheckerSurvivesPanickingCheck(t *testing.T) {
	checks := make(chan struct{}, 16)
	first := true
	checker := NewChecker(10*time.Millisecond, func() {
		if first {
			first = false
			panic("upload exploded")
		}
		checks <- struct{}{}
	}, nil)
	checker.Start()
	defer checker.Stop()

	select {
	case <-checks:
	case <-time.After(2 * time.Second):
		t.Fatalf("checker died after a panicking check")
	}
}

func TestCheckerDefaultsInterval(t *testing.T) {
	checker := NewChecker(0, func() {}, nil)
	if checker.interval != DefaultCheckInterval {
		t.Fatalf("expected default interval %v, got %v", DefaultCheckInterval, checker.interval)
	}
}

package uploader

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

func serverError(code int) error {
	return &googleapi.Error{Code: code, Message: http.StatusText(code)}
}

func shortenRetryDelay(t *testing.T) {
	t.Helper()
	previous := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() {
		retryDelay = previous
	})
}

func TestIsRetriableClassification(t *testing.T) {
	for _, code := range []int{500, 502, 503, 504} {
		if !isRetriable(serverError(code)) {
			t.Fatalf("expected %d to be retriable", code)
		}
	}
	for _, code := range []int{400, 401, 403, 404} {
		if isRetriable(serverError(code)) {
			t.Fatalf("expected %d not to be retriable", code)
		}
	}
	if isRetriable(errors.New("malformed request")) {
		t.Fatalf("expected plain errors not to be retriable")
	}
	if isRetriable(nil) {
		t.Fatalf("expected nil not to be retriable")
	}
}

func TestWithRetriesExhaustsBudgetOnPersistentServerError(t *testing.T) {
	shortenRetryDelay(t)
	attempts := 0
	_, retries, err := withRetries(context.Background(), nil, func() (string, error) {
		attempts++
		return "", serverError(http.StatusServiceUnavailable)
	})
	if attempts != maxExtraAttempts+1 {
		t.Fatalf("expected %d attempts, got %d", maxExtraAttempts+1, attempts)
	}
	if retries != maxExtraAttempts {
		t.Fatalf("expected %d retries reported, got %d", maxExtraAttempts, retries)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
}

func TestWithRetriesStopsOnNonRetriableError(t *testing.T) {
	permanent := serverError(http.StatusForbidden)
	attempts := 0
	_, _, err := withRetries(context.Background(), nil, func() (string, error) {
		attempts++
		return "", permanent
	})
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		t.Fatalf("expected the permanent error back, got %v", err)
	}
}

func TestWithRetriesSucceedsAfterTransientFailure(t *testing.T) {
	shortenRetryDelay(t)
	attempts := 0
	videoID, retries, err := withRetries(context.Background(), nil, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", serverError(http.StatusBadGateway)
		}
		return "vid123", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if videoID != "vid123" {
		t.Fatalf("expected vid123, got %q", videoID)
	}
	if retries != 2 {
		t.Fatalf("expected 2 retries, got %d", retries)
	}
}

func TestWithRetriesHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, _, err := withRetries(ctx, nil, func() (string, error) {
		attempts++
		return "vid123", nil
	})
	if attempts != 0 {
		t.Fatalf("expected no attempts on cancelled context, got %d", attempts)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

package uploader

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"reeldrop/internal/logging"

	"google.golang.org/api/googleapi"
)

// Transient server failures get maxExtraAttempts additional tries beyond the
// first. Anything else fails immediately.
const maxExtraAttempts = 3

var retryDelay = 2 * time.Second

func isRetriable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// withRetries runs attempt until it succeeds, fails permanently, or the
// budget runs out. It reports the number of retries consumed so callers can
// feed counters.
func withRetries(ctx context.Context, logger *logging.Logger, attempt func() (string, error)) (string, int, error) {
	var lastErr error
	for try := 0; try <= maxExtraAttempts; try++ {
		if err := ctx.Err(); err != nil {
			return "", try, err
		}

		videoID, err := attempt()
		if err == nil {
			return videoID, try, nil
		}
		if !isRetriable(err) {
			return "", try, err
		}
		lastErr = err

		if try < maxExtraAttempts {
			if logger != nil {
				logger.Warn("retriable upload error, retrying", map[string]string{
					"attempt": formatAttempt(try + 1),
					"error":   err.Error(),
				})
			}
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return "", try + 1, ctx.Err()
			}
		}
	}
	return "", maxExtraAttempts, errors.Join(ErrRetriesExhausted, lastErr)
}

func formatAttempt(attempt int) string {
	return strconv.Itoa(attempt)
}

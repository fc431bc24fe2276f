package uploader

import (
	"context"
	"errors"
)

// Request carries the metadata for a single video upload.
type Request struct {
	Path          string
	Title         string
	Description   string
	CategoryID    string
	PrivacyStatus string
	Tags          []string
}

// Uploader uploads a video and returns the remote video ID. Implementations
// retry transient failures internally; a returned error is final for that
// request.
type Uploader interface {
	Upload(ctx context.Context, request Request) (string, error)
}

var (
	// ErrNoClientConfig means the OAuth client environment variables are not
	// set. The caller decides whether to run detector-only or abort.
	ErrNoClientConfig = errors.New("youtube client config missing: set YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_PROJECT_ID")

	// ErrRetriesExhausted wraps the last transient failure once the retry
	// budget is spent.
	ErrRetriesExhausted = errors.New("upload retries exhausted")
)

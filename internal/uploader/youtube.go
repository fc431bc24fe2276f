package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"reeldrop/internal/logging"
	"reeldrop/internal/metrics"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const DefaultTokenFile = "token.json"

// YouTube uploads videos with the YouTube Data API v3. The OAuth client
// config comes from the environment; the user token is cached in a file so
// the consent flow runs once.
type YouTube struct {
	tokenFile string
	logger    *logging.Logger
	registry  *metrics.Registry

	mu      sync.Mutex
	service *youtube.Service
}

type YouTubeOptions struct {
	TokenFile string
	Logger    *logging.Logger
	Registry  *metrics.Registry
}

func NewYouTube(options YouTubeOptions) *YouTube {
	tokenFile := options.TokenFile
	if tokenFile == "" {
		tokenFile = DefaultTokenFile
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.NewLoggerWithOutput(logging.NewHistory(logging.DefaultHistorySize), logging.LevelInfo, nil)
	}
	registry := options.Registry
	if registry == nil {
		registry = metrics.Default
	}
	return &YouTube{
		tokenFile: tokenFile,
		logger:    logger.With(map[string]string{"component": "uploader"}),
		registry:  registry,
	}
}

// Authenticate builds the API service, running the consent flow if no cached
// token exists. ErrNoClientConfig means credentials were never configured;
// the caller may continue in detector-only mode.
func (client *YouTube) Authenticate(ctx context.Context) error {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.authenticateLocked(ctx)
}

func (client *YouTube) authenticateLocked(ctx context.Context) error {
	if client.service != nil {
		return nil
	}

	config, err := clientConfigFromEnv()
	if err != nil {
		return err
	}

	token, err := loadToken(client.tokenFile)
	if err != nil {
		if !os.IsNotExist(err) {
			client.logger.Warn("token file unreadable, re-authorizing", map[string]string{
				"token_file": client.tokenFile,
				"error":      err.Error(),
			})
		}
		token, err = runLoopbackFlow(ctx, config, func(url string) {
			client.logger.Info("authorize this app in your browser", map[string]string{
				"url": url,
			})
		})
		if err != nil {
			return fmt.Errorf("authorize: %w", err)
		}
		if err := saveToken(client.tokenFile, token); err != nil {
			client.logger.Warn("token save failed", map[string]string{
				"token_file": client.tokenFile,
				"error":      err.Error(),
			})
		}
	}

	source := config.TokenSource(ctx, token)
	fresh, err := source.Token()
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := saveToken(client.tokenFile, fresh); err != nil {
			client.logger.Warn("token save failed", map[string]string{
				"token_file": client.tokenFile,
				"error":      err.Error(),
			})
		}
	}

	service, err := youtube.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return fmt.Errorf("build youtube service: %w", err)
	}
	client.service = service
	client.logger.Info("authenticated with youtube", nil)
	return nil
}

// Upload sends the video, retrying transient server failures up to the retry
// budget. Progress is reported through the logger.
func (client *YouTube) Upload(ctx context.Context, request Request) (string, error) {
	client.mu.Lock()
	if err := client.authenticateLocked(ctx); err != nil {
		client.mu.Unlock()
		return "", err
	}
	service := client.service
	client.mu.Unlock()

	info, err := os.Stat(request.Path)
	if err != nil {
		return "", fmt.Errorf("video file not found: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       request.Title,
			Description: request.Description,
			CategoryId:  request.CategoryID,
			Tags:        request.Tags,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: request.PrivacyStatus,
		},
	}

	client.logger.Info("uploading video", map[string]string{
		"file":  filepath.Base(request.Path),
		"title": request.Title,
		"bytes": strconv.FormatInt(info.Size(), 10),
	})

	totalBytes := info.Size()
	videoID, retries, err := withRetries(ctx, client.logger, func() (string, error) {
		return client.insert(ctx, service, video, request.Path, totalBytes)
	})
	client.registry.AddUploadRetries(int64(retries))
	if err != nil {
		return "", err
	}

	client.logger.Info("video uploaded", map[string]string{
		"video_id": videoID,
		"url":      "https://www.youtube.com/watch?v=" + videoID,
	})
	return videoID, nil
}

func (client *YouTube) insert(ctx context.Context, service *youtube.Service, video *youtube.Video, path string, totalBytes int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	call := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(file, googleapi.ContentType("video/*")).
		ProgressUpdater(func(current, total int64) {
			client.logProgress(current, total, totalBytes)
		})

	response, err := call.Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if response.Id == "" {
		return "", fmt.Errorf("upload response missing video id")
	}
	return response.Id, nil
}

func (client *YouTube) logProgress(current, total, fallbackTotal int64) {
	if total <= 0 {
		total = fallbackTotal
	}
	if total <= 0 {
		return
	}
	percent := current * 100 / total
	client.logger.Info("upload progress", map[string]string{
		"percent": strconv.FormatInt(percent, 10),
	})
}

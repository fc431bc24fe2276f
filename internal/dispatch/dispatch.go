// Package dispatch turns a finished recording into an upload request.
package dispatch

import (
	"context"
	"time"

	"reeldrop/internal/event"
	"reeldrop/internal/logging"
	"reeldrop/internal/metrics"
	"reeldrop/internal/uploader"
)

const (
	titleLayout = "01/02/2006"

	// 22 is the YouTube "People & Blogs" category.
	uploadCategoryID    = "22"
	uploadPrivacyStatus = "private"
)

// Dispatcher uploads finished recordings. A nil uploader is a supported
// configuration: the detector runs and completions are logged, nothing is
// uploaded.
type Dispatcher struct {
	uploader uploader.Uploader
	logger   *logging.Logger
	bus      *event.Bus[event.RecordingEvent]
	registry *metrics.Registry
	baseCtx  context.Context
	now      func() time.Time
}

type Options struct {
	Uploader uploader.Uploader
	Logger   *logging.Logger
	Bus      *event.Bus[event.RecordingEvent]
	Registry *metrics.Registry

	// Context bounds in-flight uploads; cancelled on shutdown.
	Context context.Context
}

func New(options Options) *Dispatcher {
	logger := options.Logger
	if logger == nil {
		logger = logging.NewLoggerWithOutput(logging.NewHistory(logging.DefaultHistorySize), logging.LevelInfo, nil)
	}
	registry := options.Registry
	if registry == nil {
		registry = metrics.Default
	}
	baseCtx := options.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Dispatcher{
		uploader: options.Uploader,
		logger:   logger.With(map[string]string{"component": "dispatch"}),
		bus:      options.Bus,
		registry: registry,
		baseCtx:  baseCtx,
		now:      time.Now,
	}
}

// Dispatch uploads the finished recording at path. Failures are terminal for
// this file only: they are logged and dropped, never propagated to the
// caller, so the periodic checker and the tracker stay healthy.
func (dispatcher *Dispatcher) Dispatch(path string) {
	if dispatcher == nil || path == "" {
		return
	}

	if dispatcher.uploader == nil {
		dispatcher.logger.Info("no uploader configured, skipping upload", map[string]string{
			"path": path,
		})
		dispatcher.publish(event.TypeUploadSkipped, path, nil)
		return
	}

	title := dispatcher.now().Format(titleLayout)
	request := uploader.Request{
		Path:          path,
		Title:         title,
		Description:   "Auto-uploaded recording: " + title,
		CategoryID:    uploadCategoryID,
		PrivacyStatus: uploadPrivacyStatus,
	}

	dispatcher.logger.Info("starting upload", map[string]string{
		"path":  path,
		"title": title,
	})
	dispatcher.registry.IncUploadStarted()
	dispatcher.publish(event.TypeUploadStarted, path, map[string]string{"title": title})

	videoID, err := dispatcher.uploader.Upload(dispatcher.baseCtx, request)
	if err != nil {
		dispatcher.logger.Error("upload failed", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		dispatcher.registry.IncUploadFailed()
		dispatcher.publish(event.TypeUploadFailed, path, map[string]string{"error": err.Error()})
		return
	}

	dispatcher.logger.Info("upload complete", map[string]string{
		"path":     path,
		"video_id": videoID,
	})
	dispatcher.registry.IncUploadCompleted()
	dispatcher.publish(event.TypeUploadCompleted, path, map[string]string{"video_id": videoID})
}

func (dispatcher *Dispatcher) publish(eventType, path string, detail map[string]string) {
	if dispatcher.bus == nil {
		return
	}
	dispatcher.bus.Publish(event.NewRecordingEvent(eventType, path, detail))
}

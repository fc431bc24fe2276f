package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"reeldrop/internal/api"
	"reeldrop/internal/config"
	"reeldrop/internal/dispatch"
	"reeldrop/internal/event"
	"reeldrop/internal/logging"
	"reeldrop/internal/metrics"
	"reeldrop/internal/tracker"
	"reeldrop/internal/uploader"
	"reeldrop/internal/version"
	"reeldrop/internal/watcher"
)

const (
	shutdownTimeout  = 10 * time.Second
	eventHistorySize = 256
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := loadConfig(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if cfg.ShowVersion {
		printVersion(os.Stdout)
		return 0
	}

	history := logging.NewHistory(logging.DefaultHistorySize)
	logger := logging.NewLogger(history, resolveLogLevel(cfg))
	logVersionInfo(logger)
	logStartupConfig(logger, cfg)

	if info, err := os.Stat(cfg.Settings.WatchDir); err != nil || !info.IsDir() {
		fields := map[string]string{"path": cfg.Settings.WatchDir}
		if err != nil {
			fields["error"] = err.Error()
		}
		logger.Error("watch directory unavailable", fields)
		return 1
	}

	registry := metrics.Default
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	bus := event.NewBus[event.RecordingEvent](runCtx, event.BusOptions{
		Name:        "recordings",
		HistorySize: eventHistorySize,
	})

	videoUploader := buildUploader(runCtx, cfg.Settings, logger, registry)
	dispatcher := dispatch.New(dispatch.Options{
		Uploader: videoUploader,
		Logger:   logger,
		Bus:      bus,
		Registry: registry,
		Context:  runCtx,
	})
	fileTracker := tracker.New(tracker.Options{
		CheckInterval: cfg.Settings.CheckInterval,
		OnFinished:    dispatcher.Dispatch,
		Logger:        logger,
		Bus:           bus,
		Registry:      registry,
	})

	watch, err := watcher.NewWithOptions(watcher.Options{
		Logger:   logger,
		Registry: registry,
	})
	if err != nil {
		logger.Error("start watcher failed", map[string]string{
			"error": err.Error(),
		})
		return 1
	}
	handle, err := watch.Watch(cfg.Settings.WatchDir, func(entry watcher.Event) {
		switch entry.Kind {
		case watcher.KindCreated:
			fileTracker.OnCreate(entry.Path)
		case watcher.KindModified:
			fileTracker.OnModify(entry.Path)
		}
	})
	if err != nil {
		logger.Error("watch directory failed", map[string]string{
			"path":  cfg.Settings.WatchDir,
			"error": err.Error(),
		})
		watch.Close()
		return 1
	}

	checker := tracker.NewChecker(cfg.Settings.CheckInterval, fileTracker.Check, logger)
	checker.Start()

	var server *http.Server
	if cfg.Settings.API.Enabled {
		mux := http.NewServeMux()
		api.RegisterRoutes(mux, &api.Handler{
			Tracker:       fileTracker,
			Bus:           bus,
			Logger:        logger,
			Registry:      registry,
			AuthToken:     cfg.Settings.API.AuthToken,
			WatchDir:      cfg.Settings.WatchDir,
			CheckInterval: cfg.Settings.CheckInterval,
			StartedAt:     time.Now(),
		})
		server = &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Settings.API.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status api listening", map[string]string{
				"addr": server.Addr,
			})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server stopped", map[string]string{
					"error": err.Error(),
				})
			}
		}()
	}

	logger.Info("watching for recordings", map[string]string{
		"path":           cfg.Settings.WatchDir,
		"check_interval": cfg.Settings.CheckInterval.String(),
	})

	signalCh := make(chan os.Signal, 2)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	stopSignalWatch := watchSignals(logger, cancelRun, signalCh)
	defer stopSignalWatch()

	<-runCtx.Done()
	signal.Stop(signalCh)

	pieces := &daemon{
		server:  server,
		checker: checker,
		handle:  handle,
		watch:   watch,
		bus:     bus,
		logger:  logger,
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := pieces.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown completed with errors", map[string]string{
			"error": err.Error(),
		})
		return 1
	}
	logger.Info("shutdown complete", nil)
	return 0
}

// buildUploader decides between upload and detector-only mode. Missing
// credentials or a failed authentication never stop the detector.
func buildUploader(ctx context.Context, settings config.Settings, logger *logging.Logger, registry *metrics.Registry) uploader.Uploader {
	if !settings.Upload.Enabled {
		logger.Info("uploads disabled; running detector-only", nil)
		return nil
	}
	if !uploader.ClientConfigured() {
		logger.Warn("oauth client not configured; running detector-only", map[string]string{
			"hint": "set YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_PROJECT_ID",
		})
		return nil
	}
	client := uploader.NewYouTube(uploader.YouTubeOptions{
		TokenFile: settings.Upload.TokenFile,
		Logger:    logger,
		Registry:  registry,
	})
	if err := client.Authenticate(ctx); err != nil {
		logger.Warn("authentication failed; running detector-only", map[string]string{
			"error": err.Error(),
		})
		return nil
	}
	return client
}

func printVersion(out io.Writer) {
	info := version.GetVersionInfo()
	fmt.Fprintf(out, "reeldrop %s\n", info.Version)
	if info.Built != "" {
		fmt.Fprintf(out, "built: %s\n", info.Built)
	}
	if info.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\n", info.GitCommit)
	}
}

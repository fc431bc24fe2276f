package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"reeldrop/internal/event"
	"reeldrop/internal/logging"
	"reeldrop/internal/tracker"
	"reeldrop/internal/watcher"
)

// daemon holds the running pieces in the order they must stop: refuse new
// API requests first, then stop deciding, then stop observing, then close
// the bus so stream subscribers drain.
type daemon struct {
	server  *http.Server
	checker *tracker.Checker
	handle  watcher.Handle
	watch   *watcher.Watcher
	bus     *event.Bus[event.RecordingEvent]
	logger  *logging.Logger
	once    sync.Once
}

// Shutdown stops every piece exactly once and reports the combined failures.
// A failed piece never blocks the ones after it.
func (daemon *daemon) Shutdown(ctx context.Context) error {
	if daemon == nil {
		return nil
	}
	var shutdownErr error
	daemon.once.Do(func() {
		shutdownErr = errors.Join(
			daemon.stopPiece("http", func() error {
				if daemon.server == nil {
					return nil
				}
				return daemon.server.Shutdown(ctx)
			}),
			daemon.stopPiece("checker", func() error {
				if daemon.checker != nil {
					daemon.checker.Stop()
				}
				return nil
			}),
			daemon.stopPiece("watcher", func() error {
				var err error
				if daemon.handle != nil {
					err = daemon.handle.Close()
				}
				if daemon.watch != nil {
					err = errors.Join(err, daemon.watch.Close())
				}
				return err
			}),
			daemon.stopPiece("bus", func() error {
				if daemon.bus != nil {
					daemon.bus.Close()
				}
				return nil
			}),
		)
	})
	return shutdownErr
}

func (daemon *daemon) stopPiece(name string, stop func() error) error {
	if daemon.logger != nil {
		daemon.logger.Info("stopping "+name, nil)
	}
	err := stop()
	if err != nil && daemon.logger != nil {
		daemon.logger.Warn("stop "+name+" failed", map[string]string{
			"error": err.Error(),
		})
	}
	return err
}

// watchSignals cancels the run context on the first signal. One repeat gets
// a log line; further repeats are dropped until the daemon exits on its own.
func watchSignals(logger *logging.Logger, cancel context.CancelFunc, signalCh <-chan os.Signal) func() {
	if signalCh == nil {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		received := 0
		for {
			select {
			case <-done:
				return
			case sig, ok := <-signalCh:
				if !ok {
					return
				}
				received++
				fields := map[string]string{}
				if sig != nil {
					fields["signal"] = sig.String()
				}
				switch received {
				case 1:
					if logger != nil {
						logger.Info("shutdown signal received", fields)
					}
					if cancel != nil {
						cancel()
					}
				case 2:
					if logger != nil {
						logger.Info("shutdown already in progress; ignoring signal", fields)
					}
				}
			}
		}
	}()

	return func() {
		close(done)
	}
}

package tracker

import (
	"sync"
	"time"

	"reeldrop/internal/logging"
)

const DefaultCheckInterval = 300 * time.Second

// Checker runs a quiescence check on a fixed interval until stopped. A check
// that panics is logged and the loop keeps running.
type Checker struct {
	interval time.Duration
	check    func()
	logger   *logging.Logger

	done     chan struct{}
	stopOnce sync.Once
	stopped  sync.WaitGroup
}

func NewChecker(interval time.Duration, check func(), logger *logging.Logger) *Checker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Checker{
		interval: interval,
		check:    check,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the periodic loop. The first check fires one full interval
// after Start, matching the debounce-by-interval contract.
func (checker *Checker) Start() {
	if checker == nil || checker.check == nil {
		return
	}
	checker.stopped.Add(1)
	go checker.run()
}

// Stop terminates the loop. The current sleep is abandoned and no further
// check runs. Stop blocks until the loop goroutine has exited; an in-flight
// check completes first.
func (checker *Checker) Stop() {
	if checker == nil {
		return
	}
	checker.stopOnce.Do(func() {
		close(checker.done)
	})
	checker.stopped.Wait()
}

func (checker *Checker) run() {
	defer checker.stopped.Done()

	ticker := time.NewTicker(checker.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-checker.done:
				return
			default:
			}
			checker.runCheck()
		case <-checker.done:
			return
		}
	}
}

func (checker *Checker) runCheck() {
	defer func() {
		if recovered := recover(); recovered != nil && checker.logger != nil {
			checker.logger.Error("quiescence check panicked", map[string]string{
				"panic": describePanic(recovered),
			})
		}
	}()
	checker.check()
}

func describePanic(recovered any) string {
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	if text, ok := recovered.(string); ok {
		return text
	}
	return "unknown panic"
}

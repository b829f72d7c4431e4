// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/tasks"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// DefaultStartupDelay is how long a job waits after Start before its first run.
const DefaultStartupDelay = 10 * time.Second

// Runner is a background worker that runs one job periodically.
type Runner struct {
	job          tasks.Job
	log          *zap.Logger
	startupDelay time.Duration
	timeout      time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewRunner creates a runner for job.
//
// Parameters:
//   - job: the work to run; job.Interval is the pause between runs
//   - logger: zap logger for logging
//   - startupDelay: wait before the first run, so a backlog left by
//     downtime is picked up soon after the process starts
func NewRunner(job tasks.Job, logger *zap.Logger, startupDelay time.Duration) *Runner {
	return &Runner{
		job:          job,
		log:          logger.With(zap.String("job", job.Name)),
		startupDelay: startupDelay,
		timeout:      timeouts.Sweep(),
		stopCh:       make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Runner) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("worker started",
		zap.Duration("interval", w.job.Interval),
		zap.Duration("startup_delay", w.startupDelay))
}

// Stop signals the worker to stop and waits for it to finish.
// A run in progress is cancelled.
func (w *Runner) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("worker stopped")
}

func (w *Runner) run() {
	defer w.wg.Done()

	delay := time.NewTimer(w.startupDelay)
	select {
	case <-w.stopCh:
		delay.Stop()
		return
	case <-delay.C:
	}
	w.once()

	ticker := time.NewTicker(w.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.once()
		}
	}
}

func (w *Runner) once() {
	ctx, cancel := timeouts.WithTimeout(context.Background(), w.timeout, w.log, w.job.Name)
	defer cancel()

	// Stop cancels the run instead of waiting out its timeout.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-done:
		}
	}()

	start := time.Now()
	if err := w.job.Run(ctx); err != nil {
		w.log.Error("job failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return
	}
	w.log.Debug("job finished", zap.Duration("elapsed", time.Since(start)))
}

// Group starts and stops several runners together.
type Group []*Runner

func (g Group) Start() {
	for _, r := range g {
		r.Start()
	}
}

func (g Group) Stop() {
	for _, r := range g {
		r.Stop()
	}
}

// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/notify"
	"github.com/dalemusser/santahub/internal/app/system/reminders"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Default intervals.
const (
	ReminderSweepInterval  = 15 * time.Minute
	ScheduledCheckInterval = 5 * time.Minute
)

// ReminderSweepJob sends due gift reminders.
func ReminderSweepJob(s *reminders.Sweeper, logger *zap.Logger, interval time.Duration) Job {
	if interval <= 0 {
		interval = ReminderSweepInterval
	}
	return Job{
		Name:     "reminder-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			rep, err := s.Sweep(ctx)
			if errors.Is(err, reminders.ErrSweepRunning) {
				// An admin-triggered sweep is in progress.
				logger.Debug("reminder sweep skipped: already running")
				return nil
			}
			if err != nil {
				return err
			}
			if rep.Sent > 0 || rep.Failed > 0 {
				logger.Info("reminders sent",
					zap.Int("sent", rep.Sent),
					zap.Int("failed", rep.Failed))
			}
			return nil
		},
	}
}

// ScheduledNotifyJob sends assignment messages once the event's scheduled
// notify time has passed.
func ScheduledNotifyJob(d *notify.Dispatcher, logger *zap.Logger, interval time.Duration) Job {
	if interval <= 0 {
		interval = ScheduledCheckInterval
	}
	return Job{
		Name:     "scheduled-notify",
		Interval: interval,
		Run: func(ctx context.Context) error {
			ran, err := d.ScheduledCheck(ctx)
			if ran && err == nil {
				logger.Debug("scheduled notification dispatched")
			}
			return err
		},
	}
}

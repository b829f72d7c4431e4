package notify

import (
	"context"
	"errors"

	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ScheduledCheck fires the dispatcher when the event's scheduled notify
// time has passed. A lease on the schedule keeps overlapping checks from
// both dispatching. The schedule is cleared only when no send failed, so
// failures are retried on the next check. It reports whether a dispatch ran.
func (d *Dispatcher) ScheduledCheck(ctx context.Context) (bool, error) {
	claimed, err := d.Events.ClaimScheduled(ctx, d.now(), timeouts.Sweep())
	if err != nil || !claimed {
		return false, err
	}

	d.Log.Info("scheduled notification time reached")
	rep, err := d.Dispatch(ctx)
	done := err == nil && rep.Failed == 0
	if relErr := d.Events.ReleaseSchedule(ctx, done); relErr != nil {
		d.Log.Error("schedule lease not released", zap.Error(relErr))
	}

	switch {
	case errors.Is(err, ErrDispatchRunning):
		d.Log.Info("scheduled dispatch deferred: a dispatch is already running")
		return false, nil
	case err != nil:
		d.Log.Error("scheduled dispatch failed", zap.Error(err))
		return true, err
	case rep.Failed > 0:
		d.Log.Warn("scheduled dispatch had failures, retrying next check", zap.Int("failed", rep.Failed))
	}
	return true, nil
}

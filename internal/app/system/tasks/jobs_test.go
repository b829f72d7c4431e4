package tasks

import (
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/notify"
	"github.com/dalemusser/santahub/internal/app/system/reminders"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestJobDefaults(t *testing.T) {
	log := zap.NewNop()

	j := ReminderSweepJob(&reminders.Sweeper{}, log, 0)
	assert.Equal(t, "reminder-sweep", j.Name)
	assert.Equal(t, 15*time.Minute, j.Interval)

	j = ReminderSweepJob(&reminders.Sweeper{}, log, time.Minute)
	assert.Equal(t, time.Minute, j.Interval)

	j = ScheduledNotifyJob(&notify.Dispatcher{}, log, 0)
	assert.Equal(t, "scheduled-notify", j.Name)
	assert.Equal(t, 5*time.Minute, j.Interval)
}

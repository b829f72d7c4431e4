package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunner_RunsAfterDelayThenOnInterval(t *testing.T) {
	var runs atomic.Int32
	job := tasks.Job{
		Name:     "count",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}
	r := NewRunner(job, zap.NewNop(), time.Millisecond)
	r.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, time.Millisecond)
	r.Stop()

	n := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, runs.Load(), "no runs after Stop")
}

func TestRunner_StopBeforeFirstRun(t *testing.T) {
	var runs atomic.Int32
	job := tasks.Job{Name: "never", Interval: time.Hour, Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}}
	r := NewRunner(job, zap.NewNop(), time.Hour)
	r.Start()
	r.Stop()
	r.Stop()
	assert.Zero(t, runs.Load())
}

func TestRunner_StopCancelsRun(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	job := tasks.Job{Name: "slow", Interval: time.Hour, Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}}
	r := NewRunner(job, zap.NewNop(), 0)
	r.Start()
	<-started
	r.Stop()
	assert.True(t, cancelled.Load())
}

func TestRunner_ErrorsDoNotStopLoop(t *testing.T) {
	var runs atomic.Int32
	job := tasks.Job{Name: "fails", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	}}
	g := Group{NewRunner(job, zap.NewNop(), 0)}
	g.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, time.Millisecond)
	g.Stop()
}

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_PerKeyWindow(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()
	now := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("U1"))
	assert.True(t, l.Allow("U1"))
	assert.False(t, l.Allow("U1"))
	assert.Equal(t, 0, l.Remaining("U1"))

	assert.True(t, l.Allow("U2"), "keys are independent")
	assert.Equal(t, 1, l.Remaining("U2"))

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, l.Remaining("U1"))
	assert.True(t, l.Allow("U1"))
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Hour)
	defer l.Stop()

	assert.True(t, l.Allow("U1"))
	assert.False(t, l.Allow("U1"))
	l.Reset("U1")
	assert.True(t, l.Allow("U1"))
}

func TestLimiter_StopTwice(t *testing.T) {
	l := New(1, time.Millisecond)
	l.Stop()
	l.Stop()
}

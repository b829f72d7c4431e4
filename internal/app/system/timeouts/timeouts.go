// Package timeouts provides centralized timeout values for store calls,
// outbound chat calls and background sweeps.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads and writes
//   - Medium: list queries, batch replaces of one round's assignments
//   - Send: one outbound chat API call (message, lookup, profile)
//   - Inbound: handling one inbound chat message end to end
//   - Sweep: one full reminder sweep or notification batch
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing    = 2 * time.Second
	DefaultShort   = 5 * time.Second
	DefaultMedium  = 10 * time.Second
	DefaultSend    = 10 * time.Second
	DefaultInbound = 45 * time.Second
	DefaultSweep   = 10 * time.Minute
)

var mu sync.RWMutex

var (
	ping    = DefaultPing
	short   = DefaultShort
	medium  = DefaultMedium
	send    = DefaultSend
	inbound = DefaultInbound
	sweep   = DefaultSweep
)

func get(v *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *v
}

// Ping returns the timeout for health checks.
func Ping() time.Duration { return get(&ping) }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return get(&short) }

// Medium returns the timeout for list queries and batch writes.
func Medium() time.Duration { return get(&medium) }

// Send returns the timeout for one outbound chat API call.
func Send() time.Duration { return get(&send) }

// Inbound returns the budget for processing one inbound chat message.
func Inbound() time.Duration { return get(&inbound) }

// Sweep returns the budget for one background sweep or batch.
func Sweep() time.Duration { return get(&sweep) }

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping    time.Duration
	Short   time.Duration
	Medium  time.Duration
	Send    time.Duration
	Inbound time.Duration
	Sweep   time.Duration
}

// Configure sets custom timeout values. Call it during startup before
// workers and handlers are started.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&send, cfg.Send)
	set(&inbound, cfg.Inbound)
	set(&sweep, cfg.Sweep)
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium = DefaultPing, DefaultShort, DefaultMedium
	send, inbound, sweep = DefaultSend, DefaultInbound, DefaultSweep
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Send: send, Inbound: inbound, Sweep: sweep}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Sweep(), s.Log, "reminder sweep")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}

// Package inbox runs inbound chat messages off the webhook request path.
//
// Each sender is hashed onto one of a fixed number of lanes. A lane is a
// single goroutine, so one sender's messages are handled in arrival order
// while messages from different senders proceed in parallel.
package inbox

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/dalemusser/santahub/internal/app/system/conversation"
	"github.com/dalemusser/santahub/internal/app/system/ratelimit"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLanes  = 8
	DefaultBuffer = 64
)

var (
	ErrStopped     = errors.New("inbox: stopped")
	ErrLaneFull    = errors.New("inbox: lane full")
	ErrRateLimited = errors.New("inbox: sender rate limited")
)

// Handler processes one message.
type Handler interface {
	Handle(ctx context.Context, msg conversation.Message) (conversation.Outcome, error)
}

type item struct {
	id  string
	msg conversation.Message
}

// Lanes fans inbound messages out to per-sender goroutines.
type Lanes struct {
	handler Handler
	limiter *ratelimit.Limiter
	log     *zap.Logger

	lanes   []chan item
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// New creates n lanes with room for buffer queued messages each. limiter
// may be nil.
func New(n, buffer int, h Handler, limiter *ratelimit.Limiter, log *zap.Logger) *Lanes {
	if n <= 0 {
		n = DefaultLanes
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	l := &Lanes{handler: h, limiter: limiter, log: log, lanes: make([]chan item, n)}
	for i := range l.lanes {
		l.lanes[i] = make(chan item, buffer)
	}
	return l
}

// Start launches the lane goroutines.
func (l *Lanes) Start() {
	for i, ch := range l.lanes {
		l.wg.Add(1)
		go l.run(i, ch)
	}
	l.log.Info("inbox lanes started", zap.Int("lanes", len(l.lanes)))
}

// Stop refuses new messages, lets queued ones finish and waits for the
// lanes to exit.
func (l *Lanes) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	for _, ch := range l.lanes {
		close(ch)
	}
	l.mu.Unlock()

	l.wg.Wait()
	if l.limiter != nil {
		l.limiter.Stop()
	}
	l.log.Info("inbox lanes stopped")
}

// Submit queues msg without blocking and returns the id it will be logged under.
func (l *Lanes) Submit(msg conversation.Message) (string, error) {
	if l.limiter != nil && !l.limiter.Allow(msg.UserID) {
		l.log.Warn("inbound message dropped: rate limited", zap.String("user_id", msg.UserID))
		return "", ErrRateLimited
	}

	it := item{id: uuid.NewString(), msg: msg}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		return "", ErrStopped
	}
	select {
	case l.lanes[l.laneFor(msg.UserID)] <- it:
		return it.id, nil
	default:
		l.log.Warn("inbound message dropped: lane full",
			zap.String("message_id", it.id),
			zap.String("user_id", msg.UserID))
		return "", ErrLaneFull
	}
}

func (l *Lanes) laneFor(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(l.lanes)))
}

func (l *Lanes) run(lane int, ch <-chan item) {
	defer l.wg.Done()
	for it := range ch {
		l.handle(lane, it)
	}
}

func (l *Lanes) handle(lane int, it item) {
	log := l.log.With(
		zap.String("message_id", it.id),
		zap.String("user_id", it.msg.UserID),
		zap.Int("lane", lane))

	defer func() {
		if r := recover(); r != nil {
			log.Error("inbound handler panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Inbound(), log, "inbound message")
	defer cancel()

	out, err := l.handler.Handle(ctx, it.msg)
	if err != nil {
		log.Error("inbound message failed", zap.Error(err))
		return
	}
	log.Debug("inbound message handled", zap.Stringer("outcome", out))
}

package inbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/conversation"
	"github.com/dalemusser/santahub/internal/app/system/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu   sync.Mutex
	seen map[string][]string
	gate chan struct{}
}

func (r *recorder) Handle(ctx context.Context, msg conversation.Message) (conversation.Outcome, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[msg.UserID] = append(r.seen[msg.UserID], msg.Text)
	return conversation.OutcomeOnboarding, nil
}

func TestLanes_PerSenderOrder(t *testing.T) {
	rec := &recorder{seen: map[string][]string{}}
	l := New(4, 100, rec, nil, zap.NewNop())
	l.Start()

	var want []string
	for i := 0; i < 50; i++ {
		text := string(rune('a' + i%26))
		want = append(want, text)
		for _, user := range []string{"U1", "U2", "U3"} {
			_, err := l.Submit(conversation.Message{UserID: user, Text: text})
			require.NoError(t, err)
		}
	}
	l.Stop()

	for _, user := range []string{"U1", "U2", "U3"} {
		assert.Equal(t, want, rec.seen[user], user)
	}
}

func TestLanes_SameSenderSameLane(t *testing.T) {
	l := New(16, 1, &recorder{seen: map[string][]string{}}, nil, zap.NewNop())
	assert.Equal(t, l.laneFor("U123"), l.laneFor("U123"))
}

func TestLanes_FullLaneDrops(t *testing.T) {
	rec := &recorder{seen: map[string][]string{}, gate: make(chan struct{})}
	l := New(1, 1, rec, nil, zap.NewNop())
	l.Start()

	_, err := l.Submit(conversation.Message{UserID: "U1", Text: "1"})
	require.NoError(t, err)
	// Wait until the lane has taken the first message and is blocked on the gate.
	require.Eventually(t, func() bool { return len(l.lanes[0]) == 0 }, time.Second, time.Millisecond)

	_, err = l.Submit(conversation.Message{UserID: "U1", Text: "2"})
	require.NoError(t, err)
	_, err = l.Submit(conversation.Message{UserID: "U1", Text: "3"})
	assert.ErrorIs(t, err, ErrLaneFull)

	close(rec.gate)
	l.Stop()
	assert.Equal(t, []string{"1", "2"}, rec.seen["U1"])
}

func TestLanes_RateLimited(t *testing.T) {
	rec := &recorder{seen: map[string][]string{}}
	l := New(2, 10, rec, ratelimit.New(2, time.Minute), zap.NewNop())
	l.Start()

	for i := 0; i < 2; i++ {
		_, err := l.Submit(conversation.Message{UserID: "U1", Text: "x"})
		require.NoError(t, err)
	}
	_, err := l.Submit(conversation.Message{UserID: "U1", Text: "x"})
	assert.ErrorIs(t, err, ErrRateLimited)
	_, err = l.Submit(conversation.Message{UserID: "U2", Text: "x"})
	assert.NoError(t, err)

	l.Stop()
	assert.Len(t, rec.seen["U1"], 2)
}

func TestLanes_SubmitAfterStop(t *testing.T) {
	l := New(1, 1, &recorder{seen: map[string][]string{}}, nil, zap.NewNop())
	l.Start()
	l.Stop()
	l.Stop()

	_, err := l.Submit(conversation.Message{UserID: "U1"})
	assert.ErrorIs(t, err, ErrStopped)
}

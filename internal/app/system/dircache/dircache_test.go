package dircache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/messaging"
	"github.com/dalemusser/santahub/internal/testutil"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingDirectory counts calls that reach the inner transport.
type countingDirectory struct {
	*testutil.FakeMessenger
	lookups  int
	profiles int
}

func (c *countingDirectory) LookupUserByEmail(ctx context.Context, email string) messaging.LookupResult {
	c.lookups++
	return c.FakeMessenger.LookupUserByEmail(ctx, email)
}

func (c *countingDirectory) FetchUserProfile(ctx context.Context, userID string) messaging.ProfileResult {
	c.profiles++
	return c.FakeMessenger.FetchUserProfile(ctx, userID)
}

func newInner() *countingDirectory {
	f := testutil.NewFakeMessenger()
	f.Users["ada@example.com"] = "U1"
	tz := "Europe/Berlin"
	off := 3600
	f.Profiles["U1"] = messaging.Profile{TimeZone: &tz, UTCOffset: &off}
	return &countingDirectory{FakeMessenger: f}
}

func TestPassThroughWithoutPool(t *testing.T) {
	inner := newInner()
	tr := &Transport{Inner: inner, Log: zap.NewNop()}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := tr.LookupUserByEmail(ctx, "ada@example.com")
		require.Equal(t, messaging.ResultOK, res.Kind)
	}
	assert.Equal(t, 3, inner.lookups)

	require.NoError(t, tr.SendDirectMessage(ctx, "U1", "hi"))
	assert.Equal(t, []string{"hi"}, inner.To("U1"))
	assert.NoError(t, tr.Forget(ctx, "ada@example.com"))
}

func setupRedis(t *testing.T) *redis.Pool {
	t.Helper()
	addr := os.Getenv("SANTAHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SANTAHUB_TEST_REDIS_ADDR not set; skipping")
	}
	pool := NewPool(addr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Ping(ctx, pool); err != nil {
		t.Skipf("redis unavailable (%v); skipping", err)
	}
	t.Cleanup(func() {
		conn := pool.Get()
		for _, k := range []string{"email:ada@example.com", "email:ghost@example.com", "profile:U1"} {
			_, _ = conn.Do("DEL", keyPrefix+k)
		}
		conn.Close()
		pool.Close()
	})
	return pool
}

func TestCachesAnswers(t *testing.T) {
	pool := setupRedis(t)
	inner := newInner()
	tr := &Transport{Inner: inner, Pool: pool, TTL: time.Minute, Log: zap.NewNop()}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := tr.LookupUserByEmail(ctx, "ada@example.com")
		require.Equal(t, messaging.ResultOK, res.Kind)
		assert.Equal(t, "U1", res.User.ID)

		res = tr.LookupUserByEmail(ctx, "ghost@example.com")
		assert.Equal(t, messaging.ResultNotFound, res.Kind)

		p := tr.FetchUserProfile(ctx, "U1")
		require.Equal(t, messaging.ResultOK, p.Kind)
		require.NotNil(t, p.Profile.TimeZone)
		assert.Equal(t, "Europe/Berlin", *p.Profile.TimeZone)
	}
	assert.Equal(t, 2, inner.lookups)
	assert.Equal(t, 1, inner.profiles)

	require.NoError(t, tr.Forget(ctx, "ada@example.com"))
	tr.LookupUserByEmail(ctx, "ada@example.com")
	assert.Equal(t, 3, inner.lookups)
}

func TestTransportErrorsNotCached(t *testing.T) {
	pool := setupRedis(t)
	inner := newInner()
	inner.Broken = true
	tr := &Transport{Inner: inner, Pool: pool, Log: zap.NewNop()}
	ctx := context.Background()

	res := tr.LookupUserByEmail(ctx, "ada@example.com")
	assert.Equal(t, messaging.ResultTransportError, res.Kind)

	inner.Broken = false
	res = tr.LookupUserByEmail(ctx, "ada@example.com")
	assert.Equal(t, messaging.ResultOK, res.Kind)
	assert.Equal(t, 2, inner.lookups)
}

// Package dircache caches chat directory lookups in Redis.
//
// Import runs resolve every email through the directory and onboarding
// fetches a profile per completed contact; both hit rate limits quickly on
// large workspaces. Only definite answers (found or not found) are cached.
// Transport errors pass through uncached so the next call retries.
package dircache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/messaging"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

// DefaultTTL applies when Transport.TTL is zero.
const DefaultTTL = 6 * time.Hour

const keyPrefix = "santahub:dir:"

// NewPool builds a redigo pool for addr, which is either host:port or a
// redis:// URL.
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 4 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
				return redis.DialURL(addr, redis.DialConnectTimeout(5*time.Second))
			}
			return redis.DialContext(ctx, "tcp", addr)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Ping checks that the pool can reach the server.
func Ping(ctx context.Context, pool *redis.Pool) error {
	conn, err := pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("PING")
	return err
}

// Transport wraps a messaging.Transport, caching its directory answers.
// A nil Pool disables caching.
type Transport struct {
	Inner messaging.Transport
	Pool  *redis.Pool
	TTL   time.Duration
	Log   *zap.Logger
}

var _ messaging.Transport = (*Transport)(nil)

type cachedUser struct {
	Found bool           `json:"found"`
	User  messaging.User `json:"user"`
}

type cachedProfile struct {
	Found     bool    `json:"found"`
	TimeZone  *string `json:"tz,omitempty"`
	UTCOffset *int    `json:"tz_offset,omitempty"`
	RealName  string  `json:"real_name,omitempty"`
}

// SendDirectMessage is never cached.
func (t *Transport) SendDirectMessage(ctx context.Context, userID, text string) error {
	return t.Inner.SendDirectMessage(ctx, userID, text)
}

// LookupUserByEmail serves from cache when possible.
func (t *Transport) LookupUserByEmail(ctx context.Context, email string) messaging.LookupResult {
	key := keyPrefix + "email:" + strings.ToLower(email)

	var c cachedUser
	if t.load(ctx, key, &c) {
		if !c.Found {
			return messaging.LookupResult{Kind: messaging.ResultNotFound}
		}
		return messaging.LookupResult{Kind: messaging.ResultOK, User: c.User}
	}

	res := t.Inner.LookupUserByEmail(ctx, email)
	switch res.Kind {
	case messaging.ResultOK:
		t.store(ctx, key, cachedUser{Found: true, User: res.User})
	case messaging.ResultNotFound:
		t.store(ctx, key, cachedUser{Found: false})
	}
	return res
}

// FetchUserProfile serves from cache when possible.
func (t *Transport) FetchUserProfile(ctx context.Context, userID string) messaging.ProfileResult {
	key := keyPrefix + "profile:" + userID

	var c cachedProfile
	if t.load(ctx, key, &c) {
		if !c.Found {
			return messaging.ProfileResult{Kind: messaging.ResultNotFound}
		}
		return messaging.ProfileResult{Kind: messaging.ResultOK, Profile: messaging.Profile{
			TimeZone:  c.TimeZone,
			UTCOffset: c.UTCOffset,
			RealName:  c.RealName,
		}}
	}

	res := t.Inner.FetchUserProfile(ctx, userID)
	switch res.Kind {
	case messaging.ResultOK:
		t.store(ctx, key, cachedProfile{
			Found:     true,
			TimeZone:  res.Profile.TimeZone,
			UTCOffset: res.Profile.UTCOffset,
			RealName:  res.Profile.RealName,
		})
	case messaging.ResultNotFound:
		t.store(ctx, key, cachedProfile{Found: false})
	}
	return res
}

// Forget drops any cached answer for email.
func (t *Transport) Forget(ctx context.Context, email string) error {
	if t.Pool == nil {
		return nil
	}
	conn, err := t.Pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("DEL", keyPrefix+"email:"+strings.ToLower(email))
	return err
}

func (t *Transport) ttl() time.Duration {
	if t.TTL > 0 {
		return t.TTL
	}
	return DefaultTTL
}

// load reports whether key was found and decoded into out.
func (t *Transport) load(ctx context.Context, key string, out any) bool {
	if t.Pool == nil {
		return false
	}
	conn, err := t.Pool.GetContext(ctx)
	if err != nil {
		t.warn("directory cache unavailable", key, err)
		return false
	}
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return false
	}
	if err != nil {
		t.warn("directory cache read failed", key, err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.warn("directory cache entry corrupt", key, err)
		return false
	}
	return true
}

func (t *Transport) store(ctx context.Context, key string, v any) {
	if t.Pool == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	conn, err := t.Pool.GetContext(ctx)
	if err != nil {
		t.warn("directory cache unavailable", key, err)
		return
	}
	defer conn.Close()

	secs := int(t.ttl() / time.Second)
	if secs < 1 {
		secs = 1
	}
	if _, err := conn.Do("SET", key, raw, "EX", secs); err != nil {
		t.warn("directory cache write failed", key, err)
	}
}

func (t *Transport) warn(msg, key string, err error) {
	if t.Log != nil {
		t.Log.Warn(msg, zap.String("key", key), zap.Error(err))
	}
}

// Package lock provides per-key advisory locks used to serialize schedule
// writes for a single user.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires exclusive locks by key. The returned release func is safe
// to call once the caller is done; it never releases a lock taken over by
// another owner after expiry.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

const keyPrefix = "schedule:lock:"

// Deletes the key only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client   redis.UniversalClient
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
}

// NewRedisLocker returns a Locker using SET NX with an owner token. Acquire
// retries until wait elapses.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration) Locker {
	return &redisLocker{
		client:   client,
		ttl:      ttl,
		wait:     wait,
		interval: 50 * time.Millisecond,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func(releaseCtx context.Context) error {
				return unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}

		timer := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

type noopLocker struct{}

// NewNoopLocker returns a Locker that always succeeds immediately.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

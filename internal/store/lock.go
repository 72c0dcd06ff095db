package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adrianmcphee/crossbase"
)

// ErrLockHeld is returned when another process holds the lock.
var ErrLockHeld = errors.New("lock held by another process")

// DefaultLockTTL bounds how long a crashed holder blocks others.
const DefaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only if this holder still owns it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

func (i *SessionIndex) lockKey(name string) string {
	return fmt.Sprintf("crossbase:lock:%s:%s", i.namespace, name)
}

// Lock takes a Redis lock named name within the index namespace, so index
// maintenance runs once across processes. The returned release must be
// called; it is a no-op once the TTL has handed the lock to someone else.
func (i *SessionIndex) Lock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if !i.Enabled() {
		return nil, ErrIndexUnavailable
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	key := i.lockKey(name)
	token := uuid.NewString()

	var ok bool
	err := i.guard(ctx, func() error {
		var err error
		ok, err = i.redis.SetNX(ctx, key, token, ttl).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, crossbase.WithContext(ErrLockHeld, map[string]interface{}{
			"lock": name,
			"ttl":  ttl,
		})
	}

	release := func() {
		// The caller's context may already be done.
		_ = i.redis.Eval(context.Background(), releaseScript, []string{key}, token).Err()
	}
	return release, nil
}

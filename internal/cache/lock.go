package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

// SchedulerLock guards scheduled refreshes so only one replica runs per tick.
const SchedulerLock = "drtvfeed:lock:scheduled"

const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`

// TryLock acquires key with SET NX EX. The returned unlock func only
// releases the lock if it is still held by this caller.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) (unlock func(), err error) {
	token := randomToken()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// background ctx: the caller's ctx may already be cancelled
		_ = r.client.Eval(context.Background(), unlockScript, []string{key}, token).Err()
	}, nil
}

// TryLock is the method form of TryLock so *Redis satisfies scheduler.Locker.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return TryLock(ctx, r, key, ttl)
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

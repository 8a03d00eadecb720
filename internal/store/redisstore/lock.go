package redisstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const turnLockPrefix = "mentor-chat:turn-lock:"

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// TurnLocker holds one lock per chat across processes. The TTL bounds how long a crashed
// holder can block a chat.
type TurnLocker struct {
	store *Store
	ttl   time.Duration
}

func (s *Store) TurnLocker(ttl time.Duration) *TurnLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TurnLocker{store: s, ttl: ttl}
}

func (l *TurnLocker) TryLock(ctx context.Context, chatID string) (func(), bool, error) {
	key := turnLockPrefix + chatID
	token := uuid.NewString()
	ok, err := l.store.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	return func() {
		// release even when the turn's context is gone
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = unlockScript.Run(uctx, l.store.rdb, []string{key}, token).Err()
	}, true, nil
}

package locker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ShiftKey names the lock serializing every proposal or reassignment that
// touches one shift. RequestKey serializes decisions on one request.
func ShiftKey(shiftID int64) string {
	return fmt.Sprintf("swaplock:shift:%d", shiftID)
}

func RequestKey(requestID int64) string {
	return fmt.Sprintf("swaplock:request:%d", requestID)
}

// only delete the key when it still holds our token, so a lock that expired
// and was re-acquired by someone else is never released from here
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker provides per-key mutual exclusion across all API instances
// via SET NX with a TTL, so a crashed holder cannot leave a key locked
// forever.
type RedisLocker struct {
	client         *redis.Client
	ttl            time.Duration
	acquireTimeout time.Duration
	retryInterval  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, acquireTimeout, retryInterval time.Duration) *RedisLocker {
	return &RedisLocker{
		client:         client,
		ttl:            ttl,
		acquireTimeout: acquireTimeout,
		retryInterval:  retryInterval,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	tokenBytes := make([]byte, 16)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(tokenBytes)

	ctx, cancel := context.WithTimeout(ctx, l.acquireTimeout)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("could not acquire lock %s: %w", key, ctx.Err())
		case <-time.After(l.retryInterval):
		}
	}

	release := func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), l.acquireTimeout)
		defer releaseCancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}

	return release, nil
}

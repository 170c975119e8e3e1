package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only if it still holds our token, so a holder whose TTL
// expired cannot release someone else's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker is a Locker shared by every replica talking to the same Redis.
type RedisLocker struct {
	client  redis.UniversalClient
	ttl     time.Duration
	prefix  string
	poll    time.Duration
	release *redis.Script
	log     zerolog.Logger
}

// NewRedisLocker builds a RedisLocker. ttl bounds how long a crashed holder can block
// others.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		prefix:  "eventhub:lock:event:",
		poll:    25 * time.Millisecond,
		release: redis.NewScript(releaseScript),
		log:     log,
	}
}

var _ Locker = (*RedisLocker)(nil)

// Lock polls SET NX PX until it wins or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire redis lock: %w", err)
		}
		if ok {
			return func() {
				// Release on a fresh context: the caller's may already be done.
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := l.release.Run(rctx, l.client, []string{redisKey}, token).Err(); err != nil {
					l.log.Warn().Err(err).Str("key", redisKey).Msg("failed to release event lock, it will expire after its ttl")
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

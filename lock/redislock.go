package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redisKeyPrefix       = "stocklock:"
	defaultLockTTL       = 10 * time.Second
	defaultRetryInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only if this holder's token still owns it,
// so a lock that expired and was re-acquired elsewhere is never released by
// the stale holder.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end`

type redisLockerConfig struct {
	timeout time.Duration
	ttl     time.Duration
	retry   time.Duration
}

type RedisLockerOption func(c *redisLockerConfig)

func RedisAcquireTimeout(d time.Duration) RedisLockerOption {
	return func(c *redisLockerConfig) {
		c.timeout = d
	}
}

// LockTTL bounds how long a crashed holder can starve a key.
func LockTTL(d time.Duration) RedisLockerOption {
	return func(c *redisLockerConfig) {
		c.ttl = d
	}
}

func RetryInterval(d time.Duration) RedisLockerOption {
	return func(c *redisLockerConfig) {
		c.retry = d
	}
}

// RedisLocker is the cross-process Locker for multi-node deployments: SET NX
// with a TTL, polled until the bounded wait elapses. Release is best effort;
// a failed release only means waiting out the TTL.
type RedisLocker struct {
	client  *redis.Client
	script  *redis.Script
	timeout time.Duration
	ttl     time.Duration
	retry   time.Duration
}

func NewRedisLocker(client *redis.Client, options ...RedisLockerOption) *RedisLocker {
	cfg := redisLockerConfig{
		timeout: DefaultAcquireTimeout,
		ttl:     defaultLockTTL,
		retry:   defaultRetryInterval,
	}
	for _, option := range options {
		option(&cfg)
	}

	return &RedisLocker{
		client:  client,
		script:  redis.NewScript(releaseScript),
		timeout: cfg.timeout,
		ttl:     cfg.ttl,
		retry:   cfg.retry,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Handle, error) {
	token := uuid.NewString()
	redisKey := redisKeyPrefix + key

	start := time.Now()
	deadline := start.Add(l.timeout)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, errors.WithMessage(err, "failed to contact lock store")
		}
		if ok {
			observeWait("redis", start)
			return &handle{release: func() { l.release(redisKey, token) }}, nil
		}

		if time.Now().Add(l.retry).After(deadline) {
			lockTimeouts.WithLabelValues("redis").Inc()
			return nil, ErrTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.script.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
		log.Warn().Err(err).Str("key", redisKey).Msg("failed to release product lock")
	}
}

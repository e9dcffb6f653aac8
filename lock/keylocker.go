package lock

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

const defaultKeySpace = 4096

type keyLockerConfig struct {
	timeout  time.Duration
	keySpace int
}

type KeyLockerOption func(c *keyLockerConfig)

func AcquireTimeout(d time.Duration) KeyLockerOption {
	return func(c *keyLockerConfig) {
		c.timeout = d
	}
}

func KeySpace(n int) KeyLockerOption {
	return func(c *keyLockerConfig) {
		c.keySpace = n
	}
}

// KeyLocker is the in-process Locker: one single-slot semaphore per key,
// kept in an lru-bounded map. Evicting a held key would let a second holder
// in, so the bound must exceed the number of simultaneously hot products;
// the row lock remains the safety net either way.
type KeyLocker struct {
	mu      sync.Mutex
	sems    *lru.Cache
	timeout time.Duration
}

func NewKeyLocker(options ...KeyLockerOption) *KeyLocker {
	cfg := keyLockerConfig{timeout: DefaultAcquireTimeout, keySpace: defaultKeySpace}
	for _, option := range options {
		option(&cfg)
	}

	c, err := lru.New(cfg.keySpace)
	if err != nil {
		log.Warn().Err(err).Msg("unable to configure lock key space")
	}

	return &KeyLocker{sems: c, timeout: cfg.timeout}
}

func (l *KeyLocker) Acquire(ctx context.Context, key string) (Handle, error) {
	sem := l.sem(key)

	start := time.Now()
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		observeWait("key", start)
		return &handle{release: func() { <-sem }}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		lockTimeouts.WithLabelValues("key").Inc()
		return nil, ErrTimeout
	}
}

func (l *KeyLocker) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.sems.Get(key); ok {
		return v.(chan struct{})
	}
	sem := make(chan struct{}, 1)
	l.sems.Add(key, sem)
	return sem
}

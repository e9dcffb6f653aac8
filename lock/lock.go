// Package lock provides the advisory per-product lock used to serialize
// reservation lifecycle operations across concurrent callers. The lock
// reduces wasted transaction retries on a hot product; it is not the
// correctness boundary. The row lock inside the data store is.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrTimeout is returned when the named lock could not be acquired within
// the locker's bounded wait.
var ErrTimeout = errors.New("lock: acquire timed out")

const DefaultAcquireTimeout = 3 * time.Second

// Handle is a held lock. Release is idempotent and must be called exactly
// once per successful Acquire; extra calls are no-ops.
type Handle interface {
	Release()
}

// Locker hands out named, mutually exclusive locks with a bounded wait.
type Locker interface {
	Acquire(ctx context.Context, key string) (Handle, error)
}

type handle struct {
	once    sync.Once
	release func()
}

func (h *handle) Release() {
	h.once.Do(h.release)
}

// NopLocker satisfies Locker without locking anything. Used in single-node
// tests and deployments that trust the row lock alone.
type NopLocker struct{}

func (NopLocker) Acquire(_ context.Context, _ string) (Handle, error) {
	return &handle{release: func() {}}, nil
}

var (
	lockWait = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "stock_lock_wait_ms",
			Help:       "Milliseconds spent waiting to acquire a product lock",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"locker"},
	)

	lockTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_lock_timeouts",
			Help: "Number of lock acquisitions that timed out",
		},
		[]string{"locker"},
	)
)

func observeWait(locker string, start time.Time) {
	lockWait.WithLabelValues(locker).Observe(float64(time.Since(start).Milliseconds()))
}

func init() {
	prometheus.MustRegister(lockWait)
	prometheus.MustRegister(lockTimeouts)
}

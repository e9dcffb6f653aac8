package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/livecart/stock-engine/lock"
	"github.com/livecart/stock-engine/test"
)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	os.Exit(m.Run())
}

func TestKeyLockerMutualExclusion(t *testing.T) {
	locker := lock.NewKeyLocker(lock.AcquireTimeout(50 * time.Millisecond))

	h1, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}

	if _, err = locker.Acquire(context.Background(), "1:2"); err != lock.ErrTimeout {
		t.Errorf("unexpected error got=%v want=%v", err, lock.ErrTimeout)
	}

	h1.Release()

	h2, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("expected lock to be free after release, got=%v", err)
	}
	h2.Release()
}

func TestKeyLockerIndependentKeys(t *testing.T) {
	locker := lock.NewKeyLocker(lock.AcquireTimeout(50 * time.Millisecond))

	h1, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	defer h1.Release()

	h2, err := locker.Acquire(context.Background(), "1:3")
	if err != nil {
		t.Fatalf("locks on different keys must not contend, got=%v", err)
	}
	h2.Release()
}

func TestKeyLockerReleaseIsIdempotent(t *testing.T) {
	locker := lock.NewKeyLocker(lock.AcquireTimeout(50 * time.Millisecond))

	h1, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}

	h1.Release()
	h1.Release()

	// A double release must not free the slot for two holders.
	h2, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	defer h2.Release()

	if _, err = locker.Acquire(context.Background(), "1:2"); err != lock.ErrTimeout {
		t.Errorf("unexpected error got=%v want=%v", err, lock.ErrTimeout)
	}
}

func TestKeyLockerContextCancelled(t *testing.T) {
	locker := lock.NewKeyLocker(lock.AcquireTimeout(time.Second))

	h, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	defer h.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err = locker.Acquire(ctx, "1:2"); err != context.Canceled {
		t.Errorf("unexpected error got=%v want=%v", err, context.Canceled)
	}
}

func TestKeyLockerHandoff(t *testing.T) {
	locker := lock.NewKeyLocker(lock.AcquireTimeout(time.Second))

	h, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}

	done := make(chan struct{})
	go func() {
		h2, err := locker.Acquire(context.Background(), "1:2")
		if err != nil {
			t.Errorf("did not want error, got=%v", err)
			close(done)
			return
		}
		h2.Release()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	h.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock after release")
	}
}

func TestNopLocker(t *testing.T) {
	locker := lock.NopLocker{}

	h1, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}
	h2, err := locker.Acquire(context.Background(), "1:2")
	if err != nil {
		t.Fatalf("did not want error, got=%v", err)
	}

	h1.Release()
	h2.Release()
}

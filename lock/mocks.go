package lock

import "context"

type MockLocker struct {
	AcquireFunc func(ctx context.Context, key string) (Handle, error)
}

func NewMockLocker() *MockLocker {
	return &MockLocker{
		AcquireFunc: func(ctx context.Context, key string) (Handle, error) {
			return &handle{release: func() {}}, nil
		},
	}
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (Handle, error) {
	return m.AcquireFunc(ctx, key)
}

// NewMockHandle returns a Handle whose release invokes fn once.
func NewMockHandle(fn func()) Handle {
	if fn == nil {
		fn = func() {}
	}
	return &handle{release: fn}
}

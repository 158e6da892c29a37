package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockDLQPurger struct {
	calls     atomic.Int32
	purgeFunc func(ctx context.Context, retention time.Duration) (int, error)
}

func (m *mockDLQPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	m.calls.Add(1)
	if m.purgeFunc != nil {
		return m.purgeFunc(ctx, retention)
	}
	return 0, nil
}

func TestGarbageCollectorPurges(t *testing.T) {
	t.Parallel()

	mock := &mockDLQPurger{
		purgeFunc: func(ctx context.Context, retention time.Duration) (int, error) {
			if retention != time.Hour {
				t.Errorf("retention = %v, want %v", retention, time.Hour)
			}
			return 2, nil
		},
	}

	gc := NewGarbageCollector(mock, 10*time.Millisecond, time.Hour, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := gc.Start(ctx); err != context.DeadlineExceeded {
		t.Errorf("Start() error = %v, want context.DeadlineExceeded", err)
	}

	if mock.calls.Load() == 0 {
		t.Error("PurgeOlderThan was not called")
	}
}

func TestGarbageCollectorNilPurger(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(nil, 10*time.Millisecond, time.Hour, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Must not panic with a nil purger.
	_ = gc.Start(ctx)
}

func TestGarbageCollectorStopsOnCancel(t *testing.T) {
	t.Parallel()

	mock := &mockDLQPurger{}
	gc := NewGarbageCollector(mock, time.Hour, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gc.Start(ctx); err != context.Canceled {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}

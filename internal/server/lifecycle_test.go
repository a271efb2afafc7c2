package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockService struct {
	started atomic.Bool
	stopped atomic.Bool
	runFn   func(ctx context.Context) error
}

func (m *mockService) Run(ctx context.Context) error {
	m.started.Store(true)
	defer m.stopped.Store(true)
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

func runAsync(lc *Lifecycle, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
		return nil
	}
}

func TestLifecycleStartsAndStopsServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.IgnoreSignals()

	svc1 := &mockService{}
	svc2 := &mockService{}
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)

	require.Eventually(t, func() bool {
		return svc1.started.Load() && svc2.started.Load()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitDone(t, done))
	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
}

func TestLifecycleCompletionStopsOthers(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.IgnoreSignals()

	watcher := &mockService{}
	sim := &mockService{runFn: func(context.Context) error { return nil }}
	lc.Add("watcher", watcher)
	lc.Add("sim", sim)

	assert.NoError(t, waitDone(t, runAsync(lc, context.Background())))
	assert.True(t, watcher.stopped.Load())
}

func TestLifecycleReturnsServiceError(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.IgnoreSignals()

	boom := errors.New("boom")
	other := &mockService{}
	lc.Add("other", other)
	lc.Add("failing", ServiceFunc(func(context.Context) error { return boom }))

	err := waitDone(t, runAsync(lc, context.Background()))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.True(t, other.stopped.Load())
}

func TestLifecycleStopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.IgnoreSignals()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) Service {
		return ServiceFunc(func(ctx context.Context) error {
			<-ctx.Done()
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}
	lc.Add("first", record("first"))
	lc.Add("second", record("second"))
	lc.Add("third", record("third"))
	lc.Add("finisher", ServiceFunc(func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}))

	assert.NoError(t, waitDone(t, runAsync(lc, context.Background())))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestLifecycleNoServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.IgnoreSignals()
	assert.NoError(t, lc.Run(context.Background()))
}

func TestServiceFunc(t *testing.T) {
	called := false
	svc := ServiceFunc(func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, svc.Run(context.Background()))
	assert.True(t, called)
}

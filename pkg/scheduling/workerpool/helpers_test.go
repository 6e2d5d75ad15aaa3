package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dy604/NettyRPC2.0/internal/testutil"
)

// gate parks tasks until it is opened.
type gate struct {
	ch   chan struct{}
	once sync.Once
}

func newGate() *gate {
	return &gate{ch: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) open() {
	g.once.Do(func() { close(g.ch) })
}

// gatedTask blocks on g and counts its executions.
func gatedTask(g *gate, executed *atomic.Int32) Task {
	return TaskFunc(func(ctx context.Context) error {
		executed.Add(1)
		return g.wait(ctx)
	})
}

// newTestPool builds a pool that is discarded and reaped when the test ends.
// Gates must be opened before that, usually with defer.
func newTestPool(t *testing.T, config Config) Pool {
	t.Helper()
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	pool, err := NewWithConfig(config)
	testutil.AssertNoError(t, err)
	t.Cleanup(func() {
		select {
		case <-pool.Shutdown(DrainDiscard):
		case <-time.After(5 * time.Second):
			t.Error("pool did not shut down")
		}
	})
	return pool
}

// waitActive waits until n workers are busy.
func waitActive(t *testing.T, pool Pool, n int) {
	t.Helper()
	testutil.Eventually(t, func() bool { return pool.ActiveWorkers() == n }, 2*time.Second, time.Millisecond)
}

// waitParked waits until n workers are parked on the queue.
func waitParked(t *testing.T, pool Pool, n int) {
	t.Helper()
	wp := pool.(*workerPool)
	testutil.Eventually(t, func() bool { return wp.queue.Waiting() == n }, 2*time.Second, time.Millisecond)
}

// waitCompleted waits until the pool has finished n tasks.
func waitCompleted(t *testing.T, pool Pool, n int64) {
	t.Helper()
	testutil.Eventually(t, func() bool { return pool.TotalCompleted() == n }, 2*time.Second, time.Millisecond)
}

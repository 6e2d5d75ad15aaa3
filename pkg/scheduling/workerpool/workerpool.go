package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/common/validation"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/queue"
)

// item is a queued task together with its submission context.
type item struct {
	task Task
	ctx  context.Context

	// counted guards the single taskCount increment. The submitter and the
	// worker that dequeues the item race for it, so the count never lags
	// behind a completion.
	counted atomic.Bool
}

// workerPool implements the Pool interface.
type workerPool struct {
	config   Config
	settings settings
	queue    queue.Queue[*item]
	logger   *zap.Logger
	metrics  poolMetrics

	workers  []worker
	workerWg sync.WaitGroup

	closed       atomic.Bool
	shutdownOnce sync.Once
	done         chan struct{}

	poolSize  atomic.Int64
	largest   atomic.Int64
	active    atomic.Int64
	taskCount atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	discarded atomic.Int64
}

// worker represents a single named worker goroutine.
type worker struct {
	id   int
	name string
	pool *workerPool
}

func newWorkerPool(config Config, s settings, q queue.Queue[*item]) *workerPool {
	p := &workerPool{
		config:   config,
		settings: s,
		queue:    q,
		logger:   s.logger.With(zap.String("pool", s.name)),
		metrics:  newPoolMetrics(config.Metrics, s.name),
		done:     make(chan struct{}),
	}

	p.workers = make([]worker, s.workers)
	for i := range p.workers {
		p.workers[i] = worker{
			id:   i + 1,
			name: s.name + "-" + strconv.Itoa(i+1),
			pool: p,
		}
	}
	return p
}

// start launches every worker. Pool size is published before the goroutines
// run so a snapshot taken right after construction already sees them.
func (p *workerPool) start() {
	for i := range p.workers {
		p.workerWg.Add(1)
		p.poolSize.Add(1)
		p.observeLargest()
		go p.workers[i].run()
	}

	p.logger.Info("worker pool started",
		zap.Int("workers", p.settings.workers),
		zap.Stringer("queue", p.settings.discipline),
		zap.Int("queue_capacity", p.queue.Cap()),
		zap.String("policy", string(p.settings.policy.name())),
		zap.Bool("daemon", p.config.Daemon),
	)
}

func (p *workerPool) observeLargest() {
	size := p.poolSize.Load()
	for {
		largest := p.largest.Load()
		if size <= largest || p.largest.CompareAndSwap(largest, size) {
			return
		}
	}
}

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext offers the task to the queue and hands it to the admission
// policy when the queue refuses it.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if err := validation.ValidateNotNil("workerpool", "task", task); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if p.closed.Load() {
		return p.closedError("submit")
	}

	// Check if context is already canceled before attempting to queue
	// This ensures deterministic behavior for pre-canceled contexts
	if err := ctx.Err(); err != nil {
		return perrors.NewOperationError("workerpool", "submit", err).WithContext("context done before admission")
	}

	it := &item{task: task, ctx: ctx}
	if p.queue.Offer(it) {
		p.accept(it)
		return nil
	}
	if p.closed.Load() {
		return p.closedError("submit")
	}

	p.rejected.Add(1)
	p.metrics.rejected(p.settings.policy.name())
	return p.settings.policy.reject(p, it)
}

// accept records an admitted item exactly once.
func (p *workerPool) accept(it *item) {
	if it.counted.CompareAndSwap(false, true) {
		p.taskCount.Add(1)
		p.metrics.submitted()
	}
}

// discard drops items that were admitted but will never run.
func (p *workerPool) discard(items []*item, reason string) {
	if len(items) == 0 {
		return
	}
	for _, it := range items {
		p.accept(it)
	}
	p.discarded.Add(int64(len(items)))
	p.metrics.discarded(reason, len(items))
}

func (p *workerPool) closedError(op string) error {
	return perrors.NewOperationError("workerpool", op, perrors.ErrClosed).WithContext("pool " + p.settings.name + " is shut down")
}

func (p *workerPool) saturated(waited time.Duration) error {
	return &perrors.SaturationError{
		Pool:     p.settings.name,
		Policy:   string(p.settings.policy.name()),
		QueueLen: p.queue.Len(),
		Waited:   waited,
	}
}

// Shutdown stops admission and lets the workers exit once the queue is
// drained or discarded.
func (p *workerPool) Shutdown(mode DrainMode) <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.closed.Store(true)
		p.queue.Close()

		var dropped int
		if mode == DrainDiscard {
			items := p.queue.Drain()
			dropped = len(items)
			p.discard(items, "shutdown")
		}

		p.logger.Info("worker pool shutting down",
			zap.Stringer("mode", mode),
			zap.Int("discarded", dropped),
		)

		go func() {
			p.workerWg.Wait()
			p.logger.Info("worker pool stopped",
				zap.Int64("completed", p.completed.Load()),
				zap.Int64("discarded", p.discarded.Load()),
			)
			close(p.done)
		}()
	})

	return p.done
}

// ShutdownContext shuts the pool down and waits for the workers or ctx.
func (p *workerPool) ShutdownContext(ctx context.Context, mode DrainMode) error {
	select {
	case <-p.Shutdown(mode):
		return nil
	case <-ctx.Done():
		return perrors.NewOperationError("workerpool", "shutdown", ctx.Err()).
			WithContext(fmt.Sprintf("%d workers still running", p.poolSize.Load()))
	}
}

func (p *workerPool) Name() string {
	return p.settings.name
}

func (p *workerPool) Size() int {
	return int(p.poolSize.Load())
}

func (p *workerPool) QueueSize() int {
	return p.queue.Len()
}

func (p *workerPool) ActiveWorkers() int {
	return int(p.active.Load())
}

func (p *workerPool) TotalSubmitted() int64 {
	return p.taskCount.Load()
}

func (p *workerPool) TotalCompleted() int64 {
	return p.completed.Load()
}

func (p *workerPool) Discarded() int64 {
	return p.discarded.Load()
}

func (p *workerPool) Policy() PolicyName {
	return p.settings.policy.name()
}

func (p *workerPool) Discipline() queue.Discipline {
	return p.settings.discipline
}

// Snapshot reads the counters one by one. Completed is read before the task
// count so that completed never exceeds it within a snapshot.
func (p *workerPool) Snapshot() monitor.Snapshot {
	completed := p.completed.Load()
	tasks := p.taskCount.Load()
	size := int(p.poolSize.Load())
	active := int(p.active.Load())
	if active > size {
		active = size
	}

	return monitor.Snapshot{
		Pool:               p.settings.name,
		Time:               time.Now(),
		PoolSize:           size,
		ActiveCount:        active,
		CorePoolSize:       p.settings.workers,
		MaximumPoolSize:    p.settings.workers,
		LargestPoolSize:    int(p.largest.Load()),
		TaskCount:          tasks,
		CompletedTaskCount: completed,
		QueueLength:        p.queue.Len(),
		Rejected:           p.rejected.Load(),
	}
}

// run is the main loop for a worker. It exits once the queue is closed and
// empty.
func (w *worker) run() {
	p := w.pool
	defer p.workerWg.Done()
	defer p.poolSize.Add(-1)

	for {
		it, err := p.queue.Take(context.Background())
		if err != nil {
			return
		}
		p.accept(it)

		p.active.Add(1)
		p.execute(w.name, w.id, it)
		p.active.Add(-1)
		p.completed.Add(1)
	}
}

// execute runs a task with the pool's timeout, hooks and panic recovery.
func (p *workerPool) execute(name string, id int, it *item) {
	ctx := it.ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(name, it.task)
	}

	start := time.Now()
	err := p.safeExecute(ctx, name, it.task)
	result := Result{
		Task:     it.task,
		Error:    err,
		Duration: time.Since(start),
		Worker:   name,
		WorkerID: id,
	}
	p.metrics.finished(result)

	if p.config.OnTaskComplete != nil {
		p.config.OnTaskComplete(result)
	}
}

func (p *workerPool) safeExecute(ctx context.Context, name string, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			p.logger.Error("task panicked",
				zap.String("worker", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(task, r)
			}
		}
	}()
	return task.Execute(ctx)
}

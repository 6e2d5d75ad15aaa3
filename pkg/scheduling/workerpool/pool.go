package workerpool

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dy604/NettyRPC2.0/pkg/metrics"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/queue"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Func adapts a plain zero-argument action to the Task interface.
type Func func()

// Execute runs f and always succeeds.
func (f Func) Execute(context.Context) error {
	f()
	return nil
}

// Rejectable is implemented by tasks that want to know when the RejectNotify
// policy drops them.
type Rejectable interface {
	Task
	OnRejected()
}

// Result describes one finished task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error returned by the task, or the recovered panic
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// Worker is the name of the goroutine that ran the task, or "caller"
	// when the CallerRuns policy ran it on the submitter.
	Worker string

	// WorkerID is the 1-based worker index, or 0 for caller-run tasks.
	WorkerID int
}

// RejectEvent is passed to Config.OnReject by the RejectNotify policy.
type RejectEvent struct {
	Pool        string
	Policy      PolicyName
	Task        Task
	QueueLength int
	Time        time.Time
}

// DrainMode selects what Shutdown does with queued work.
type DrainMode int

const (
	// DrainGraceful runs every queued task before the workers exit.
	DrainGraceful DrainMode = iota

	// DrainDiscard drops queued tasks; tasks already running still finish.
	DrainDiscard
)

func (m DrainMode) String() string {
	switch m {
	case DrainGraceful:
		return "graceful"
	case DrainDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// Pool is a fixed-size worker pool with an admission policy.
type Pool interface {
	// Submit adds a task to the pool for execution with context.Background().
	Submit(task Task) error

	// SubmitWithContext adds a task to the pool. The context is passed to the
	// task's Execute method and bounds any wait imposed by the Blocking policy.
	// A non-nil error is returned when the pool is shut down, ctx is done, or
	// the admission policy rejects the task with a *errors.SaturationError.
	SubmitWithContext(ctx context.Context, task Task) error

	// Shutdown stops accepting tasks and drains the queue according to mode.
	// It returns a channel that closes once every worker has exited. Repeated
	// calls return the same channel; only the first mode is honoured.
	Shutdown(mode DrainMode) <-chan struct{}

	// ShutdownContext calls Shutdown and waits for it or for ctx.
	ShutdownContext(ctx context.Context, mode DrainMode) error

	// Name returns the pool name used for workers, logs and snapshots.
	Name() string

	// Size returns the number of live workers.
	Size() int

	// QueueSize returns the number of tasks waiting for a worker.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the number of tasks accepted into the queue.
	TotalSubmitted() int64

	// TotalCompleted returns the number of tasks finished by workers.
	TotalCompleted() int64

	// Discarded returns the number of accepted tasks that were dropped before
	// running, by the Discard policy or by a DrainDiscard shutdown.
	Discarded() int64

	// Policy returns the resolved admission policy.
	Policy() PolicyName

	// Discipline returns the queue discipline.
	Discipline() queue.Discipline

	// Snapshot reads the pool counters. It implements monitor.StatsProvider.
	Snapshot() monitor.Snapshot
}

// QueueConfig selects the queue discipline backing a pool.
type QueueConfig struct {
	// Discipline names the queue: Unbounded (default), Bounded or Rendezvous.
	Discipline string

	// CapacityFactor scales Parallelism into the Bounded capacity.
	// Zero selects 1.
	CapacityFactor int

	// Parallelism is the base of the Bounded capacity. Zero selects
	// max(2, runtime.NumCPU()).
	Parallelism int
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// Queue selects the task queue.
	Queue QueueConfig

	// Policy names the admission policy: Abort (default), CallerRuns,
	// Blocking, Discard or RejectNotify.
	Policy string

	// NamePrefix names the pool and its workers ("<prefix>-<n>").
	// Defaults to "rpc-pool".
	NamePrefix string

	// Daemon is recorded for reporting. Goroutines never keep a Go process
	// alive, so it has no scheduling effect.
	Daemon bool

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// BlockingTimeout bounds how long the Blocking policy waits for space.
	// Zero selects one second.
	BlockingTimeout time.Duration

	// OnReject is called by the RejectNotify policy before a task is dropped.
	OnReject func(event RejectEvent)

	// PanicHandler is called when a task panics. The panic is always
	// recovered and reported as the task's error.
	PanicHandler func(task Task, recovered interface{})

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(worker string, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(result Result)

	// Logger receives pool events. Nil selects zap.L().
	Logger *zap.Logger

	// Metrics, when set, records submissions, rejections and task durations.
	Metrics *metrics.Registry
}

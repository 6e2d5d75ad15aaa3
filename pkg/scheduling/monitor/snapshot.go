package monitor

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Snapshot is one best-effort observation of pool health. Fields are read
// individually from live counters, so under concurrent submission they may be
// momentarily inconsistent with each other.
type Snapshot struct {
	// Pool identifies the observed pool.
	Pool string

	// Time is when the counters were read.
	Time time.Time

	// PoolSize is the number of live workers.
	PoolSize int

	// ActiveCount is the number of workers currently executing a task.
	ActiveCount int

	// CorePoolSize and MaximumPoolSize are both the configured worker count.
	CorePoolSize    int
	MaximumPoolSize int

	// LargestPoolSize is the highest PoolSize ever reached.
	LargestPoolSize int

	// TaskCount is the number of tasks ever accepted by the pool.
	TaskCount int64

	// CompletedTaskCount is the number of tasks finished by workers.
	CompletedTaskCount int64

	// QueueLength is the number of tasks waiting in the queue.
	QueueLength int

	// Rejected is the number of submissions routed to the admission policy.
	Rejected int64
}

// Check reports the first violated structural invariant, or nil.
func (s Snapshot) Check() error {
	switch {
	case s.ActiveCount < 0:
		return fmt.Errorf("active count %d is negative", s.ActiveCount)
	case s.ActiveCount > s.PoolSize:
		return fmt.Errorf("active count %d exceeds pool size %d", s.ActiveCount, s.PoolSize)
	case s.PoolSize > s.MaximumPoolSize:
		return fmt.Errorf("pool size %d exceeds maximum %d", s.PoolSize, s.MaximumPoolSize)
	case s.LargestPoolSize < s.PoolSize:
		return fmt.Errorf("largest pool size %d below pool size %d", s.LargestPoolSize, s.PoolSize)
	case s.CompletedTaskCount > s.TaskCount:
		return fmt.Errorf("completed %d exceeds task count %d", s.CompletedTaskCount, s.TaskCount)
	}
	return nil
}

// Fields renders the snapshot as structured log fields.
func (s Snapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.String("pool", s.Pool),
		zap.Int("pool_size", s.PoolSize),
		zap.Int("active_count", s.ActiveCount),
		zap.Int("core_pool_size", s.CorePoolSize),
		zap.Int("maximum_pool_size", s.MaximumPoolSize),
		zap.Int("largest_pool_size", s.LargestPoolSize),
		zap.Int64("task_count", s.TaskCount),
		zap.Int64("completed_task_count", s.CompletedTaskCount),
		zap.Int("queue_length", s.QueueLength),
		zap.Int64("rejected", s.Rejected),
	}
}

// StatsProvider exposes live pool counters to a Sampler. Implementations must
// be safe to call concurrently with pool activity and must not block on it.
type StatsProvider interface {
	Snapshot() Snapshot
}

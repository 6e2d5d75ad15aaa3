package workerpool

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/dy604/NettyRPC2.0/pkg/common/validation"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/queue"
)

const (
	// DefaultNamePrefix names pools built without a NamePrefix.
	DefaultNamePrefix = "rpc-pool"

	// DefaultBlockingTimeout is the Blocking policy's wait budget.
	DefaultBlockingTimeout = time.Second

	// DefaultCapacityFactor scales Parallelism into the Bounded capacity.
	DefaultCapacityFactor = 1
)

// DefaultParallelism returns max(2, runtime.NumCPU()).
func DefaultParallelism() int {
	return max(2, runtime.NumCPU())
}

// New creates a pool with workerCount workers, an unbounded queue and the
// Abort policy.
func New(workerCount int) (Pool, error) {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig validates config, resolves the queue discipline and admission
// policy, and starts every worker before returning. On error no worker is
// started and no pool is returned.
func NewWithConfig(config Config) (Pool, error) {
	resolved, err := resolve(config)
	if err != nil {
		return nil, err
	}

	q, err := queue.New[*item](resolved.discipline, resolved.capacity)
	if err != nil {
		return nil, err
	}

	p := newWorkerPool(config, resolved, q)
	p.start()
	return p, nil
}

// NewMonitored builds a pool and a running Sampler that publishes its
// snapshots to exporter, first after delay and then every period. Zero delay
// or period select the monitor defaults. The sampler is independent of the
// pool: stopping it leaves the pool running, and shutting the pool down leaves
// the sampler reporting the drained state until Stop is called.
func NewMonitored(config Config, exporter monitor.Exporter, delay, period time.Duration) (Pool, *monitor.Sampler, error) {
	if err := validation.ValidateNotNil("workerpool", "exporter", exporter); err != nil {
		return nil, nil, err
	}

	opts := monitor.Options{Delay: delay, Period: period}
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	pool, err := NewWithConfig(config)
	if err != nil {
		return nil, nil, err
	}

	wp := pool.(*workerPool)
	opts.Name = pool.Name()
	opts.Logger = wp.logger
	opts.OnError = func(error) {
		wp.metrics.samplerFailure()
	}
	sampler, err := monitor.NewSampler(pool, exporter, opts)
	if err != nil {
		<-pool.Shutdown(DrainDiscard)
		return nil, nil, err
	}

	sampler.Start(context.Background())
	return pool, sampler, nil
}

// settings is a validated Config with defaults applied.
type settings struct {
	name            string
	workers         int
	discipline      queue.Discipline
	capacity        int
	policy          policy
	blockingTimeout time.Duration
	logger          *zap.Logger
}

func resolve(config Config) (settings, error) {
	var s settings

	if err := validation.ValidatePositive("workerpool", "WorkerCount", config.WorkerCount); err != nil {
		return s, err
	}
	if err := validation.ValidateNonNegative("workerpool", "Queue.CapacityFactor", config.Queue.CapacityFactor); err != nil {
		return s, err
	}
	if err := validation.ValidateNonNegative("workerpool", "Queue.Parallelism", config.Queue.Parallelism); err != nil {
		return s, err
	}
	if err := validation.ValidateNonNegativeDuration("workerpool", "TaskTimeout", config.TaskTimeout); err != nil {
		return s, err
	}
	if err := validation.ValidateNonNegativeDuration("workerpool", "BlockingTimeout", config.BlockingTimeout); err != nil {
		return s, err
	}

	discipline, err := queue.ParseDiscipline(config.Queue.Discipline)
	if err != nil {
		return s, err
	}
	policyName, err := ParsePolicy(config.Policy)
	if err != nil {
		return s, err
	}

	factor := config.Queue.CapacityFactor
	if factor == 0 {
		factor = DefaultCapacityFactor
	}
	parallelism := config.Queue.Parallelism
	if parallelism == 0 {
		parallelism = DefaultParallelism()
	}

	s = settings{
		name:            config.NamePrefix,
		workers:         config.WorkerCount,
		discipline:      discipline,
		capacity:        parallelism * factor,
		policy:          policies[policyName],
		blockingTimeout: config.BlockingTimeout,
		logger:          config.Logger,
	}
	if s.name == "" {
		s.name = DefaultNamePrefix
	}
	if s.blockingTimeout == 0 {
		s.blockingTimeout = DefaultBlockingTimeout
	}
	if s.logger == nil {
		s.logger = zap.L()
	}
	return s, nil
}

package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector used by worker pools and samplers.
// A nil *Registry is valid and records nothing.
type Registry struct {
	// Admission and execution counters, updated inline by the pool.
	TasksSubmitted  *prometheus.CounterVec
	TasksRejected   *prometheus.CounterVec
	TasksDiscarded  *prometheus.CounterVec
	TasksCompleted  *prometheus.CounterVec
	TasksFailed     *prometheus.CounterVec
	TaskDuration    *prometheus.HistogramVec
	SamplerFailures *prometheus.CounterVec

	// Status gauges, set from health snapshots by Exporter.
	PoolSize           *prometheus.GaugeVec
	ActiveWorkers      *prometheus.GaugeVec
	CorePoolSize       *prometheus.GaugeVec
	MaximumPoolSize    *prometheus.GaugeVec
	LargestPoolSize    *prometheus.GaugeVec
	TaskCount          *prometheus.GaugeVec
	CompletedTaskCount *prometheus.GaugeVec
	QueueLength        *prometheus.GaugeVec
	RejectedCount      *prometheus.GaugeVec
}

// NewRegistry creates a registry with the default namespace on reg.
func NewRegistry(reg prometheus.Registerer) (*Registry, error) {
	cfg := DefaultConfig()
	cfg.Registry = reg
	return New(cfg)
}

// New creates and registers every collector. Collectors already registered
// on the same registerer are reused, so several pools can share one.
func New(cfg Config) (*Registry, error) {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "pool",
			Name:      name,
			Help:      help,
		}, labels)
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "pool",
			Name:      name,
			Help:      help,
		}, []string{"pool"})
	}

	r := &Registry{
		TasksSubmitted:  counter("tasks_submitted_total", "Total number of tasks admitted into the queue", "pool"),
		TasksRejected:   counter("tasks_rejected_total", "Total number of submissions routed to the admission policy", "pool", "policy"),
		TasksDiscarded:  counter("tasks_discarded_total", "Total number of admitted tasks dropped before running", "pool", "reason"),
		TasksCompleted:  counter("tasks_completed_total", "Total number of tasks completed successfully", "pool"),
		TasksFailed:     counter("tasks_failed_total", "Total number of tasks that returned an error or panicked", "pool"),
		SamplerFailures: counter("sampler_publish_failures_total", "Total number of failed health snapshot publishes", "pool"),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "Time spent executing tasks",
			Buckets:   buckets,
		}, []string{"pool"}),

		PoolSize:           gauge("size", "Current number of live workers"),
		ActiveWorkers:      gauge("active_workers", "Number of workers executing a task"),
		CorePoolSize:       gauge("core_size", "Configured core pool size"),
		MaximumPoolSize:    gauge("maximum_size", "Configured maximum pool size"),
		LargestPoolSize:    gauge("largest_size", "Largest pool size reached"),
		TaskCount:          gauge("task_count", "Tasks ever accepted, as of the last snapshot"),
		CompletedTaskCount: gauge("completed_task_count", "Tasks completed, as of the last snapshot"),
		QueueLength:        gauge("queued_tasks", "Number of queued tasks"),
		RejectedCount:      gauge("rejected_count", "Submissions routed to the admission policy, as of the last snapshot"),
	}

	var err error
	if r.TasksSubmitted, err = registerCollector(cfg.Registry, r.TasksSubmitted); err != nil {
		return nil, err
	}
	if r.TasksRejected, err = registerCollector(cfg.Registry, r.TasksRejected); err != nil {
		return nil, err
	}
	if r.TasksDiscarded, err = registerCollector(cfg.Registry, r.TasksDiscarded); err != nil {
		return nil, err
	}
	if r.TasksCompleted, err = registerCollector(cfg.Registry, r.TasksCompleted); err != nil {
		return nil, err
	}
	if r.TasksFailed, err = registerCollector(cfg.Registry, r.TasksFailed); err != nil {
		return nil, err
	}
	if r.SamplerFailures, err = registerCollector(cfg.Registry, r.SamplerFailures); err != nil {
		return nil, err
	}
	if r.TaskDuration, err = registerCollector(cfg.Registry, r.TaskDuration); err != nil {
		return nil, err
	}
	for _, g := range []**prometheus.GaugeVec{
		&r.PoolSize, &r.ActiveWorkers, &r.CorePoolSize, &r.MaximumPoolSize, &r.LargestPoolSize,
		&r.TaskCount, &r.CompletedTaskCount, &r.QueueLength, &r.RejectedCount,
	} {
		if *g, err = registerCollector(cfg.Registry, *g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordSubmitted counts an admitted task.
func (r *Registry) RecordSubmitted(pool string) {
	if r == nil {
		return
	}
	r.TasksSubmitted.WithLabelValues(pool).Inc()
}

// RecordRejected counts a submission handed to the admission policy.
func (r *Registry) RecordRejected(pool, policy string) {
	if r == nil {
		return
	}
	r.TasksRejected.WithLabelValues(pool, policy).Inc()
}

// RecordDiscarded counts n admitted tasks dropped for reason.
func (r *Registry) RecordDiscarded(pool, reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.TasksDiscarded.WithLabelValues(pool, reason).Add(float64(n))
}

// RecordTask records one finished execution.
func (r *Registry) RecordTask(pool string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.TaskDuration.WithLabelValues(pool).Observe(duration.Seconds())
	if err != nil {
		r.TasksFailed.WithLabelValues(pool).Inc()
		return
	}
	r.TasksCompleted.WithLabelValues(pool).Inc()
}

// RecordSamplerFailure counts a failed snapshot publish.
func (r *Registry) RecordSamplerFailure(pool string) {
	if r == nil {
		return
	}
	r.SamplerFailures.WithLabelValues(pool).Inc()
}

func registerCollector[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("metrics: collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}

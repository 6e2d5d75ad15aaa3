package metrics

import (
	"context"

	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
)

// Exporter publishes health snapshots as Prometheus gauges labelled by pool.
type Exporter struct {
	registry *Registry
}

var _ monitor.Exporter = (*Exporter)(nil)

// NewExporter creates an Exporter writing into registry.
func NewExporter(registry *Registry) *Exporter {
	return &Exporter{registry: registry}
}

// Publish sets every status gauge from s. It never fails.
func (e *Exporter) Publish(_ context.Context, s monitor.Snapshot) error {
	r := e.registry
	if r == nil {
		return nil
	}
	pool := s.Pool
	if pool == "" {
		pool = "unknown"
	}

	r.PoolSize.WithLabelValues(pool).Set(float64(s.PoolSize))
	r.ActiveWorkers.WithLabelValues(pool).Set(float64(s.ActiveCount))
	r.CorePoolSize.WithLabelValues(pool).Set(float64(s.CorePoolSize))
	r.MaximumPoolSize.WithLabelValues(pool).Set(float64(s.MaximumPoolSize))
	r.LargestPoolSize.WithLabelValues(pool).Set(float64(s.LargestPoolSize))
	r.TaskCount.WithLabelValues(pool).Set(float64(s.TaskCount))
	r.CompletedTaskCount.WithLabelValues(pool).Set(float64(s.CompletedTaskCount))
	r.QueueLength.WithLabelValues(pool).Set(float64(s.QueueLength))
	r.RejectedCount.WithLabelValues(pool).Set(float64(s.Rejected))
	return nil
}

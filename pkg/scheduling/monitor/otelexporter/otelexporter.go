// Package otelexporter exposes pool health snapshots as OpenTelemetry
// observable gauges.
//
// Publish only stores the snapshot; the meter's reader pulls the latest
// value per pool through a registered callback. Every gauge carries a "pool"
// attribute.
package otelexporter

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
)

// ScopeName is the instrumentation scope of the meter.
const ScopeName = "github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor/otelexporter"

// Exporter implements monitor.Exporter on top of an OpenTelemetry meter.
type Exporter struct {
	mu     sync.RWMutex
	latest map[string]monitor.Snapshot

	gauges       gauges
	registration metric.Registration
}

var _ monitor.Exporter = (*Exporter)(nil)

type gauges struct {
	poolSize, active, core, maximum, largest metric.Int64ObservableGauge
	tasks, completed, queued, rejected       metric.Int64ObservableGauge
}

// New registers the gauges on a meter from provider. A nil provider selects
// otel.GetMeterProvider().
func New(provider metric.MeterProvider) (*Exporter, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(ScopeName)

	e := &Exporter{latest: make(map[string]monitor.Snapshot)}

	var err error
	gauge := func(name, desc, unit string) metric.Int64ObservableGauge {
		if err != nil {
			return nil
		}
		var g metric.Int64ObservableGauge
		g, err = meter.Int64ObservableGauge(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return g
	}

	e.gauges = gauges{
		poolSize:  gauge("rpcpool.pool.size", "live workers", "{worker}"),
		active:    gauge("rpcpool.pool.active", "workers executing a task", "{worker}"),
		core:      gauge("rpcpool.pool.core_size", "configured core pool size", "{worker}"),
		maximum:   gauge("rpcpool.pool.maximum_size", "configured maximum pool size", "{worker}"),
		largest:   gauge("rpcpool.pool.largest_size", "largest pool size reached", "{worker}"),
		tasks:     gauge("rpcpool.pool.tasks", "tasks ever accepted", "{task}"),
		completed: gauge("rpcpool.pool.completed_tasks", "tasks completed", "{task}"),
		queued:    gauge("rpcpool.pool.queued_tasks", "tasks waiting in the queue", "{task}"),
		rejected:  gauge("rpcpool.pool.rejected", "submissions routed to the admission policy", "{task}"),
	}
	if err != nil {
		return nil, perrors.NewOperationError("otelexporter", "new", err)
	}

	g := e.gauges
	e.registration, err = meter.RegisterCallback(e.observe,
		g.poolSize, g.active, g.core, g.maximum, g.largest,
		g.tasks, g.completed, g.queued, g.rejected,
	)
	if err != nil {
		return nil, perrors.NewOperationError("otelexporter", "register", err)
	}
	return e, nil
}

// Publish records s as the latest observation for its pool.
func (e *Exporter) Publish(_ context.Context, s monitor.Snapshot) error {
	e.mu.Lock()
	e.latest[s.Pool] = s
	e.mu.Unlock()
	return nil
}

// Close unregisters the callback. Gauges stop reporting afterwards.
func (e *Exporter) Close() error {
	return e.registration.Unregister()
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g := e.gauges
	for pool, s := range e.latest {
		attrs := metric.WithAttributes(attribute.String("pool", pool))
		o.ObserveInt64(g.poolSize, int64(s.PoolSize), attrs)
		o.ObserveInt64(g.active, int64(s.ActiveCount), attrs)
		o.ObserveInt64(g.core, int64(s.CorePoolSize), attrs)
		o.ObserveInt64(g.maximum, int64(s.MaximumPoolSize), attrs)
		o.ObserveInt64(g.largest, int64(s.LargestPoolSize), attrs)
		o.ObserveInt64(g.tasks, s.TaskCount, attrs)
		o.ObserveInt64(g.completed, s.CompletedTaskCount, attrs)
		o.ObserveInt64(g.queued, int64(s.QueueLength), attrs)
		o.ObserveInt64(g.rejected, s.Rejected, attrs)
	}
	return nil
}

package workerpool

import (
	"github.com/dy604/NettyRPC2.0/pkg/metrics"
)

// poolMetrics binds a metrics registry to one pool name. The zero value and
// a nil registry record nothing.
type poolMetrics struct {
	registry *metrics.Registry
	pool     string
}

func newPoolMetrics(registry *metrics.Registry, pool string) poolMetrics {
	return poolMetrics{registry: registry, pool: pool}
}

func (m poolMetrics) submitted() {
	m.registry.RecordSubmitted(m.pool)
}

func (m poolMetrics) rejected(policy PolicyName) {
	m.registry.RecordRejected(m.pool, string(policy))
}

func (m poolMetrics) discarded(reason string, n int) {
	m.registry.RecordDiscarded(m.pool, reason, n)
}

func (m poolMetrics) finished(result Result) {
	m.registry.RecordTask(m.pool, result.Duration, result.Error)
}

func (m poolMetrics) samplerFailure() {
	m.registry.RecordSamplerFailure(m.pool)
}

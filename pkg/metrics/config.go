package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "rpcpool"

// Config holds configuration for metrics collection.
type Config struct {
	// Registry is the Prometheus registerer to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace overrides the default "rpcpool" namespace for metrics.
	Namespace string

	// DurationBuckets overrides prometheus.DefBuckets for the task duration histogram.
	DurationBuckets []float64
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

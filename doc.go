/*
Package nettyrpc provides the handler pool of an RPC server: a fixed set of
named workers behind a configurable queue, a pluggable admission policy for
saturation, and a health sampler that publishes pool counters.

Scheduling (pkg/scheduling):
  - queue: Unbounded, Bounded and Rendezvous task queues
  - workerpool: Fixed-size pool with Abort, CallerRuns, Blocking, Discard
    and RejectNotify admission policies
  - monitor: Periodic health snapshots and exporters
  - monitor/redisexporter, monitor/otelexporter: Snapshot sinks

Support packages:
  - metrics: Prometheus counters, histograms and snapshot gauges
  - config/poolconf: YAML/JSON settings with RPCPOOL_* overrides

Example usage:

	import "github.com/dy604/NettyRPC2.0/pkg/scheduling/workerpool"

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 16,
		Policy:      "CallerRuns",
		Queue:       workerpool.QueueConfig{Discipline: "Bounded"},
	})
	if err != nil {
		return err
	}
	defer func() { <-pool.Shutdown(workerpool.DrainGraceful) }()

	err = pool.Submit(workerpool.Func(handle))
*/
package nettyrpc

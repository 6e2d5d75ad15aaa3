// Package metrics provides Prometheus instrumentation for worker pools.
//
// A Registry groups the collectors. Pools record admission and execution
// events inline when workerpool.Config.Metrics is set, and an Exporter turns
// health snapshots from a monitor.Sampler into status gauges:
//
//	reg, err := metrics.NewRegistry(prometheus.NewRegistry())
//	if err != nil {
//		return err
//	}
//	pool, sampler, err := workerpool.NewMonitored(
//		workerpool.Config{WorkerCount: 8, Metrics: reg},
//		metrics.NewExporter(reg),
//		0, 0,
//	)
//
// # Available Metrics
//
// Counters, updated as events happen:
//
//   - rpcpool_pool_tasks_submitted_total{pool}
//   - rpcpool_pool_tasks_rejected_total{pool,policy}
//   - rpcpool_pool_tasks_discarded_total{pool,reason}: reason is "policy" or "shutdown"
//   - rpcpool_pool_tasks_completed_total{pool}
//   - rpcpool_pool_tasks_failed_total{pool}
//   - rpcpool_pool_task_duration_seconds{pool}
//   - rpcpool_pool_sampler_publish_failures_total{pool}
//
// Gauges, set from the latest snapshot:
//
//   - rpcpool_pool_size, rpcpool_pool_active_workers
//   - rpcpool_pool_core_size, rpcpool_pool_maximum_size, rpcpool_pool_largest_size
//   - rpcpool_pool_task_count, rpcpool_pool_completed_task_count
//   - rpcpool_pool_queued_tasks, rpcpool_pool_rejected_count
//
// Collectors already present on the registerer are reused, so any number of
// pools may share one Registry or call New against the same registerer.
package metrics

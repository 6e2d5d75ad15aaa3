/*
Package monitor samples worker pool health and hands it to an exporter.

A Sampler owns its own goroutine and timer. It fires first after Options.Delay
(default 100ms) and then every Options.Period (default 300ms), or on an
arbitrary cron schedule. Each tick reads a Snapshot from a StatsProvider and
calls Exporter.Publish:

	sampler, err := monitor.NewSampler(pool, monitor.NewLogExporter(logger, zap.InfoLevel), monitor.Options{})
	if err != nil {
		return err
	}
	sampler.Start(ctx)
	defer sampler.Stop()

Exporter failures are never fatal. They are wrapped as *errors.PublishError,
logged, counted in Stats().Failures and passed to Options.OnError, and the next
tick happens on schedule. A panicking exporter is treated the same way.

Snapshots are plain values. The fields are read one by one from live
counters, so two fields of the same snapshot may disagree momentarily while
tasks are being submitted; Snapshot.Check validates only the structural
invariants that hold regardless.
*/
package monitor

/*
Package scheduling groups the pieces of the RPC handler pool.

  - queue: Task queues for the three disciplines (Unbounded, Bounded, Rendezvous)
  - workerpool: Fixed worker pool with pluggable admission policies
  - monitor: Health snapshots, periodic sampling and exporters

Worker Pool:

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 4,
		Policy:      "Blocking",
		Queue:       workerpool.QueueConfig{Discipline: "Bounded"},
	})
	if err != nil {
		return err
	}
	defer func() { <-pool.Shutdown(workerpool.DrainGraceful) }()

	err = pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return handle(ctx, req)
	}))

Health Sampling:

	pool, sampler, err := workerpool.NewMonitored(config,
		monitor.NewLogExporter(logger, zapcore.InfoLevel), 100*time.Millisecond, 300*time.Millisecond)
	if err != nil {
		return err
	}
	defer sampler.Stop()
*/
package scheduling

/*
Package workerpool provides a fixed-size worker pool with pluggable admission
control.

A pool starts WorkerCount named goroutines ("<prefix>-1" ... "<prefix>-N")
before its constructor returns and never grows or shrinks. Tasks wait in a
FIFO queue whose discipline is chosen by name. When the queue refuses a task,
the pool's admission policy decides what happens to it.

Basic usage:

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		Queue:       workerpool.QueueConfig{Discipline: "Bounded", CapacityFactor: 4},
		Policy:      "CallerRuns",
	})
	if err != nil {
		return err
	}
	defer pool.Shutdown(workerpool.DrainGraceful)

	err = pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return handle(ctx, req)
	}))

Queue disciplines:

  - Unbounded (default): never refuses a task.
  - Bounded: holds Parallelism * CapacityFactor tasks; Parallelism defaults to
    max(2, runtime.NumCPU()).
  - Rendezvous: hands a task directly to a parked worker and refuses it when
    none is waiting.

Admission policies:

  - Abort (default): Submit returns a *errors.SaturationError.
  - CallerRuns: the task runs on the submitting goroutine before Submit
    returns, which throttles the submitter.
  - Blocking: Submit waits up to BlockingTimeout for space, then returns a
    *errors.SaturationError.
  - Discard: the oldest half of the queue is dropped and the offer is retried
    once; a task that still does not fit is dropped. Submit returns nil.
  - RejectNotify: OnReject and the task's OnRejected method are called and the
    task is dropped. Submit returns nil.

Names are case-insensitive, and the JDK names (AbortPolicy,
LinkedBlockingQueue, SynchronousQueue, ...) are accepted as aliases. Unknown
names fail construction with a *errors.ConfigError before any worker starts.

Shutdown:

Shutdown(DrainGraceful) runs every queued task before the workers exit.
Shutdown(DrainDiscard) drops queued tasks; Discarded reports how many. Tasks
already running always finish. Submissions after shutdown fail with an error
matching errors.ErrClosed.

Monitoring:

Snapshot reads the pool counters at any time. NewMonitored additionally
starts a monitor.Sampler that publishes snapshots on its own timer; stopping
the sampler does not affect the pool.
*/
package workerpool

/*
Package queue builds the task queues that back a worker pool.

Three disciplines are available, selected by name at construction time:

	Unbounded   FIFO without a capacity limit; Offer never fails for lack of space.
	Bounded     FIFO with a hard capacity; Offer fails once the queue is full.
	Rendezvous  handoff only; Offer succeeds only while a consumer is parked in Take.

	d, err := queue.ParseDiscipline("Bounded") // JDK names such as "ArrayBlockingQueue" also work
	if err != nil {
		// *errors.ConfigError: fail before any worker starts
	}
	q, err := queue.New[workItem](d, 64)

Offer is the non-blocking admission attempt used by pools; a false result is
what hands a task to the pool's admission policy. OfferContext is the blocking
variant used by the Blocking policy, and PollHead lets the Discard policy shed
the oldest entries. Items are always dequeued in the order they were accepted.
*/
package queue

package queue

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/eapache/queue"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/common/validation"
)

// ErrClosed is returned by blocking operations on a closed queue.
var ErrClosed = fmt.Errorf("queue: %w", perrors.ErrClosed)

// Queue is a FIFO task queue shared by pool workers and submitters.
// All methods are safe for concurrent use.
type Queue[T any] interface {
	// Offer enqueues item without blocking and reports whether it was accepted.
	Offer(item T) bool

	// OfferContext blocks until item is accepted, the queue is closed, or ctx is done.
	OfferContext(ctx context.Context, item T) error

	// Take blocks until an item is available. It returns ErrClosed once the
	// queue is closed and empty.
	Take(ctx context.Context) (T, error)

	// PollHead removes up to n items from the head and returns them in order.
	PollHead(n int) []T

	// Drain removes and returns every queued item.
	Drain() []T

	// Len returns the number of queued items. A bounded queue may briefly hold
	// more than Cap items while parked consumers wake to claim them.
	Len() int

	// Cap returns the capacity, or Unlimited.
	Cap() int

	// Waiting returns the number of consumers parked in Take.
	Waiting() int

	// Close stops accepting items and wakes all blocked callers.
	Close()

	// Discipline returns the discipline the queue was built with.
	Discipline() Discipline
}

// New builds a queue for the given discipline. capacity is only consulted for
// Bounded and must be positive there.
func New[T any](d Discipline, capacity int) (Queue[T], error) {
	q := &fifo[T]{
		items:      queue.New(),
		discipline: d,
		signal:     make(chan struct{}),
	}

	switch d {
	case Unbounded:
		q.capacity = Unlimited
	case Bounded:
		if err := validation.ValidatePositive("queue", "capacity", capacity); err != nil {
			return nil, err
		}
		q.capacity = capacity
	case Rendezvous:
		q.capacity = 1
	default:
		return nil, perrors.NewConfigError("queue discipline", d.String(), Names()...)
	}
	return q, nil
}

type fifo[T any] struct {
	mu         sync.Mutex
	items      *queue.Queue
	discipline Discipline
	capacity   int
	takers     int
	closed     bool

	// signal is closed and replaced on every state change.
	signal chan struct{}
}

func (q *fifo[T]) broadcastLocked() {
	close(q.signal)
	q.signal = make(chan struct{})
}

// admitsLocked reports whether one more item fits. Parked consumers count as
// extra room, since each claims an item as soon as it wakes. A rendezvous
// queue only admits items that an already parked consumer will claim.
func (q *fifo[T]) admitsLocked() bool {
	switch q.discipline {
	case Bounded:
		return q.items.Length() < q.capacity+q.takers
	case Rendezvous:
		return q.takers > q.items.Length()
	default:
		return true
	}
}

func (q *fifo[T]) Offer(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || !q.admitsLocked() {
		return false
	}
	q.items.Add(item)
	q.broadcastLocked()
	return true
}

func (q *fifo[T]) OfferContext(ctx context.Context, item T) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if q.admitsLocked() {
			q.items.Add(item)
			q.broadcastLocked()
			q.mu.Unlock()
			return nil
		}
		wait := q.signal
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

func (q *fifo[T]) Take(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	q.takers++
	if q.discipline != Unbounded {
		// a parked consumer is new capacity for blocked producers
		q.broadcastLocked()
	}

	for {
		if q.items.Length() > 0 {
			item := q.items.Remove().(T)
			q.takers--
			q.broadcastLocked()
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.takers--
			q.mu.Unlock()
			return zero, ErrClosed
		}
		wait := q.signal
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.takers--
			q.mu.Unlock()
			return zero, ctx.Err()
		case <-wait:
		}
		q.mu.Lock()
	}
}

func (q *fifo[T]) PollHead(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > q.items.Length() {
		n = q.items.Length()
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, q.items.Remove().(T))
	}
	q.broadcastLocked()
	return out
}

func (q *fifo[T]) Drain() []T {
	return q.PollHead(math.MaxInt)
}

func (q *fifo[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

func (q *fifo[T]) Cap() int {
	return q.capacity
}

func (q *fifo[T]) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.takers
}

func (q *fifo[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.broadcastLocked()
}

func (q *fifo[T]) Discipline() Discipline {
	return q.discipline
}

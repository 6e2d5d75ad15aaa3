package workerpool

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/queue"
)

// PolicyName identifies an admission policy.
type PolicyName string

const (
	// Abort rejects the task with a *errors.SaturationError.
	Abort PolicyName = "Abort"

	// CallerRuns executes the task synchronously on the submitting goroutine.
	CallerRuns PolicyName = "CallerRuns"

	// Blocking waits up to Config.BlockingTimeout for queue space, then
	// rejects with a *errors.SaturationError.
	Blocking PolicyName = "Blocking"

	// Discard drops the oldest half of the queue and retries once; if the
	// task still does not fit it is dropped silently.
	Discard PolicyName = "Discard"

	// RejectNotify drops the task after calling Config.OnReject and the
	// task's OnRejected method, and never returns an error.
	RejectNotify PolicyName = "RejectNotify"
)

// policy decides the fate of a task the queue refused. The set is closed:
// implementations live in this file and are selected through ParsePolicy.
type policy interface {
	name() PolicyName
	reject(p *workerPool, it *item) error
}

var policies = map[PolicyName]policy{
	Abort:        abortPolicy{},
	CallerRuns:   callerRunsPolicy{},
	Blocking:     blockingPolicy{},
	Discard:      discardPolicy{},
	RejectNotify: rejectNotifyPolicy{},
}

// policyAliases maps lower-cased names, including the JDK handler names, to
// policies.
var policyAliases = map[string]PolicyName{
	"abort":            Abort,
	"abortpolicy":      Abort,
	"callerruns":       CallerRuns,
	"callerrunspolicy": CallerRuns,
	"blocking":         Blocking,
	"blockingpolicy":   Blocking,
	"discard":          Discard,
	"discardedpolicy":  Discard,
	"discardpolicy":    Discard,
	"rejectnotify":     RejectNotify,
	"rejectedpolicy":   RejectNotify,
}

// PolicyNames returns the canonical policy names.
func PolicyNames() []string {
	return []string{string(Abort), string(CallerRuns), string(Blocking), string(Discard), string(RejectNotify)}
}

// ParsePolicy resolves a policy by name, case-insensitively. An empty name
// selects Abort. Unknown names yield a *errors.ConfigError.
func ParsePolicy(name string) (PolicyName, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Abort, nil
	}
	resolved, ok := policyAliases[key]
	if !ok {
		return "", perrors.NewConfigError("admission policy", name, PolicyNames()...)
	}
	return resolved, nil
}

type abortPolicy struct{}

func (abortPolicy) name() PolicyName { return Abort }

func (abortPolicy) reject(p *workerPool, _ *item) error {
	err := p.saturated(0)
	p.logger.Debug("task rejected", zap.String("policy", string(Abort)), zap.Int("queue_length", p.queue.Len()))
	return err
}

type callerRunsPolicy struct{}

func (callerRunsPolicy) name() PolicyName { return CallerRuns }

// reject runs the task on the caller. A task refused because the pool is
// shutting down is discarded instead.
func (callerRunsPolicy) reject(p *workerPool, it *item) error {
	if p.closed.Load() {
		return p.closedError("submit")
	}
	p.execute("caller", 0, it)
	return nil
}

type blockingPolicy struct{}

func (blockingPolicy) name() PolicyName { return Blocking }

func (blockingPolicy) reject(p *workerPool, it *item) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(it.ctx, p.settings.blockingTimeout)
	defer cancel()

	err := p.queue.OfferContext(ctx, it)
	switch {
	case err == nil:
		p.accept(it)
		return nil
	case errors.Is(err, queue.ErrClosed):
		return p.closedError("submit")
	case it.ctx.Err() != nil:
		return perrors.NewOperationError("workerpool", "submit", it.ctx.Err()).WithContext("waiting for queue space")
	}

	waited := time.Since(start)
	p.logger.Warn("task rejected after blocking",
		zap.String("policy", string(Blocking)),
		zap.Duration("waited", waited),
		zap.Int("queue_length", p.queue.Len()),
	)
	return p.saturated(waited)
}

type discardPolicy struct{}

func (discardPolicy) name() PolicyName { return Discard }

// reject removes ceil(n/2) items from the head of the queue, then retries the
// offer once.
func (discardPolicy) reject(p *workerPool, it *item) error {
	dropped := p.queue.PollHead((p.queue.Len() + 1) / 2)
	p.discard(dropped, "policy")

	admitted := p.queue.Offer(it)
	if admitted {
		p.accept(it)
	}

	p.logger.Debug("discarded queued tasks",
		zap.String("policy", string(Discard)),
		zap.Int("dropped", len(dropped)),
		zap.Bool("admitted", admitted),
	)
	return nil
}

type rejectNotifyPolicy struct{}

func (rejectNotifyPolicy) name() PolicyName { return RejectNotify }

func (rejectNotifyPolicy) reject(p *workerPool, it *item) error {
	event := RejectEvent{
		Pool:        p.settings.name,
		Policy:      RejectNotify,
		Task:        it.task,
		QueueLength: p.queue.Len(),
		Time:        time.Now(),
	}
	if p.config.OnReject != nil {
		p.config.OnReject(event)
	}
	if r, ok := it.task.(Rejectable); ok {
		r.OnRejected()
	}

	p.logger.Warn("task rejected",
		zap.String("policy", string(RejectNotify)),
		zap.Int("queue_length", event.QueueLength),
	)
	return nil
}

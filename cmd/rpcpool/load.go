package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/common/validation"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/workerpool"
)

// maxRate keeps the request interval at one nanosecond or more.
const maxRate = int(time.Second)

type loadOptions struct {
	Rate     int
	Work     time.Duration
	Duration time.Duration
}

func (o loadOptions) validate() error {
	if o.Rate < 0 || o.Rate > maxRate {
		return perrors.NewValidationError("rpcpool", "rate", o.Rate, "out of range").
			WithHint(fmt.Sprintf("use 0 to disable load or at most %d requests per second", maxRate))
	}
	if err := validation.ValidateNonNegativeDuration("rpcpool", "work", o.Work); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("rpcpool", "duration", o.Duration)
}

// request stands in for one decoded RPC call waiting for its handler.
type request struct {
	id      uint64
	work    time.Duration
	dropped *atomic.Int64
}

func (r *request) Execute(ctx context.Context) error {
	if r.work <= 0 {
		return nil
	}
	timer := time.NewTimer(r.work/2 + rand.N(r.work))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *request) OnRejected() {
	r.dropped.Add(1)
}

// generateLoad submits requests at opts.Rate per second until ctx ends.
// Rejections are counted, not treated as failures.
func generateLoad(ctx context.Context, pool workerpool.Pool, opts loadOptions, logger *zap.Logger) error {
	ticker := time.NewTicker(time.Second / time.Duration(opts.Rate))
	defer ticker.Stop()

	var (
		next     uint64
		accepted int64
		refused  int64
		dropped  atomic.Int64
	)
	defer func() {
		logger.Info("load generator stopped",
			zap.Uint64("requests", next),
			zap.Int64("accepted", accepted),
			zap.Int64("refused", refused),
			zap.Int64("dropped", dropped.Load()))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		next++
		err := pool.SubmitWithContext(ctx, &request{id: next, work: opts.Work, dropped: &dropped})
		switch {
		case err == nil:
			accepted++
		case perrors.IsSaturated(err):
			refused++
		case errors.Is(err, perrors.ErrClosed), ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

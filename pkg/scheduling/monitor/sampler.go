package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dy604/NettyRPC2.0/pkg/common/validation"
)

const (
	// DefaultDelay is the time before the first sample.
	DefaultDelay = 100 * time.Millisecond

	// DefaultPeriod is the time between samples.
	DefaultPeriod = 300 * time.Millisecond
)

// Options configures a Sampler.
type Options struct {
	// Delay before the first sample. Zero selects DefaultDelay.
	Delay time.Duration

	// Period between samples. Zero selects DefaultPeriod. Ignored when
	// Schedule is set.
	Period time.Duration

	// Schedule overrides Period with an arbitrary cron schedule.
	Schedule cron.Schedule

	// Name labels log lines and wrapped publish errors. Defaults to "sampler".
	Name string

	// Logger receives publish failures. Nil selects zap.L().
	Logger *zap.Logger

	// OnError is called after every failed publish, from the sampling goroutine.
	OnError func(err error)
}

// Stats counts sampler activity.
type Stats struct {
	Ticks    int64
	Failures int64
}

// Sampler periodically reads a StatsProvider and hands the snapshot to an
// Exporter. It runs on its own goroutine and timer, holds only a read-only
// view of the provider, and never stops because of exporter failures.
type Sampler struct {
	provider StatsProvider
	exporter Exporter
	delay    time.Duration
	schedule cron.Schedule
	name     string
	logger   *zap.Logger
	onError  func(err error)

	ticks       atomic.Int64
	failures    atomic.Int64
	consecutive int64 // only touched by the sampling goroutine

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Validate checks the timing options. Zero values are valid and select the
// defaults.
func (o Options) Validate() error {
	if err := validation.ValidateNonNegativeDuration("monitor", "delay", o.Delay); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("monitor", "period", o.Period)
}

// NewSampler creates a stopped sampler.
func NewSampler(provider StatsProvider, exporter Exporter, opts Options) (*Sampler, error) {
	if err := validation.ValidateNotNil("monitor", "provider", provider); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("monitor", "exporter", exporter); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Period == 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Schedule == nil {
		opts.Schedule = Every(opts.Period)
	}
	if opts.Name == "" {
		opts.Name = "sampler"
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}

	return &Sampler{
		provider: provider,
		exporter: exporter,
		delay:    opts.Delay,
		schedule: opts.Schedule,
		name:     opts.Name,
		logger:   opts.Logger.With(zap.String("sampler", opts.Name)),
		onError:  opts.OnError,
	}, nil
}

// Start begins sampling; repeated calls are no-ops.
func (s *Sampler) Start(ctx context.Context) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(loopCtx, s.done)
	s.logger.Debug("sampler started", zap.Duration("delay", s.delay))
}

// Stop cancels future ticks and waits for an in-flight publish to return.
// Repeated calls are safe.
//
// Stop must not be called from Exporter.Publish: it would wait for the
// publish that is calling it. An exporter that needs to end sampling should
// cancel the context passed to Start instead.
func (s *Sampler) Stop() {
	s.stateMu.Lock()
	if !s.running {
		s.stateMu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.cancel = nil
	s.done = nil
	s.stateMu.Unlock()

	cancel()
	<-done
	s.logger.Debug("sampler stopped", zap.Int64("ticks", s.ticks.Load()))
}

// Running reports whether the sampler is started.
func (s *Sampler) Running() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.running
}

// Stats returns tick and failure counts since creation.
func (s *Sampler) Stats() Stats {
	return Stats{
		Ticks:    s.ticks.Load(),
		Failures: s.failures.Load(),
	}
}

func (s *Sampler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	next := time.Now().Add(s.delay)
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.sampleOnce(ctx)

		next = s.schedule.Next(next)
		if next.IsZero() {
			s.logger.Warn("sampling schedule has no further activations")
			return
		}
		// a slow publish delays the next tick instead of queueing a burst
		now := time.Now()
		if next.Before(now) {
			next = now
		}
		timer.Reset(next.Sub(now))
	}
}

func (s *Sampler) sampleOnce(ctx context.Context) {
	snap := s.provider.Snapshot()
	s.ticks.Add(1)

	// in-flight publishes outlive Stop
	err := s.publish(context.WithoutCancel(ctx), snap)
	if err == nil {
		s.consecutive = 0
		return
	}

	s.failures.Add(1)
	s.consecutive++
	s.logger.Warn("health snapshot publish failed",
		zap.String("pool", snap.Pool),
		zap.Int64("consecutive_failures", s.consecutive),
		zap.Error(err),
	)
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Sampler) publish(ctx context.Context, snap Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asPublishError(s.name, fmt.Errorf("exporter panicked: %v", r))
		}
	}()
	return asPublishError(s.name, s.exporter.Publish(ctx, snap))
}

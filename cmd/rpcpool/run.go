package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dy604/NettyRPC2.0/pkg/config/poolconf"
	"github.com/dy604/NettyRPC2.0/pkg/metrics"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/workerpool"
)

const shutdownTimeout = 10 * time.Second

// run owns the process lifecycle: it builds the pool, sampler and exporters,
// serves metrics and drives load until ctx ends, then drains the pool.
func run(ctx context.Context, cfg poolconf.Config, opts loadOptions) (err error) {
	if err := opts.validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
		err = errors.Join(err, closeLog())
	}()

	gatherer := prometheus.NewRegistry()
	gatherer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry, err := metrics.New(metrics.Config{Registry: gatherer, Namespace: cfg.Metrics.Namespace})
	if err != nil {
		return err
	}

	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		return err
	}
	poolConfig.Logger = logger
	poolConfig.Metrics = registry

	pool, err := workerpool.NewWithConfig(poolConfig)
	if err != nil {
		return err
	}

	exporters, err := newExporters(cfg, logger, registry, nil)
	if err != nil {
		<-pool.Shutdown(workerpool.DrainDiscard)
		return err
	}
	defer func() {
		err = errors.Join(err, exporters.Close())
	}()

	var sampler *monitor.Sampler
	if cfg.Monitor.Enabled && len(exporters.MultiExporter) > 0 {
		sampler, err = newSampler(cfg.Monitor, pool, exporters, logger, registry)
		if err != nil {
			<-pool.Shutdown(workerpool.DrainDiscard)
			return err
		}
		sampler.Start(context.Background())
	}

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, opts.Duration, errStopped)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Monitor.HasExporter(poolconf.ExporterPrometheus) && cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{Registry: gatherer}))
		server := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", server.Addr))
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if opts.Rate > 0 {
		g.Go(func() error {
			return generateLoad(gctx, pool, opts, logger)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	logger.Info("stopping", zap.NamedError("cause", context.Cause(gctx)))

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	drainErr := pool.ShutdownContext(drainCtx, workerpool.DrainGraceful)

	// the sampler outlives the pool so the drained state is published once
	if sampler != nil {
		sampler.Stop()
	}
	logger.Info("final pool state", pool.Snapshot().Fields()...)

	return errors.Join(err, drainErr)
}

func newSampler(m poolconf.MonitorSettings, pool workerpool.Pool, exporter monitor.Exporter, logger *zap.Logger, registry *metrics.Registry) (*monitor.Sampler, error) {
	opts, err := m.SamplerOptions()
	if err != nil {
		return nil, err
	}
	opts.Name = pool.Name()
	opts.Logger = logger
	opts.OnError = func(error) {
		registry.RecordSamplerFailure(pool.Name())
	}
	return monitor.NewSampler(pool, exporter, opts)
}

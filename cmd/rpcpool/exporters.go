package main

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dy604/NettyRPC2.0/pkg/config/poolconf"
	"github.com/dy604/NettyRPC2.0/pkg/metrics"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor/otelexporter"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor/redisexporter"
)

// exporterSet fans snapshots out to every enabled exporter and owns the
// resources they hold.
type exporterSet struct {
	monitor.MultiExporter
	closers []func() error
}

func (s *exporterSet) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// newExporters builds the exporters named in cfg.Monitor.Exporters. The OTel
// exporter reports through the global meter provider.
func newExporters(cfg poolconf.Config, logger *zap.Logger, registry *metrics.Registry, client redis.UniversalClient) (*exporterSet, error) {
	set := &exporterSet{}

	for _, name := range cfg.Monitor.Exporters {
		switch name {
		case poolconf.ExporterLog:
			level, err := zapcore.ParseLevel(cfg.Monitor.LogLevel)
			if err != nil {
				return nil, errors.Join(err, set.Close())
			}
			set.MultiExporter = append(set.MultiExporter, monitor.NewLogExporter(logger, level))

		case poolconf.ExporterPrometheus:
			set.MultiExporter = append(set.MultiExporter, metrics.NewExporter(registry))

		case poolconf.ExporterRedis:
			if client == nil {
				client = redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				set.closers = append(set.closers, client.Close)
			}
			exp, err := redisexporter.New(client, redisexporter.Options{
				KeyPrefix:     cfg.Redis.KeyPrefix,
				HistoryLength: cfg.Redis.History,
				TTL:           cfg.Redis.TTL,
			})
			if err != nil {
				return nil, errors.Join(err, set.Close())
			}
			set.MultiExporter = append(set.MultiExporter, exp)

		case poolconf.ExporterOTel:
			exp, err := otelexporter.New(nil)
			if err != nil {
				return nil, errors.Join(err, set.Close())
			}
			set.MultiExporter = append(set.MultiExporter, exp)
			set.closers = append(set.closers, exp.Close)
		}
	}

	return set, nil
}

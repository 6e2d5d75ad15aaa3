package monitor

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
)

// Exporter receives snapshots from a Sampler. Once Publish is called the
// snapshot belongs to the exporter; the sampler never touches it again.
type Exporter interface {
	Publish(ctx context.Context, s Snapshot) error
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(ctx context.Context, s Snapshot) error

// Publish calls f(ctx, s).
func (f ExporterFunc) Publish(ctx context.Context, s Snapshot) error {
	return f(ctx, s)
}

// MultiExporter publishes every snapshot to each exporter in order. A failing
// exporter does not prevent the others from receiving the snapshot.
type MultiExporter []Exporter

// Publish fans s out and joins any failures.
func (m MultiExporter) Publish(ctx context.Context, s Snapshot) error {
	var errs []error
	for _, e := range m {
		if err := e.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogExporter writes each snapshot as one structured log line.
type LogExporter struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewLogExporter creates a LogExporter. A nil logger selects zap.L().
func NewLogExporter(logger *zap.Logger, level zapcore.Level) *LogExporter {
	if logger == nil {
		logger = zap.L()
	}
	return &LogExporter{logger: logger, level: level}
}

// Publish logs s at the configured level.
func (e *LogExporter) Publish(_ context.Context, s Snapshot) error {
	ce := e.logger.Check(e.level, "pool status")
	if ce == nil {
		return nil
	}
	ce.Write(s.Fields()...)
	return nil
}

// asPublishError wraps err as a PublishError unless it already is one.
func asPublishError(exporter string, err error) error {
	if err == nil {
		return nil
	}
	var perr *perrors.PublishError
	if errors.As(err, &perr) {
		return err
	}
	return perrors.NewPublishError(exporter, err)
}

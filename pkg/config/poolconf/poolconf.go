// Package poolconf loads worker pool, sampler and process settings from YAML
// or JSON, overlaid with RPCPOOL_* environment variables.
//
// Environment variables name a section and a field separated by the first
// underscore: RPCPOOL_POOL_POLICY=CallerRuns sets pool.policy, and
// RPCPOOL_MONITOR_EXPORTERS=log,prometheus sets monitor.exporters.
package poolconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/queue"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/workerpool"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "RPCPOOL_"

var (
	// ErrUnsupportedFormat is returned for unknown file extensions or formats.
	ErrUnsupportedFormat = errors.New("poolconf: unsupported config format")

	// ErrLoadFailed is returned when the config file cannot be read.
	ErrLoadFailed = errors.New("poolconf: failed to load config")

	// ErrParseFailed is returned when the document is not valid YAML or JSON.
	ErrParseFailed = errors.New("poolconf: failed to parse config")

	// ErrUnmarshalFailed is returned when values do not fit the settings.
	ErrUnmarshalFailed = errors.New("poolconf: failed to unmarshal config")
)

// Format selects the document parser.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Exporter names accepted in monitor.exporters.
const (
	ExporterLog        = "log"
	ExporterPrometheus = "prometheus"
	ExporterRedis      = "redis"
	ExporterOTel       = "otel"
)

// Config is the full settings tree.
type Config struct {
	Pool    PoolSettings    `koanf:"pool"`
	Monitor MonitorSettings `koanf:"monitor"`
	Redis   RedisSettings   `koanf:"redis"`
	Metrics MetricsSettings `koanf:"metrics"`
	Log     LogSettings     `koanf:"log"`
}

// PoolSettings mirror workerpool.Config.
type PoolSettings struct {
	Workers         int           `koanf:"workers"`
	NamePrefix      string        `koanf:"name_prefix"`
	Daemon          bool          `koanf:"daemon"`
	Policy          string        `koanf:"policy"`
	Queue           string        `koanf:"queue"`
	CapacityFactor  int           `koanf:"capacity_factor"`
	Parallelism     int           `koanf:"parallelism"`
	TaskTimeout     time.Duration `koanf:"task_timeout"`
	BlockingTimeout time.Duration `koanf:"blocking_timeout"`
}

// MonitorSettings configure the health sampler.
type MonitorSettings struct {
	Enabled   bool          `koanf:"enabled"`
	Delay     time.Duration `koanf:"delay"`
	Period    time.Duration `koanf:"period"`
	Schedule  string        `koanf:"schedule"`
	Exporters []string      `koanf:"exporters"`
	LogLevel  string        `koanf:"log_level"`
}

// RedisSettings configure the redis exporter.
type RedisSettings struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	History   int           `koanf:"history"`
	TTL       time.Duration `koanf:"ttl"`
}

// MetricsSettings configure the Prometheus endpoint.
type MetricsSettings struct {
	Namespace string `koanf:"namespace"`
	Listen    string `koanf:"listen"`
}

// LogSettings configure the process logger and file rotation.
type LogSettings struct {
	Level      string `koanf:"level"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Pool: PoolSettings{
			Workers:         16,
			NamePrefix:      workerpool.DefaultNamePrefix,
			Daemon:          true,
			Policy:          string(workerpool.Abort),
			Queue:           queue.Unbounded.String(),
			CapacityFactor:  workerpool.DefaultCapacityFactor,
			BlockingTimeout: workerpool.DefaultBlockingTimeout,
		},
		Monitor: MonitorSettings{
			Enabled:   true,
			Delay:     monitor.DefaultDelay,
			Period:    monitor.DefaultPeriod,
			Exporters: []string{ExporterLog},
			LogLevel:  "info",
		},
		Redis: RedisSettings{
			Addr:    "localhost:6379",
			History: 100,
		},
		Metrics: MetricsSettings{
			Namespace: "rpcpool",
			Listen:    ":9090",
		},
		Log: LogSettings{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// LoadFile reads path, detecting the format from its extension, and applies
// environ on top. Pass os.Environ() for the process environment.
func LoadFile(path string, environ []string) (Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return Load(data, format, environ)
}

// Load parses data, applies environ on top, and validates the result. Empty
// data yields the defaults plus the environment.
func Load(data []byte, format Format, environ []string) (Config, error) {
	k := koanf.New(".")

	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return Config{}, err
		}
	} else if !isValidFormat(format) {
		return Config{}, ErrUnsupportedFormat
	}

	for key, value := range envOverrides(environ) {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
	}

	cfg := Default()
	if k.Exists("monitor.exporters") {
		cfg.Monitor.Exporters = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	cfg.Monitor.Exporters = splitList(cfg.Monitor.Exporters)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envOverrides maps RPCPOOL_SECTION_FIELD=value to section.field.
func envOverrides(environ []string) map[string]string {
	out := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, field, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_")
		if !ok || section == "" || field == "" {
			continue
		}
		out[section+"."+field] = value
	}
	return out
}

// splitList accepts both YAML lists and comma separated strings.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate resolves every name eagerly so a bad setting fails at startup.
func (c Config) Validate() error {
	if _, err := c.PoolConfig(); err != nil {
		return err
	}
	if _, err := c.Monitor.SamplerOptions(); err != nil {
		return err
	}
	for _, name := range c.Monitor.Exporters {
		switch name {
		case ExporterLog, ExporterPrometheus, ExporterRedis, ExporterOTel:
		default:
			return perrors.NewConfigError("monitor exporter", name, ExporterLog, ExporterPrometheus, ExporterRedis, ExporterOTel)
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrUnmarshalFailed, err)
	}
	if _, err := zapcore.ParseLevel(c.Monitor.LogLevel); err != nil {
		return fmt.Errorf("%w: monitor.log_level: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// PoolConfig converts the pool section. Names are checked here; the
// remaining validation happens in workerpool.NewWithConfig.
func (c Config) PoolConfig() (workerpool.Config, error) {
	p := c.Pool
	if _, err := workerpool.ParsePolicy(p.Policy); err != nil {
		return workerpool.Config{}, err
	}
	if _, err := queue.ParseDiscipline(p.Queue); err != nil {
		return workerpool.Config{}, err
	}
	return workerpool.Config{
		WorkerCount: p.Workers,
		Queue: workerpool.QueueConfig{
			Discipline:     p.Queue,
			CapacityFactor: p.CapacityFactor,
			Parallelism:    p.Parallelism,
		},
		Policy:          p.Policy,
		NamePrefix:      p.NamePrefix,
		Daemon:          p.Daemon,
		TaskTimeout:     p.TaskTimeout,
		BlockingTimeout: p.BlockingTimeout,
	}, nil
}

// SamplerOptions converts the monitor section. A schedule expression, when
// set, replaces the period.
func (m MonitorSettings) SamplerOptions() (monitor.Options, error) {
	opts := monitor.Options{Delay: m.Delay, Period: m.Period}
	if m.Schedule != "" {
		sched, err := monitor.ParseSchedule(m.Schedule)
		if err != nil {
			return monitor.Options{}, err
		}
		opts.Schedule = sched
	}
	return opts, nil
}

// HasExporter reports whether name is enabled.
func (m MonitorSettings) HasExporter(name string) bool {
	for _, e := range m.Exporters {
		if e == name {
			return true
		}
	}
	return false
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}

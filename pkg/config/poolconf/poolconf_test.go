package poolconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/workerpool"
)

const sampleYAML = `
pool:
  workers: 8
  name_prefix: codec
  policy: CallerRunsPolicy
  queue: ArrayBlockingQueue
  capacity_factor: 4
  parallelism: 2
  task_timeout: 2s
  blocking_timeout: 250ms
monitor:
  delay: 50ms
  period: 1s
  exporters: [log, prometheus]
redis:
  addr: redis:6379
  ttl: 10m
log:
  level: debug
`

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg, err := Load(nil, FormatYAML, nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load([]byte(sampleYAML), FormatYAML, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pool.Workers)
	assert.Equal(t, "codec", cfg.Pool.NamePrefix)
	assert.Equal(t, 2*time.Second, cfg.Pool.TaskTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Pool.BlockingTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Monitor.Delay)
	assert.Equal(t, time.Second, cfg.Monitor.Period)
	assert.Equal(t, []string{"log", "prometheus"}, cfg.Monitor.Exporters)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched settings keep their defaults
	assert.True(t, cfg.Pool.Daemon)
	assert.Equal(t, 100, cfg.Redis.History)

	pc, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, workerpool.Config{
		WorkerCount:     8,
		Queue:           workerpool.QueueConfig{Discipline: "ArrayBlockingQueue", CapacityFactor: 4, Parallelism: 2},
		Policy:          "CallerRunsPolicy",
		NamePrefix:      "codec",
		Daemon:          true,
		TaskTimeout:     2 * time.Second,
		BlockingTimeout: 250 * time.Millisecond,
	}, pc)
}

func TestLoadJSON(t *testing.T) {
	data := []byte(`{"pool": {"workers": 3, "policy": "Discard", "queue": "Rendezvous"}, "monitor": {"enabled": false}}`)

	cfg, err := Load(data, FormatJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.Equal(t, "Discard", cfg.Pool.Policy)
	assert.False(t, cfg.Monitor.Enabled)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	environ := []string{
		"RPCPOOL_POOL_POLICY=Blocking",
		"RPCPOOL_POOL_WORKERS=32",
		"RPCPOOL_POOL_NAME_PREFIX=edge",
		"RPCPOOL_POOL_BLOCKING_TIMEOUT=3s",
		"RPCPOOL_MONITOR_EXPORTERS=redis, otel",
		"RPCPOOL_REDIS_ADDR=cache:6380",
		"RPCPOOL_=ignored",
		"HOME=/root",
	}

	cfg, err := Load([]byte(sampleYAML), FormatYAML, environ)
	require.NoError(t, err)

	assert.Equal(t, "Blocking", cfg.Pool.Policy)
	assert.Equal(t, 32, cfg.Pool.Workers)
	assert.Equal(t, "edge", cfg.Pool.NamePrefix)
	assert.Equal(t, 3*time.Second, cfg.Pool.BlockingTimeout)
	assert.Equal(t, []string{"redis", "otel"}, cfg.Monitor.Exporters)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.True(t, cfg.Monitor.HasExporter(ExporterOTel))
	assert.False(t, cfg.Monitor.HasExporter(ExporterLog))
}

func TestLoadRejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{"policy", "RPCPOOL_POOL_POLICY=Retry"},
		{"queue", "RPCPOOL_POOL_QUEUE=PriorityBlockingQueue"},
		{"exporter", "RPCPOOL_MONITOR_EXPORTERS=statsd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(nil, FormatYAML, []string{tt.env})
			assert.True(t, perrors.IsConfigError(err), "got %v", err)
		})
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(nil, FormatYAML, []string{"RPCPOOL_MONITOR_SCHEDULE=every now and then"})
	assert.True(t, perrors.IsValidationError(err))

	_, err = Load(nil, FormatYAML, []string{"RPCPOOL_LOG_LEVEL=loud"})
	assert.ErrorIs(t, err, ErrUnmarshalFailed)

	_, err = Load(nil, FormatYAML, []string{"RPCPOOL_POOL_WORKERS=many"})
	assert.ErrorIs(t, err, ErrUnmarshalFailed)

	_, err = Load([]byte("pool: [unclosed"), FormatYAML, nil)
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = Load(nil, Format("toml"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSamplerOptions(t *testing.T) {
	opts, err := MonitorSettings{Delay: time.Second, Period: 2 * time.Second}.SamplerOptions()
	require.NoError(t, err)
	assert.Equal(t, time.Second, opts.Delay)
	assert.Nil(t, opts.Schedule)

	opts, err = MonitorSettings{Schedule: "*/10 * * * * *"}.SamplerOptions()
	require.NoError(t, err)
	assert.NotNil(t, opts.Schedule)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "pool.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o600))
	cfg, err := LoadFile(yamlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pool.Workers)

	_, err = LoadFile(filepath.Join(dir, "pool.toml"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

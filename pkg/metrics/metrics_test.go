package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
)

func TestNewRegistryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewRegistry(reg)
	require.NoError(t, err)
	second, err := NewRegistry(reg)
	require.NoError(t, err)

	first.RecordSubmitted("a")
	second.RecordSubmitted("a")
	assert.Equal(t, 2.0, testutil.ToFloat64(first.TasksSubmitted.WithLabelValues("a")))
}

func TestNewRegistryTypeMismatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	clash := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: DefaultNamespace,
		Subsystem: "pool",
		Name:      "tasks_submitted_total",
		Help:      "Total number of tasks admitted into the queue",
	}, []string{"pool"})
	require.NoError(t, reg.Register(clash))

	_, err := NewRegistry(reg)
	assert.Error(t, err)
}

func TestRecordMethods(t *testing.T) {
	r, err := New(Config{Registry: prometheus.NewRegistry(), Namespace: "test"})
	require.NoError(t, err)

	r.RecordSubmitted("p")
	r.RecordRejected("p", "Abort")
	r.RecordRejected("p", "Abort")
	r.RecordDiscarded("p", "policy", 3)
	r.RecordDiscarded("p", "policy", 0)
	r.RecordTask("p", 10*time.Millisecond, nil)
	r.RecordTask("p", 20*time.Millisecond, errors.New("boom"))
	r.RecordSamplerFailure("p")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.TasksSubmitted.WithLabelValues("p")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.TasksRejected.WithLabelValues("p", "Abort")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.TasksDiscarded.WithLabelValues("p", "policy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TasksCompleted.WithLabelValues("p")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TasksFailed.WithLabelValues("p")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SamplerFailures.WithLabelValues("p")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.TaskDuration))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.RecordSubmitted("p")
	r.RecordRejected("p", "Abort")
	r.RecordDiscarded("p", "shutdown", 1)
	r.RecordTask("p", time.Millisecond, nil)
	r.RecordSamplerFailure("p")

	assert.NoError(t, NewExporter(nil).Publish(context.Background(), monitor.Snapshot{}))
}

func TestExporterPublishesGauges(t *testing.T) {
	r, err := NewRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	exporter := NewExporter(r)

	snap := monitor.Snapshot{
		Pool:               "rpc",
		PoolSize:           4,
		ActiveCount:        3,
		CorePoolSize:       4,
		MaximumPoolSize:    4,
		LargestPoolSize:    4,
		TaskCount:          120,
		CompletedTaskCount: 100,
		QueueLength:        17,
		Rejected:           5,
	}
	require.NoError(t, exporter.Publish(context.Background(), snap))

	assert.Equal(t, 4.0, testutil.ToFloat64(r.PoolSize.WithLabelValues("rpc")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.ActiveWorkers.WithLabelValues("rpc")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.MaximumPoolSize.WithLabelValues("rpc")))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.TaskCount.WithLabelValues("rpc")))
	assert.Equal(t, 100.0, testutil.ToFloat64(r.CompletedTaskCount.WithLabelValues("rpc")))
	assert.Equal(t, 17.0, testutil.ToFloat64(r.QueueLength.WithLabelValues("rpc")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.RejectedCount.WithLabelValues("rpc")))

	require.NoError(t, exporter.Publish(context.Background(), monitor.Snapshot{PoolSize: 1}))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PoolSize.WithLabelValues("unknown")))
}

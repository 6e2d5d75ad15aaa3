// Package redisexporter publishes pool health snapshots to Redis.
//
// Each pool owns two keys under the configured prefix:
//
//	<prefix>:<pool>          hash with the latest snapshot, one field per counter
//	<prefix>:<pool>:history  list of JSON snapshots, newest first, capped
//
// Both keys are written in one MULTI/EXEC transaction so readers never see
// a hash and history that disagree.
package redisexporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
	"github.com/dy604/NettyRPC2.0/pkg/common/validation"
	"github.com/dy604/NettyRPC2.0/pkg/scheduling/monitor"
)

const (
	// DefaultKeyPrefix prefixes every key written by the exporter.
	DefaultKeyPrefix = "rpcpool:health"

	// DefaultHistoryLength caps the history list.
	DefaultHistoryLength = 100

	exporterName = "redis"
)

// ErrNoSnapshot is returned by Latest when nothing was published for a pool.
var ErrNoSnapshot = errors.New("redisexporter: no snapshot published")

// Options configures an Exporter.
type Options struct {
	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string

	// HistoryLength defaults to DefaultHistoryLength.
	HistoryLength int

	// TTL expires both keys when a pool stops publishing. Zero keeps them forever.
	TTL time.Duration
}

// Exporter writes snapshots to Redis. It implements monitor.Exporter.
type Exporter struct {
	client  redis.UniversalClient
	prefix  string
	history int64
	ttl     time.Duration
}

var _ monitor.Exporter = (*Exporter)(nil)

// record is the stored form of a snapshot. Redis tags drive HSET and
// HGETALL scanning; JSON tags drive the history list.
type record struct {
	ID                 string `redis:"id" json:"id"`
	Pool               string `redis:"pool" json:"pool"`
	TimeMillis         int64  `redis:"time_ms" json:"time_ms"`
	PoolSize           int    `redis:"pool_size" json:"pool_size"`
	ActiveCount        int    `redis:"active_count" json:"active_count"`
	CorePoolSize       int    `redis:"core_pool_size" json:"core_pool_size"`
	MaximumPoolSize    int    `redis:"maximum_pool_size" json:"maximum_pool_size"`
	LargestPoolSize    int    `redis:"largest_pool_size" json:"largest_pool_size"`
	TaskCount          int64  `redis:"task_count" json:"task_count"`
	CompletedTaskCount int64  `redis:"completed_task_count" json:"completed_task_count"`
	QueueLength        int    `redis:"queue_length" json:"queue_length"`
	Rejected           int64  `redis:"rejected" json:"rejected"`
}

func toRecord(s monitor.Snapshot) record {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return record{
		ID:                 uuid.NewString(),
		Pool:               s.Pool,
		TimeMillis:         ts.UnixMilli(),
		PoolSize:           s.PoolSize,
		ActiveCount:        s.ActiveCount,
		CorePoolSize:       s.CorePoolSize,
		MaximumPoolSize:    s.MaximumPoolSize,
		LargestPoolSize:    s.LargestPoolSize,
		TaskCount:          s.TaskCount,
		CompletedTaskCount: s.CompletedTaskCount,
		QueueLength:        s.QueueLength,
		Rejected:           s.Rejected,
	}
}

func (r record) snapshot() monitor.Snapshot {
	return monitor.Snapshot{
		Pool:               r.Pool,
		Time:               time.UnixMilli(r.TimeMillis),
		PoolSize:           r.PoolSize,
		ActiveCount:        r.ActiveCount,
		CorePoolSize:       r.CorePoolSize,
		MaximumPoolSize:    r.MaximumPoolSize,
		LargestPoolSize:    r.LargestPoolSize,
		TaskCount:          r.TaskCount,
		CompletedTaskCount: r.CompletedTaskCount,
		QueueLength:        r.QueueLength,
		Rejected:           r.Rejected,
	}
}

// New creates an Exporter on client.
func New(client redis.UniversalClient, opts Options) (*Exporter, error) {
	if client == nil {
		return nil, perrors.NewValidationError("redisexporter", "client", nil, "cannot be nil")
	}
	if err := validation.ValidateNonNegativeDuration("redisexporter", "TTL", opts.TTL); err != nil {
		return nil, err
	}
	if opts.HistoryLength < 0 {
		return nil, perrors.NewValidationError("redisexporter", "HistoryLength", opts.HistoryLength, "cannot be negative")
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.HistoryLength == 0 {
		opts.HistoryLength = DefaultHistoryLength
	}

	return &Exporter{
		client:  client,
		prefix:  opts.KeyPrefix,
		history: int64(opts.HistoryLength),
		ttl:     opts.TTL,
	}, nil
}

func (e *Exporter) key(pool string) string {
	return e.prefix + ":" + pool
}

func (e *Exporter) historyKey(pool string) string {
	return e.key(pool) + ":history"
}

// Publish stores s as the latest snapshot and prepends it to the history.
func (e *Exporter) Publish(ctx context.Context, s monitor.Snapshot) error {
	rec := toRecord(s)
	payload, err := json.Marshal(rec)
	if err != nil {
		return perrors.NewPublishError(exporterName, err)
	}

	key, historyKey := e.key(s.Pool), e.historyKey(s.Pool)
	_, err = e.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, rec)
		pipe.LPush(ctx, historyKey, payload)
		pipe.LTrim(ctx, historyKey, 0, e.history-1)
		if e.ttl > 0 {
			pipe.Expire(ctx, key, e.ttl)
			pipe.Expire(ctx, historyKey, e.ttl)
		}
		return nil
	})
	if err != nil {
		return perrors.NewPublishError(exporterName, err)
	}
	return nil
}

// Latest returns the most recent snapshot published for pool.
func (e *Exporter) Latest(ctx context.Context, pool string) (monitor.Snapshot, error) {
	res := e.client.HGetAll(ctx, e.key(pool))
	if err := res.Err(); err != nil {
		return monitor.Snapshot{}, perrors.NewOperationError("redisexporter", "latest", err)
	}
	if len(res.Val()) == 0 {
		return monitor.Snapshot{}, fmt.Errorf("%w for pool %q", ErrNoSnapshot, pool)
	}

	var rec record
	if err := res.Scan(&rec); err != nil {
		return monitor.Snapshot{}, perrors.NewOperationError("redisexporter", "latest", err)
	}
	return rec.snapshot(), nil
}

// History returns up to n snapshots for pool, newest first.
func (e *Exporter) History(ctx context.Context, pool string, n int) ([]monitor.Snapshot, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := e.client.LRange(ctx, e.historyKey(pool), 0, int64(n-1)).Result()
	if err != nil {
		return nil, perrors.NewOperationError("redisexporter", "history", err)
	}

	out := make([]monitor.Snapshot, 0, len(raw))
	for _, item := range raw {
		var rec record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, perrors.NewOperationError("redisexporter", "history", err).WithContext("corrupt history entry")
		}
		out = append(out, rec.snapshot())
	}
	return out, nil
}

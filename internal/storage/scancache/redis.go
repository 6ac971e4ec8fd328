package scancache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Redis persists scans in a capped list plus a latest key.
type Redis struct {
	rdb       *redis.Client
	namespace string
}

// NewRedis creates a Redis backend. If namespace is empty, it uses "dayedge".
func NewRedis(rdb *redis.Client, namespace string) *Redis {
	if namespace == "" {
		namespace = "dayedge"
	}
	return &Redis{rdb: rdb, namespace: namespace}
}

func (r *Redis) Name() string {
	return "redis"
}

func (r *Redis) latestKey() string {
	return r.namespace + ":scan:latest"
}

func (r *Redis) historyKey() string {
	return r.namespace + ":scan:history"
}

// Append writes the scan in one MULTI/EXEC so the list and latest key never
// disagree.
func (r *Redis) Append(ctx context.Context, res *core.ScanResult, keep int) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding scan: %w", err)
	}
	if keep <= 0 {
		keep = DefaultHistorySize
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.latestKey(), data, 0)
		pipe.LPush(ctx, r.historyKey(), data)
		pipe.LTrim(ctx, r.historyKey(), 0, int64(keep-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// Load returns up to limit scans, newest first. Corrupted entries are
// skipped.
func (r *Redis) Load(ctx context.Context, limit int) ([]*core.ScanResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	items, err := r.rdb.LRange(ctx, r.historyKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load: %w", err)
	}
	out := make([]*core.ScanResult, 0, len(items))
	for _, item := range items {
		var res core.ScanResult
		if err := json.Unmarshal([]byte(item), &res); err != nil {
			continue
		}
		out = append(out, &res)
	}
	return out, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

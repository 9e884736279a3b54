// Package cache is the Redis-backed report cache. Reports are cached by
// a digest of everything that determines their content, so a config
// change or different dataset can never serve a stale report.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"millreport/internal/dataset"
	"millreport/internal/domain"
)

const keyPrefix = "report:"

// ReportCache stores generated reports in Redis with a TTL.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and returns a ReportCache. The connection is
// verified with a ping before use.
func New(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*ReportCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &ReportCache{client: client, ttl: ttl, logger: logger}, nil
}

// Close releases the Redis connection.
func (c *ReportCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Get fetches a cached report. The second return is false on a miss.
func (c *ReportCache) Get(ctx context.Context, key string) (*domain.Report, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	rpt := &domain.Report{}
	if err := json.Unmarshal([]byte(val), rpt); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	c.logger.Debug("report cache hit", "key", key)
	return rpt, true, nil
}

// Put caches a report under the given key for the configured TTL.
func (c *ReportCache) Put(ctx context.Context, key string, rpt *domain.Report) error {
	data, err := json.Marshal(rpt)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Purge deletes every cached report (uses SCAN, safe on live instances).
func (c *ReportCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache purge: %w", err)
	}
	c.logger.Debug("report cache purged", "keys", len(keys))
	return nil
}

// Health pings Redis.
func (c *ReportCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Key builds the cache key for a report request: the resolved config
// identity, the filter, and a digest of the input dataset.
func Key(configID string, f domain.Filter, datasetDigest string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s",
		configID, f.DepartmentID, f.ReportType, f.Category, f.MetricsType, datasetDigest)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// DatasetDigest hashes a dataset's rows in order. Row maps are hashed
// with sorted keys so the digest is stable.
func DatasetDigest(ds *dataset.Dataset) string {
	h := sha256.New()
	for i := 0; i < ds.Len(); i++ {
		writeRow(h, ds.Row(i))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeRow(w io.Writer, row dataset.Row) {
	for _, k := range dataset.OrderedKeys(row) {
		fmt.Fprintf(w, "%s=%v\x1f", k, row[k])
	}
	fmt.Fprint(w, "\n")
}

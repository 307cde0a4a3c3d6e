package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
)

// ProgressCache caches per-user career path completion summaries in Redis.
// Keys embed the catalog snapshot version, so a catalog change invalidates
// all cached summaries without an explicit flush; per-user invalidation
// happens on resource completion.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressCache connects to Redis and verifies connectivity.
func NewProgressCache(address, password string, db int, ttl time.Duration) (*ProgressCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &ProgressCache{client: client, ttl: ttl}, nil
}

func summaryKey(userID, careerPathID string, version int64) string {
	return fmt.Sprintf("progress:%s:%s:v%d", userID, careerPathID, version)
}

// GetSummary returns a cached summary, or nil on miss. Cache errors degrade
// to a miss.
func (c *ProgressCache) GetSummary(ctx context.Context, userID, careerPathID string, version int64) *catalog.ProgressSummary {
	data, err := c.client.Get(ctx, summaryKey(userID, careerPathID, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("progress cache read failed", "error", err, "user", userID)
		}
		return nil
	}

	var summary catalog.ProgressSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		slog.Warn("progress cache entry corrupt", "error", err, "user", userID)
		return nil
	}
	return &summary
}

// SetSummary stores a summary. Failures are logged and ignored; the cache is
// never load-bearing.
func (c *ProgressCache) SetSummary(ctx context.Context, userID, careerPathID string, version int64, summary *catalog.ProgressSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, summaryKey(userID, careerPathID, version), data, c.ttl).Err(); err != nil {
		slog.Warn("progress cache write failed", "error", err, "user", userID)
	}
}

// InvalidateUser drops every cached summary for a user, across career paths
// and snapshot versions. Called after any progress mutation.
func (c *ProgressCache) InvalidateUser(ctx context.Context, userID string) {
	pattern := fmt.Sprintf("progress:%s:*", userID)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("progress cache invalidation scan failed", "error", err, "user", userID)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("progress cache invalidation delete failed", "error", err, "user", userID)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// HealthCheck verifies Redis connectivity.
func (c *ProgressCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *ProgressCache) Close() error {
	return c.client.Close()
}

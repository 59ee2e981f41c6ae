package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/fxdesk/cnyfix/internal/adapters/config"
	"github.com/fxdesk/cnyfix/pkg/logger"
	"github.com/fxdesk/cnyfix/pkg/models"
)

const snapshotKey = "cnyfix:market_snapshot"

// SnapshotCache is a redis-backed, time-boxed store for the market
// snapshot. The TTL and invalidation are explicit: the calculator
// never knows whether the snapshot it receives is cached or fresh.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates the snapshot cache and verifies the redis connection
func New(cfg *config.CacheConfig) (*SnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	logger.Info("snapshot cache initialized",
		zap.String("address", cfg.Addr()),
		zap.Duration("ttl", cfg.TTL),
	)

	return &SnapshotCache{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached snapshot, or nil on a miss. Redis errors are
// reported as misses: a broken cache must never block a prediction.
func (c *SnapshotCache) Get(ctx context.Context) *models.MarketSnapshot {
	payload, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("snapshot cache read failed", zap.Error(err))
		}
		return nil
	}

	var snapshot models.MarketSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		logger.Warn("cached snapshot is corrupt, dropping it", zap.Error(err))
		_ = c.client.Del(ctx, snapshotKey).Err()
		return nil
	}

	return &snapshot
}

// Put stores a snapshot under the configured TTL
func (c *SnapshotCache) Put(ctx context.Context, snapshot *models.MarketSnapshot) error {
	if snapshot == nil {
		return nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.client.Set(ctx, snapshotKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}

	return nil
}

// Invalidate drops the cached snapshot so the next prediction fetches
// a fresh one
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

// Health checks the cache connection
func (c *SnapshotCache) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

// Close closes the redis connection
func (c *SnapshotCache) Close() error {
	if c.client != nil {
		logger.Info("closing snapshot cache client")
		return c.client.Close()
	}
	return nil
}

package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cleanerScanCount = 100
	staleAfter       = 5 * time.Minute
)

// Cleaner sweeps login attempt windows out of Redis once they go stale. The
// limiter keys carry their own expiry, but a sweep keeps one-off client
// addresses from sitting in Redis for two full windows.
type Cleaner struct {
	client   *redis.Client
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner constructs a Cleaner sweeping at the given interval.
func NewCleaner(client *redis.Client, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		client:   client,
		log:      log,
		interval: interval,
	}
}

// Run sweeps until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.client == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-staleAfter).Unix()
	removed := 0

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", cleanerScanCount).Result()
		if err != nil {
			c.log.Error("rate limit key scan failed", slog.Any("error", err))
			return
		}

		for _, key := range keys {
			if c.sweepKey(ctx, key, cutoff) {
				removed++
			}
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	if removed > 0 {
		c.log.Info("stale rate limit keys removed", slog.Int("keys_removed", removed))
	}
}

// sweepKey trims expired attempts and deletes the key when nothing remains.
// Reports whether the key was deleted.
func (c *Cleaner) sweepKey(ctx context.Context, key string, cutoff int64) bool {
	pipe := c.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff))
	cardCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("rate limit sweep pipeline failed", slog.String("key", key), slog.Any("error", err))
		return false
	}

	count, err := cardCmd.Result()
	if err != nil || count > 0 {
		return false
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("rate limit key delete failed", slog.String("key", key), slog.Any("error", err))
		return false
	}

	return true
}

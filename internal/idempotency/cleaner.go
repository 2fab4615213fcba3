package idempotency

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxRecordAge caps how long any record may outlive the configured TTL. A
// key with no expiry at all means a Set lost its Expire call; both cases
// are swept.
const maxRecordAge = 25 * time.Hour

// Cleaner removes idempotency records whose expiry was lost or set too far
// out, so a redis hiccup between HSet and Expire cannot pin a key forever.
type Cleaner struct {
	client   *redis.Client
	log      *slog.Logger
	interval time.Duration
}

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
	if c == nil || c.client == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, "idempotency:*", 100).Result()
		if err != nil {
			c.log.Error("idempotency cleaner scan failed", slog.Any("error", err))
			return
		}

		for _, key := range keys {
			// Lock keys expire on their own short TTL.
			if strings.HasSuffix(key, ":lock") {
				continue
			}

			ttl, err := c.client.TTL(ctx, key).Result()
			if err != nil {
				c.log.Warn("idempotency ttl read failed", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if ttl >= 0 && ttl <= maxRecordAge {
				continue
			}

			if err := c.client.Del(ctx, key).Err(); err != nil {
				c.log.Warn("stale idempotency key delete failed", slog.String("key", key), slog.Any("error", err))
			}
		}

		if next == 0 {
			break
		}
		cursor = next
	}
}

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

const cacheTTL = 10 * time.Minute

// Cache provides Redis-backed caching for account records keyed by email.
type Cache struct {
	client *redis.Client
}

// NewCache constructs an account cache backed by the provided Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get fetches a cached account if it exists. A miss returns (nil, nil).
func (c *Cache) Get(ctx context.Context, email string) (*domain.Account, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, cacheKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached account: %w", err)
	}

	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decode cached account: %w", err)
	}

	return &account, nil
}

// Set stores the account in cache for the provided TTL.
func (c *Cache) Set(ctx context.Context, account *domain.Account, ttl time.Duration) error {
	if c == nil || c.client == nil || account == nil {
		return nil
	}

	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account for cache: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(account.Email), payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached account: %w", err)
	}

	return nil
}

// Invalidate removes the cached entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, email string) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(email)).Err(); err != nil {
		return fmt.Errorf("delete cached account: %w", err)
	}

	return nil
}

func cacheKey(email string) string {
	return fmt.Sprintf("account:email:%s", email)
}

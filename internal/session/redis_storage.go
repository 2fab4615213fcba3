package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

const sessionKey = "session:current"

// RedisStorage keeps the serialized session under a single Redis key, shared
// by every process of the same origin. No locking: last writer wins.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger) Storage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
	}
}

// Load returns the stored session or ErrNoSession when the key is absent.
func (s *RedisStorage) Load(ctx context.Context) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}

		s.log.Error("failed to get session from redis", "error", err)
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	if sess.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}

	return &sess, nil
}

// Save replaces the session key. The record has no TTL; logout clears it.
func (s *RedisStorage) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey, data, 0).Err(); err != nil {
		s.log.Error("failed to save session in redis", "error", err)
		return err
	}

	return nil
}

// Clear removes the session key.
func (s *RedisStorage) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionKey).Err(); err != nil {
		s.log.Error("failed to clear session", "error", err)
		return err
	}

	return nil
}

// Package idempotency collapses retried write operations onto a single
// execution. An expense double-submit with the same key returns the first
// insert's response instead of creating a second row.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// ErrRequestInProgress reports that another execution holds the key right now.
var ErrRequestInProgress = errors.New("request with this key is already in progress")

const (
	lockTTL       = 5 * time.Minute
	retryInterval = 100 * time.Millisecond
)

// Operation is the unit of work deduplicated under a key. Its result is
// JSON-encoded into the record, so callers decode cached responses back into
// their own types.
type Operation func(ctx context.Context) (interface{}, error)

// Result carries the operation's response and whether it was served from a
// previously completed record.
type Result struct {
	Response  interface{}
	FromCache bool
}

// Manager executes operations at most once per key within the record TTL.
type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager over the given record store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

// Execute runs fn under key. If a completed record exists its response is
// returned instead; if another execution is in flight, ErrRequestInProgress.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	for {
		locked, err := m.store.Lock(ctx, key, lockTTL)
		if err != nil {
			return nil, err
		}

		if locked {
			return m.run(ctx, key, ttl, fn)
		}

		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if record != nil && record.Status == StatusProcessing {
			return nil, ErrRequestInProgress
		}

		if record != nil && record.Status == StatusCompleted {
			return cachedResult(record)
		}

		// The lock holder released without writing a record yet; wait for
		// either the record or the lock to become available.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (m *manager) run(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	defer func() {
		if err := m.store.ReleaseLock(ctx, key); err != nil {
			m.log.Warn("idempotency lock release failed", slog.String("key", key), slog.Any("error", err))
		}
	}()

	response, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}

	record := &Record{
		Status:   StatusCompleted,
		Response: encoded,
	}
	if err := m.store.Set(ctx, key, record, ttl); err != nil {
		return nil, err
	}

	return &Result{Response: response}, nil
}

func cachedResult(record *Record) (*Result, error) {
	var response interface{}
	if len(record.Response) > 0 {
		if err := json.Unmarshal(record.Response, &response); err != nil {
			return nil, err
		}
	}

	return &Result{Response: response, FromCache: true}, nil
}

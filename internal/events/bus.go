// Package events is the change-notification channel: views subscribe to
// row-insert events and refresh their own data on each one, independent of
// session state.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/smartbudget/smartbudget-server/pkg/metrics"
)

const (
	// TopicExpenses carries expense row-insert events.
	TopicExpenses = "events:expenses"
	// TopicGroups carries group create/update events.
	TopicGroups = "events:groups"
	// TopicMarket carries market snapshot refreshes.
	TopicMarket = "events:market"
)

// Event is one change notification as delivered to subscribers.
type Event struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// Bus publishes and subscribes change events over Redis pub/sub.
type Bus struct {
	client *redis.Client
	log    *slog.Logger
}

// NewBus constructs a Bus on the shared Redis client.
func NewBus(client *redis.Client, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}

	return &Bus{client: client, log: log}
}

// Publish emits payload on the topic. Failures are logged, not propagated:
// a missed refresh hint must never fail the write that triggered it.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	event := Event{Topic: topic, At: time.Now().UTC()}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			b.log.Error("failed to encode change event", slog.String("topic", topic), slog.Any("error", err))
			return
		}
		event.Payload = data
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.log.Error("failed to encode change event envelope", slog.String("topic", topic), slog.Any("error", err))
		return
	}

	if err := b.client.Publish(ctx, topic, data).Err(); err != nil {
		b.log.Error("failed to publish change event", slog.String("topic", topic), slog.Any("error", err))
		return
	}

	metrics.RecordChangeEvent(topic)
}

// Subscribe delivers events for the topics until ctx is done. The returned
// cancel func closes the subscription and the channel.
func (b *Bus) Subscribe(ctx context.Context, topics ...string) (<-chan Event, func()) {
	pubsub := b.client.Subscribe(ctx, topics...)
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.Warn("dropping undecodable change event", slog.String("channel", msg.Channel), slog.Any("error", err))
					continue
				}

				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cancel := func() {
		_ = pubsub.Close()
	}

	return out, cancel
}

// Package notify implements the transient notification emitter: short-lived
// status messages fanned out to subscribers, never persisted.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	"github.com/smartbudget/smartbudget-server/pkg/metrics"
)

const (
	defaultTTL        = 4 * time.Second
	defaultBufferSize = 16
)

// Handle identifies an emitted notification so a loading notification can be
// resolved by a later call.
type Handle string

// Emitter presents fire-and-forget status messages in insertion order.
type Emitter struct {
	mu          sync.Mutex
	active      []domain.Notification
	subscribers map[int]chan domain.Notification
	nextSubID   int
	ttl         time.Duration
	bufferSize  int
	log         *slog.Logger
	now         func() time.Time
}

// NewEmitter constructs an Emitter. Zero ttl or bufferSize use defaults.
func NewEmitter(log *slog.Logger, ttl time.Duration, bufferSize int) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Emitter{
		subscribers: make(map[int]chan domain.Notification),
		ttl:         ttl,
		bufferSize:  bufferSize,
		log:         log,
		now:         time.Now,
	}
}

// Notify emits a message of the given kind and returns its handle.
func (e *Emitter) Notify(kind domain.NotificationKind, message string) Handle {
	return e.emit(domain.Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
	})
}

// Loading emits a dismissible loading notification. It stays visible until
// resolved or dismissed; regular kinds expire after the configured TTL.
func (e *Emitter) Loading(message string) Handle {
	return e.emit(domain.Notification{
		ID:      uuid.NewString(),
		Kind:    domain.NotificationLoading,
		Message: message,
		Icon:    "spinner",
	})
}

// Resolve replaces the loading notification identified by h with a terminal
// kind, modeling "start async operation, then success or error".
func (e *Emitter) Resolve(h Handle, kind domain.NotificationKind, message string) {
	e.Dismiss(h)
	e.emit(domain.Notification{
		ID:      string(h),
		Kind:    kind,
		Message: message,
	})
}

// Dismiss removes a notification before its TTL elapses. Unknown handles are no-ops.
func (e *Emitter) Dismiss(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, n := range e.active {
		if n.ID == string(h) {
			e.active = append(e.active[:i], e.active[i+1:]...)
			return
		}
	}
}

// Active returns the currently visible notifications in insertion order.
func (e *Emitter) Active() []domain.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pruneLocked()

	out := make([]domain.Notification, len(e.active))
	copy(out, e.active)
	return out
}

// Subscribe registers a listener for future notifications. The returned
// cancel func must be called to release the subscription.
func (e *Emitter) Subscribe() (<-chan domain.Notification, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++

	ch := make(chan domain.Notification, e.bufferSize)
	e.subscribers[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if sub, ok := e.subscribers[id]; ok {
			delete(e.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Run prunes expired notifications until the context is cancelled.
func (e *Emitter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("notification emitter stopped")
			return
		case <-ticker.C:
			e.mu.Lock()
			e.pruneLocked()
			e.mu.Unlock()
		}
	}
}

func (e *Emitter) emit(n domain.Notification) Handle {
	n.CreatedAt = e.now()
	n.Duration = e.ttl

	e.mu.Lock()
	e.pruneLocked()
	e.active = append(e.active, n)

	for _, sub := range e.subscribers {
		select {
		case sub <- n:
		default:
			// slow subscriber, drop rather than block the emitter
		}
	}
	e.mu.Unlock()

	metrics.RecordNotification(string(n.Kind))
	e.log.Debug("notification emitted",
		slog.String("kind", string(n.Kind)),
		slog.String("id", n.ID),
	)

	return Handle(n.ID)
}

// pruneLocked drops expired entries. Loading notifications never expire here;
// they are removed by Resolve or Dismiss.
func (e *Emitter) pruneLocked() {
	cutoff := e.now().Add(-e.ttl)

	kept := e.active[:0]
	for _, n := range e.active {
		if n.Kind == domain.NotificationLoading || n.CreatedAt.After(cutoff) {
			kept = append(kept, n)
		}
	}
	e.active = kept
}

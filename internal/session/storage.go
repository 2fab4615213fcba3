// Package session owns the authenticated-session lifecycle: restore on
// startup, login, signup, logout, and the durable slot the session round-trips
// through across process restarts.
package session

import (
	"context"
	"errors"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

// ErrNoSession indicates the durable slot holds no session record.
var ErrNoSession = errors.New("no session record")

// ErrMalformedRecord indicates the durable slot holds bytes that do not decode
// into a session. Callers treat this as anonymous and clear the slot.
var ErrMalformedRecord = errors.New("malformed session record")

// Storage is the durable slot holding the single serialized session record.
// The slot is shared across processes of the same origin; writes are
// last-writer-wins by design (single user, single device).
type Storage interface {
	// Load returns the stored session, ErrNoSession when the slot is empty,
	// or ErrMalformedRecord when the slot cannot be decoded.
	Load(ctx context.Context) (*domain.Session, error)
	// Save replaces the slot contents with the provided session.
	Save(ctx context.Context, s *domain.Session) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}

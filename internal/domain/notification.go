package domain

import "time"

// NotificationKind categorizes transient user-facing status messages.
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
	NotificationLoading NotificationKind = "loading"
)

// Notification is a fire-and-forget status message. It is never persisted.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Icon      string           `json:"icon,omitempty"`
	Duration  time.Duration    `json:"duration"`
	CreatedAt time.Time        `json:"created_at"`
}

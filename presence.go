package crmauth

import (
	"context"
	"time"
)

// PresenceEventType enumerates supported presence broadcasts.
type PresenceEventType string

const (
	PresenceEventLogin         PresenceEventType = "user.login"
	PresenceEventLogout        PresenceEventType = "user.logout"
	PresenceEventStatusChanged PresenceEventType = "user.status.changed"
)

// PresenceEvent tells subscribers that a user's login/logout state changed.
type PresenceEvent struct {
	EventType  PresenceEventType
	UserID     string
	Email      string
	FromStatus UserStatus
	ToStatus   UserStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// PresenceNotifier is the one-way channel presence events are published to.
// Publishes are fire-and-forget; the core never reads responses from it.
type PresenceNotifier interface {
	Publish(ctx context.Context, event PresenceEvent) error
}

// PresenceNotifierFunc adapts a function to the PresenceNotifier interface.
type PresenceNotifierFunc func(ctx context.Context, event PresenceEvent) error

// Publish implements PresenceNotifier.
func (f PresenceNotifierFunc) Publish(ctx context.Context, event PresenceEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopPresenceNotifier struct{}

func (noopPresenceNotifier) Publish(context.Context, PresenceEvent) error {
	return nil
}

func normalizePresenceNotifier(n PresenceNotifier) PresenceNotifier {
	if n == nil {
		return noopPresenceNotifier{}
	}
	return n
}

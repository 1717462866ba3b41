package ports

import (
	"context"
	"time"
)

// SessionEventType names a session lifecycle transition.
type SessionEventType string

const (
	EventLogin       SessionEventType = "session.login"
	EventLoginFailed SessionEventType = "session.login_failed"
	EventLogout      SessionEventType = "session.logout"
	EventExpired     SessionEventType = "session.expired"
	EventRestored    SessionEventType = "session.restored"
)

// SessionEvent is an audit record of a session transition.
type SessionEvent struct {
	Type       SessionEventType `json:"type"`
	IdentityID int64            `json:"identity_id,omitempty"`
	Username   string           `json:"username,omitempty"`
	At         time.Time        `json:"at"`
}

// SessionEventPublisher ships session events somewhere durable. Publishing is
// best-effort; callers log and continue on error.
type SessionEventPublisher interface {
	Publish(ctx context.Context, event SessionEvent) error
}

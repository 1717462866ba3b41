package domain

import "time"

// DefaultSessionDuration is the fixed login window. It is measured from login,
// not from last activity.
const DefaultSessionDuration = 30 * time.Minute

// SessionRecord is the persisted {identity, login time} pair.
type SessionRecord struct {
	Identity  Identity
	LoginTime time.Time
}

// ExpiresAt returns the instant the record stops being valid.
func (r SessionRecord) ExpiresAt(duration time.Duration) time.Time {
	return r.LoginTime.Add(duration)
}

// ValidAt reports whether now - LoginTime < duration.
func (r SessionRecord) ValidAt(now time.Time, duration time.Duration) bool {
	return now.Sub(r.LoginTime) < duration
}

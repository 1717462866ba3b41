package ports

import (
	"context"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

// SessionStore persists the single session record across restarts.
type SessionStore interface {
	// Save overwrites any prior record. Failures wrap domain.ErrPersistence.
	Save(ctx context.Context, rec domain.SessionRecord) error
	// Load reports false for absent, "undefined", or malformed data. It never
	// returns an error; malformed data is removed.
	Load(ctx context.Context) (domain.SessionRecord, bool)
	// Clear removes the record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
	// Ping checks the backing storage for readiness probes.
	Ping(ctx context.Context) error
}

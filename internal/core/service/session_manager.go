package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
	"github.com/caparizon/qa-dashboard/internal/pkg/metrics"
	"github.com/caparizon/qa-dashboard/internal/pkg/schema"
)

const defaultCheckInterval = time.Minute

// Reasons a session ends, used for metrics and events.
const (
	endLogout      = "logout"
	endExpired     = "expired"
	endLoginFailed = "login_failed"
	endInvalid     = "invalid"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SessionOptions tunes a SessionManager. Zero values take the defaults.
type SessionOptions struct {
	Duration      time.Duration
	CheckInterval time.Duration
	Clock         ports.Clock
	Events        ports.SessionEventPublisher
}

// SessionManager holds the single logged-in identity of the dashboard, its
// privilege set, and the login time the expiry window is measured from.
//
// Writers (login, logout, restore, expiry, identity update) are serialized by
// writeMu so store I/O and state changes happen in one order. mu guards the
// in-memory fields and is never held across a network call.
type SessionManager struct {
	store    ports.SessionStore
	backend  ports.AuthBackend
	resolver *PrivilegeResolver
	events   ports.SessionEventPublisher
	clock    ports.Clock
	duration time.Duration
	interval time.Duration
	log      zerolog.Logger

	writeMu sync.Mutex

	mu         sync.RWMutex
	identity   *domain.Identity
	privileges domain.PrivilegeSet
	loginTime  time.Time
	generation uint64
}

func NewSessionManager(
	store ports.SessionStore,
	backend ports.AuthBackend,
	log zerolog.Logger,
	opts SessionOptions,
) *SessionManager {
	if opts.Duration <= 0 {
		opts.Duration = domain.DefaultSessionDuration
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = defaultCheckInterval
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &SessionManager{
		store:      store,
		backend:    backend,
		resolver:   NewPrivilegeResolver(backend, log),
		events:     opts.Events,
		clock:      opts.Clock,
		duration:   opts.Duration,
		interval:   opts.CheckInterval,
		log:        log,
		privileges: domain.PrivilegeSet{},
	}
}

// Duration returns the length of the login window.
func (m *SessionManager) Duration() time.Duration {
	return m.duration
}

// Login authenticates against the backend and, on success, persists the
// session and loads the identity's privileges. It reports success only;
// failures are logged and leave the manager logged out with an empty store.
func (m *SessionManager) Login(ctx context.Context, username, password string) bool {
	identity, err := m.backend.Login(ctx, username, password)
	if err != nil {
		result := loginFailureResult(err)
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		m.log.Warn().Err(err).Str("username", username).Str("result", result).Msg("login failed")
		m.failLogin(ctx, username)
		return false
	}

	m.writeMu.Lock()
	now := m.clock.Now()
	if err := m.store.Save(ctx, domain.SessionRecord{Identity: identity, LoginTime: now}); err != nil {
		m.writeMu.Unlock()
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		m.log.Error().Err(err).Str("username", username).Msg("login succeeded but session could not be persisted")
		m.failLogin(ctx, username)
		return false
	}
	gen := m.begin(identity, now)
	m.writeMu.Unlock()

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	m.log.Info().Int64("identity_id", identity.ID).Str("username", identity.Username).Msg("logged in")
	m.publish(ctx, ports.EventLogin, &identity)

	m.loadPrivileges(ctx, gen, identity.ID)
	return true
}

func (m *SessionManager) failLogin(ctx context.Context, username string) {
	m.writeMu.Lock()
	prev := m.end()
	m.clearStore(ctx)
	m.writeMu.Unlock()

	if prev != nil {
		metrics.SessionsEndedTotal.WithLabelValues(endLoginFailed).Inc()
	}
	m.publish(ctx, ports.EventLoginFailed, &domain.Identity{Username: username})
}

func loginFailureResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "rejected"
	case errors.Is(err, domain.ErrDeserialization):
		return "malformed"
	default:
		return "error"
	}
}

// Logout clears identity, privileges, and the stored record. Calling it while
// logged out is a no-op apart from clearing the store again.
func (m *SessionManager) Logout(ctx context.Context) {
	m.endSession(ctx, endLogout, ports.EventLogout)
}

func (m *SessionManager) endSession(ctx context.Context, reason string, event ports.SessionEventType) {
	m.writeMu.Lock()
	prev := m.end()
	m.clearStore(ctx)
	m.writeMu.Unlock()

	if prev == nil {
		return
	}
	metrics.SessionsEndedTotal.WithLabelValues(reason).Inc()
	m.log.Info().Int64("identity_id", prev.ID).Str("reason", reason).Msg("session ended")
	m.publish(ctx, event, prev)
}

// Restore rebuilds the session from the store at startup. A missing,
// malformed, or expired record leaves the manager logged out and the store
// empty. Privileges are always fetched fresh.
func (m *SessionManager) Restore(ctx context.Context) bool {
	m.writeMu.Lock()
	rec, ok := m.store.Load(ctx)
	if !ok {
		prev := m.end()
		m.clearStore(ctx)
		m.writeMu.Unlock()
		if prev != nil {
			metrics.SessionsEndedTotal.WithLabelValues(endInvalid).Inc()
		}
		m.log.Debug().Msg("no session to restore")
		return false
	}
	if !rec.ValidAt(m.clock.Now(), m.duration) {
		m.end()
		m.clearStore(ctx)
		m.writeMu.Unlock()
		metrics.SessionsEndedTotal.WithLabelValues(endExpired).Inc()
		m.log.Info().
			Int64("identity_id", rec.Identity.ID).
			Time("login_time", rec.LoginTime).
			Msg("stored session expired, logging out")
		m.publish(ctx, ports.EventExpired, &rec.Identity)
		return false
	}
	gen := m.begin(rec.Identity, rec.LoginTime)
	m.writeMu.Unlock()

	m.log.Info().Int64("identity_id", rec.Identity.ID).Msg("session restored")
	m.publish(ctx, ports.EventRestored, &rec.Identity)

	m.loadPrivileges(ctx, gen, rec.Identity.ID)
	return true
}

// CheckExpiry logs the session out once the login window has elapsed. It
// reports whether it did so.
func (m *SessionManager) CheckExpiry(ctx context.Context) bool {
	m.writeMu.Lock()
	m.mu.RLock()
	expired := m.identity != nil && m.clock.Now().Sub(m.loginTime) >= m.duration
	m.mu.RUnlock()
	if !expired {
		m.writeMu.Unlock()
		return false
	}
	prev := m.end()
	m.clearStore(ctx)
	m.writeMu.Unlock()

	metrics.SessionsEndedTotal.WithLabelValues(endExpired).Inc()
	m.log.Info().Int64("identity_id", prev.ID).Msg("session expired")
	m.publish(ctx, ports.EventExpired, prev)
	return true
}

// Run checks expiry on every tick until ctx is cancelled.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Debug().Dur("interval", m.interval).Msg("session expiry loop started")
	for {
		select {
		case <-ctx.Done():
			m.log.Debug().Msg("session expiry loop stopped")
			return
		case <-ticker.C:
			m.CheckExpiry(ctx)
		}
	}
}

// HasAccess reports whether the current session may open path.
func (m *SessionManager) HasAccess(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Allowed(m.identity, m.privileges, path)
}

// Snapshot returns a copy of the current state.
func (m *SessionManager) Snapshot() ports.SessionSnapshot {
	snap, _ := m.snapshot()
	return snap
}

func (m *SessionManager) snapshot() (ports.SessionSnapshot, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return ports.SessionSnapshot{Privileges: domain.PrivilegeSet{}}, m.generation
	}
	identity := *m.identity
	return ports.SessionSnapshot{
		Identity:   &identity,
		Privileges: m.privileges.Clone(),
		LoginTime:  m.loginTime,
		ExpiresAt:  m.loginTime.Add(m.duration),
	}, m.generation
}

// UpdateIdentity sends profile changes to the backend and, once the backend
// accepts them, persists and adopts the returned identity. Role and id never
// change here. On any error the current identity is kept.
func (m *SessionManager) UpdateIdentity(ctx context.Context, patch domain.IdentityPatch) (domain.Identity, error) {
	snap, gen := m.snapshot()
	if !snap.LoggedIn() {
		return domain.Identity{}, domain.ErrNotLoggedIn
	}
	patch.Username = strings.TrimSpace(patch.Username)
	patch.Email = strings.TrimSpace(patch.Email)
	if err := schema.Patch(patch); err != nil {
		return domain.Identity{}, err
	}

	updated, err := m.backend.UpdateIdentity(ctx, snap.Identity.ID, patch)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("update identity: %w", err)
	}
	if updated.ID != snap.Identity.ID || updated.Role != snap.Identity.Role {
		return domain.Identity{}, fmt.Errorf("update identity: %w: backend changed id or role", domain.ErrDeserialization)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	current := m.generation
	m.mu.RUnlock()
	if current != gen {
		return domain.Identity{}, domain.ErrNotLoggedIn
	}
	if err := m.store.Save(ctx, domain.SessionRecord{Identity: updated, LoginTime: snap.LoginTime}); err != nil {
		return domain.Identity{}, fmt.Errorf("update identity: %w", err)
	}

	m.mu.Lock()
	m.identity = &updated
	m.mu.Unlock()

	m.log.Info().Int64("identity_id", updated.ID).Msg("identity updated")
	return updated, nil
}

// RequestPasswordReset relays a forgot-password request to the backend.
func (m *SessionManager) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", &domain.ValidationError{Message: "username is required"}
	}
	msg, err := m.backend.RequestPasswordReset(ctx, username)
	if err != nil {
		return "", fmt.Errorf("password reset: %w", err)
	}
	return msg, nil
}

// begin installs a new session and returns its generation. Callers hold
// writeMu.
func (m *SessionManager) begin(identity domain.Identity, loginTime time.Time) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.identity = &identity
	m.privileges = domain.PrivilegeSet{}
	m.loginTime = loginTime
	metrics.SessionActive.Set(1)
	return m.generation
}

// end drops the in-memory session and returns the identity that was logged
// in, if any. Callers hold writeMu.
func (m *SessionManager) end() *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.identity
	m.generation++
	m.identity = nil
	m.privileges = domain.PrivilegeSet{}
	m.loginTime = time.Time{}
	metrics.SessionActive.Set(0)
	return prev
}

func (m *SessionManager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear stored session")
	}
}

// loadPrivileges fetches privileges for the session of generation gen and
// installs them unless that session has since ended or been replaced.
func (m *SessionManager) loadPrivileges(ctx context.Context, gen uint64, identityID int64) {
	set := m.resolver.Fetch(ctx, identityID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.identity == nil {
		metrics.StalePrivilegeResponsesTotal.Inc()
		m.log.Debug().Int64("identity_id", identityID).Msg("discarding stale privilege response")
		return
	}
	m.privileges = set
}

func (m *SessionManager) publish(ctx context.Context, typ ports.SessionEventType, identity *domain.Identity) {
	if m.events == nil {
		return
	}
	ev := ports.SessionEvent{Type: typ, At: m.clock.Now().UTC()}
	if identity != nil {
		ev.IdentityID = identity.ID
		ev.Username = identity.Username
	}
	if err := m.events.Publish(ctx, ev); err != nil {
		m.log.Warn().Err(err).Str("event", string(typ)).Msg("failed to publish session event")
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Clock
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Session store
// ---------------------------------------------------------------------------

type stubStore struct {
	mu      sync.Mutex
	rec     *domain.SessionRecord
	saveErr error
	saves   int
	clears  int
}

func (s *stubStore) Save(_ context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.rec = &rec
	return nil
}

func (s *stubStore) Load(_ context.Context) (domain.SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return domain.SessionRecord{}, false
	}
	return *s.rec, true
}

func (s *stubStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.rec = nil
	return nil
}

func (s *stubStore) Ping(_ context.Context) error { return nil }

func (s *stubStore) stored() *domain.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// ---------------------------------------------------------------------------
// Backend
// ---------------------------------------------------------------------------

type stubBackend struct {
	mu sync.Mutex

	users      map[string]domain.Identity // username -> identity, password "pw"
	loginErr   error
	privileges map[int64]domain.PrivilegeSet
	privErr    error

	// When set, FetchPrivileges signals fetchStarted and waits for release.
	fetchStarted chan struct{}
	release      chan struct{}

	updateFn    func(id int64, p domain.IdentityPatch) (domain.Identity, error)
	updateCalls int

	resetMsg  string
	resetErr  error
	listed    []domain.Identity
	listErr   error
	created   []domain.NewUser
	createErr error
	grants    map[int64][]ports.PrivilegeGrant
	setErr    error
	deleted   []int64
	deleteErr error
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		users: map[string]domain.Identity{
			"alice": {ID: 1, Username: "alice", Role: domain.RoleAdmin},
			"bob":   {ID: 2, Username: "bob", Role: domain.RoleUser},
		},
		privileges: map[int64]domain.PrivilegeSet{},
		grants:     map[int64][]ports.PrivilegeGrant{},
	}
}

func (b *stubBackend) Login(_ context.Context, username, password string) (domain.Identity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loginErr != nil {
		return domain.Identity{}, b.loginErr
	}
	id, ok := b.users[username]
	if !ok || password != "pw" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return id, nil
}

func (b *stubBackend) FetchPrivileges(ctx context.Context, id int64) (domain.PrivilegeSet, error) {
	if b.fetchStarted != nil {
		b.fetchStarted <- struct{}{}
		select {
		case <-b.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.privErr != nil {
		return nil, b.privErr
	}
	return b.privileges[id].Clone(), nil
}

func (b *stubBackend) UpdateIdentity(_ context.Context, id int64, p domain.IdentityPatch) (domain.Identity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateCalls++
	if b.updateFn == nil {
		return domain.Identity{}, errors.New("update not stubbed")
	}
	return b.updateFn(id, p)
}

func (b *stubBackend) RequestPasswordReset(_ context.Context, _ string) (string, error) {
	return b.resetMsg, b.resetErr
}

func (b *stubBackend) ListUsers(_ context.Context) ([]domain.Identity, error) {
	return b.listed, b.listErr
}

func (b *stubBackend) CreateUser(_ context.Context, u domain.NewUser) (domain.Identity, error) {
	if b.createErr != nil {
		return domain.Identity{}, b.createErr
	}
	b.created = append(b.created, u)
	return domain.Identity{
		ID:         int64(10 + len(b.created)),
		Username:   u.Username,
		Email:      u.Email,
		Role:       domain.RoleUser,
		EmployeeID: u.EmployeeID,
	}, nil
}

func (b *stubBackend) SetPrivileges(_ context.Context, id int64, grants []ports.PrivilegeGrant) error {
	if b.setErr != nil {
		return b.setErr
	}
	b.grants[id] = grants
	return nil
}

func (b *stubBackend) DeleteUser(_ context.Context, id int64) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, id)
	return nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev ports.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []ports.SessionEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.SessionEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
	"github.com/caparizon/qa-dashboard/internal/core/service"
	"github.com/caparizon/qa-dashboard/internal/infrastructure/backend"
)

type fakeSessions struct {
	snap ports.SessionSnapshot
}

func (f *fakeSessions) Login(context.Context, string, string) bool { return false }
func (f *fakeSessions) Logout(context.Context)                     { f.snap = ports.SessionSnapshot{} }
func (f *fakeSessions) Snapshot() ports.SessionSnapshot            { return f.snap }
func (f *fakeSessions) HasAccess(path string) bool {
	return service.Allowed(f.snap.Identity, f.snap.Privileges, path)
}

func (f *fakeSessions) UpdateIdentity(context.Context, domain.IdentityPatch) (domain.Identity, error) {
	return domain.Identity{}, domain.ErrNotLoggedIn
}

func (f *fakeSessions) RequestPasswordReset(context.Context, string) (string, error) {
	return "", nil
}

type fakeUsers struct{}

func (fakeUsers) ListUsers(context.Context) ([]domain.ManagedUser, error) {
	return []domain.ManagedUser{}, nil
}
func (fakeUsers) CreateUser(context.Context, domain.NewUser) (domain.Identity, error) {
	return domain.Identity{}, nil
}
func (fakeUsers) SetTabs(context.Context, int64, []string) error { return nil }
func (fakeUsers) DeleteUser(context.Context, int64) error        { return nil }

func newTestRouter(sessions *fakeSessions) *echo.Echo {
	return NewRouter(Dependencies{
		Sessions: sessions,
		Users:    fakeUsers{},
		Metrics:  prometheus.NewRegistry(),
		Log:      zerolog.Nop(),
	})
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_GuardsTabs(t *testing.T) {
	sessions := &fakeSessions{}
	e := newTestRouter(sessions)

	rec := serve(e, http.MethodGet, "/task-manager")
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("logged out: expected 302 /login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	sessions.snap = ports.SessionSnapshot{
		Identity:   &domain.Identity{ID: 2, Username: "bob", Role: domain.RoleUser},
		Privileges: domain.PrivilegeSet{"/task-manager": true},
	}
	if rec := serve(e, http.MethodGet, "/task-manager"); rec.Code != http.StatusOK {
		t.Fatalf("granted tab: expected 200, got %d", rec.Code)
	}
	rec = serve(e, http.MethodGet, "/settings")
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Fatalf("denied tab: expected 302 /, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if rec := serve(e, http.MethodGet, "/"); rec.Code != http.StatusOK {
		t.Fatalf("root: expected 200, got %d", rec.Code)
	}
}

func TestRouter_AdminAPI(t *testing.T) {
	sessions := &fakeSessions{}
	e := newTestRouter(sessions)

	if rec := serve(e, http.MethodGet, "/api/admin/users"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("logged out: expected 401, got %d", rec.Code)
	}

	// A user granted the tab still lacks the Admin role.
	sessions.snap = ports.SessionSnapshot{
		Identity:   &domain.Identity{ID: 2, Username: "bob", Role: domain.RoleUser},
		Privileges: domain.PrivilegeSet{"/user-manager": true},
	}
	if rec := serve(e, http.MethodGet, "/api/admin/users"); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", rec.Code)
	}

	sessions.snap = ports.SessionSnapshot{
		Identity: &domain.Identity{ID: 1, Username: "alice", Role: domain.RoleAdmin},
	}
	if rec := serve(e, http.MethodGet, "/api/admin/users"); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
}

func TestRouter_SessionErrorsUseEnvelope(t *testing.T) {
	e := newTestRouter(&fakeSessions{})

	rec := serve(e, http.MethodGet, "/api/session")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"not logged in"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"username":"bob","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "invalid username or password") {
		t.Fatalf("expected generic 401, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	e := newTestRouter(&fakeSessions{})

	for _, path := range []string{"/health", "/health/ready", "/metrics", "/login"} {
		if rec := serve(e, http.MethodGet, path); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_AdminCreateUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/users" {
			t.Fatalf("unexpected backend request: %s %s", r.Method, r.URL.Path)
		}
		if strings.Contains(readBody(t, r), `"employee_id":"1001"`) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Employee ID already exists"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":12,"username":"dave","email":"","role":"User","designation":"","employee_id":"1042"}`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second, zerolog.Nop())
	sessions := &fakeSessions{snap: ports.SessionSnapshot{
		Identity: &domain.Identity{ID: 1, Username: "alice", Role: domain.RoleAdmin},
	}}
	e := NewRouter(Dependencies{
		Sessions: sessions,
		Users:    service.NewUserAdminService(client, client, sessions, zerolog.Nop()),
		Metrics:  prometheus.NewRegistry(),
		Log:      zerolog.Nop(),
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/users", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"username":"dave","password":"pw","employee_id":"1042"}`)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"id":12`) {
		t.Fatalf("expected 201 with identity, got %d %s", rec.Code, rec.Body.String())
	}

	rec = post(`{"username":"erin","password":"pw","employee_id":"1001"}`)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Employee ID already exists") {
		t.Fatalf("expected 422 with backend message, got %d %s", rec.Code, rec.Body.String())
	}

	sessions.snap = ports.SessionSnapshot{}
	if rec := post(`{"username":"dave","password":"pw","employee_id":"1042"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("logged out: expected 401, got %d", rec.Code)
	}
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

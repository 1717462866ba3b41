package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

func TestViewHandler_Login(t *testing.T) {
	e := newEcho()
	h := NewViewHandler(&stubSessionService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/login", nil), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.View != "Login" || resp.User != nil || len(resp.Tabs) != 0 {
		t.Fatalf("unexpected view: %+v", resp)
	}
}

func TestViewHandler_Login_AlreadyLoggedIn(t *testing.T) {
	e := newEcho()
	h := NewViewHandler(&stubSessionService{
		snap: loggedInAs(domain.Identity{ID: 2, Username: "bob", Role: domain.RoleUser}, nil),
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/login", nil), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Fatalf("expected redirect home, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestViewHandler_Tab(t *testing.T) {
	e := newEcho()
	h := NewViewHandler(&stubSessionService{
		snap: loggedInAs(domain.Identity{ID: 1, Username: "alice", Role: domain.RoleAdmin}, nil),
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/settings", nil), rec)
	if err := h.Tab(domain.Tab{Name: "Settings", Path: "/settings"})(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.View != "Settings" || resp.User == nil || resp.User.Username != "alice" {
		t.Fatalf("unexpected view: %+v", resp)
	}
	if len(resp.Tabs) != len(domain.Tabs) {
		t.Fatalf("admin should see every tab, got %d", len(resp.Tabs))
	}
}

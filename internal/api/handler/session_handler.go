package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

// SessionHandler serves the login, logout, and profile endpoints.
type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
}

type sessionResponse struct {
	User       domain.Identity     `json:"user"`
	Privileges domain.PrivilegeSet `json:"privileges"`
	LoginTime  time.Time           `json:"login_time"`
	ExpiresAt  time.Time           `json:"expires_at"`
}

type identityResponse struct {
	User domain.Identity `json:"user"`
}

type accessResponse struct {
	Path    string `json:"path"`
	Allowed bool   `json:"allowed"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toSessionResponse(s ports.SessionSnapshot) sessionResponse {
	return sessionResponse{
		User:       *s.Identity,
		Privileges: s.Privileges,
		LoginTime:  s.LoginTime.UTC(),
		ExpiresAt:  s.ExpiresAt.UTC(),
	}
}

// Login starts a session.
//
// @Summary      Log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/session [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := c.Validate(&req); err != nil {
		return err
	}

	if !h.sessions.Login(c.Request().Context(), req.Username, req.Password) {
		return domain.ErrInvalidCredentials
	}

	snap := h.sessions.Snapshot()
	if !snap.LoggedIn() {
		return domain.ErrNotLoggedIn
	}
	return c.JSON(http.StatusOK, toSessionResponse(snap))
}

// Logout ends the session. It succeeds whether or not anyone is logged in.
//
// @Summary      Log out
// @Tags         session
// @Success      204
// @Router       /api/session [delete]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Current returns the logged-in identity and its privileges.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	snap := h.sessions.Snapshot()
	if !snap.LoggedIn() {
		return domain.ErrNotLoggedIn
	}
	return c.JSON(http.StatusOK, toSessionResponse(snap))
}

// UpdateIdentity changes the username, email, or designation of the
// logged-in identity.
//
// @Summary      Update profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      domain.IdentityPatch  true  "Profile fields"
// @Success      200   {object}  identityResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/session/identity [put]
func (h *SessionHandler) UpdateIdentity(c echo.Context) error {
	var patch domain.IdentityPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	updated, err := h.sessions.UpdateIdentity(c.Request().Context(), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identityResponse{User: updated})
}

// Access reports whether the current session may open a path.
//
// @Summary      Check access
// @Tags         session
// @Produce      json
// @Param        path  query     string  true  "Dashboard path"
// @Success      200   {object}  accessResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/session/access [get]
func (h *SessionHandler) Access(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path is required"})
	}
	return c.JSON(http.StatusOK, accessResponse{Path: path, Allowed: h.sessions.HasAccess(path)})
}

// Tabs lists the navigation tabs the current session may open.
//
// @Summary      Visible tabs
// @Tags         session
// @Produce      json
// @Success      200  {array}   domain.Tab
// @Failure      401  {object}  map[string]string
// @Router       /api/session/tabs [get]
func (h *SessionHandler) Tabs(c echo.Context) error {
	if !h.sessions.Snapshot().LoggedIn() {
		return domain.ErrNotLoggedIn
	}
	return c.JSON(http.StatusOK, visibleTabs(h.sessions))
}

// ForgotPassword asks the backend to start a password reset.
//
// @Summary      Forgot password
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Username"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/password/forgot [post]
func (h *SessionHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	msg, err := h.sessions.RequestPasswordReset(c.Request().Context(), req.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

type accessChecker interface {
	HasAccess(path string) bool
}

func visibleTabs(sessions accessChecker) []domain.Tab {
	tabs := make([]domain.Tab, 0, len(domain.Tabs))
	for _, t := range domain.Tabs {
		if sessions.HasAccess(t.Path) {
			tabs = append(tabs, t)
		}
	}
	return tabs
}

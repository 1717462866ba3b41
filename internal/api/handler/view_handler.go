package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

// ViewHandler renders view descriptors for the dashboard shell. Tab views
// are mounted behind the route guard, so reaching one implies access.
type ViewHandler struct {
	sessions ports.SessionService
}

func NewViewHandler(sessions ports.SessionService) *ViewHandler {
	return &ViewHandler{sessions: sessions}
}

type viewResponse struct {
	View string           `json:"view"`
	Path string           `json:"path"`
	User *domain.Identity `json:"user,omitempty"`
	Tabs []domain.Tab     `json:"tabs"`
}

// Login describes the login view. A logged-in session is sent home.
//
// @Summary      Login view
// @Tags         views
// @Produce      json
// @Success      200  {object}  viewResponse
// @Success      302
// @Router       /login [get]
func (h *ViewHandler) Login(c echo.Context) error {
	if h.sessions.Snapshot().LoggedIn() {
		return c.Redirect(http.StatusFound, domain.RootPath)
	}
	return c.JSON(http.StatusOK, viewResponse{View: "Login", Path: "/login", Tabs: []domain.Tab{}})
}

// Tab returns the handler for one dashboard tab.
func (h *ViewHandler) Tab(tab domain.Tab) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := h.sessions.Snapshot()
		return c.JSON(http.StatusOK, viewResponse{
			View: tab.Name,
			Path: tab.Path,
			User: snap.Identity,
			Tabs: visibleTabs(h.sessions),
		})
	}
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

// AdminHandler serves the user-manager endpoints.
type AdminHandler struct {
	users ports.UserAdminService
}

func NewAdminHandler(users ports.UserAdminService) *AdminHandler {
	return &AdminHandler{users: users}
}

type setPrivilegesRequest struct {
	Tabs []string `json:"tabs" validate:"required"`
}

// ListUsers returns every user with their granted tabs.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.ManagedUser
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser adds an account. The new user has the User role and no tabs.
//
// @Summary      Create user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      domain.NewUser  true  "New user"
// @Success      201   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req domain.NewUser
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := c.Validate(&req); err != nil {
		return err
	}

	created, err := h.users.CreateUser(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// SetPrivileges replaces the assignable tabs of a user.
//
// @Summary      Set user privileges
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true  "User id"
// @Param        body  body      setPrivilegesRequest  true  "Granted tabs"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/admin/users/{id}/privileges [put]
func (h *AdminHandler) SetPrivileges(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req setPrivilegesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.users.SetTabs(c.Request().Context(), id, req.Tabs); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUser removes a user.
//
// @Summary      Delete user
// @Tags         admin
// @Param        id   path      int  true  "User id"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func userID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

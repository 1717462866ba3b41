package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

// RBAC enforces role-based access control on the logged-in identity.
func RBAC(sessions SessionSource, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := sessions.Snapshot()
			if !snap.LoggedIn() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not logged in"})
			}
			if _, ok := allowed[snap.Identity.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

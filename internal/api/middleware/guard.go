package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
	"github.com/caparizon/qa-dashboard/internal/core/service"
	"github.com/caparizon/qa-dashboard/internal/pkg/metrics"
)

// LoginPath is where unauthenticated views are sent.
const LoginPath = "/login"

// SessionSource yields the current session state.
type SessionSource interface {
	Snapshot() ports.SessionSnapshot
}

// RouteGuard protects the view mounted at path. Logged-out requests are
// redirected to the login view and requests without access to the home view.
func RouteGuard(sessions SessionSource, path string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := service.Guard(sessions.Snapshot(), path)
			metrics.GuardDecisionsTotal.WithLabelValues(path, decision.String()).Inc()

			switch decision {
			case service.RedirectLogin:
				return c.Redirect(http.StatusFound, LoginPath)
			case service.RedirectHome:
				return c.Redirect(http.StatusFound, domain.RootPath)
			default:
				return next(c)
			}
		}
	}
}

// RequireAccess applies the route guard rules of path to JSON endpoints:
// 401 when logged out, 403 without access.
func RequireAccess(sessions SessionSource, path string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := service.Guard(sessions.Snapshot(), path)
			metrics.GuardDecisionsTotal.WithLabelValues(path, decision.String()).Inc()

			switch decision {
			case service.RedirectLogin:
				return domain.ErrNotLoggedIn
			case service.RedirectHome:
				return domain.ErrForbidden
			default:
				return next(c)
			}
		}
	}
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/caparizon/qa-dashboard/internal/api/handler"
	"github.com/caparizon/qa-dashboard/internal/api/middleware"
	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

const userManagerPath = "/user-manager"

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Sessions ports.SessionService
	Users    ports.UserAdminService
	// Readiness lists the dependencies pinged by /health/ready.
	Readiness map[string]handler.Pinger
	// Metrics receives the HTTP metrics. Nil means the default registry.
	Metrics *prometheus.Registry
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:                 "qa_dashboard_http",
		Registerer:                registererOf(deps.Metrics),
		DoNotUseRequestPathFor404: true,
	}))

	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	viewHandler := handler.NewViewHandler(deps.Sessions)
	adminHandler := handler.NewAdminHandler(deps.Users)

	// --- Session API ---
	api := e.Group("/api")
	api.POST("/session", sessionHandler.Login)
	api.DELETE("/session", sessionHandler.Logout)
	api.GET("/session", sessionHandler.Current)
	api.PUT("/session/identity", sessionHandler.UpdateIdentity)
	api.GET("/session/access", sessionHandler.Access)
	api.GET("/session/tabs", sessionHandler.Tabs)
	api.POST("/password/forgot", sessionHandler.ForgotPassword)

	// --- User manager (guarded tab + admin role) ---
	admin := api.Group("/admin",
		middleware.RequireAccess(deps.Sessions, userManagerPath),
		middleware.RBAC(deps.Sessions, domain.RoleAdmin),
	)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:id/privileges", adminHandler.SetPrivileges)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	// --- Views ---
	e.GET(middleware.LoginPath, viewHandler.Login)
	for _, tab := range domain.Tabs {
		e.GET(tab.Path, viewHandler.Tab(tab), middleware.RouteGuard(deps.Sessions, tab.Path))
	}

	// --- Health probes, metrics, docs (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gathererOf(deps.Metrics),
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func registererOf(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return prometheus.DefaultRegisterer
	}
	return reg
}

func gathererOf(reg *prometheus.Registry) prometheus.Gatherer {
	if reg == nil {
		return prometheus.DefaultGatherer
	}
	return prometheus.Gatherers{prometheus.DefaultGatherer, reg}
}

package api

import (
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/ibadah/tracker/internal/api/handler"
	"github.com/ibadah/tracker/internal/api/middleware"
	"github.com/ibadah/tracker/internal/core/domain"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Guard     *middleware.Guard
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	TwoFactor *handler.TwoFactorHandler
	Audit     *handler.AuditHandler
	Live      *handler.LiveHandler
	Health    *handler.HealthHandler
	Ready     *handler.HealthDependenciesHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(h Handlers, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(httpMetrics())

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", h.Health.Liveness)
	e.GET("/health/ready", h.Ready.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout, h.Guard.OptionalAuthenticate())
	auth.GET("/me", h.Auth.Me, h.Guard.Authenticate())

	// --- 2FA management: admin-class, exempt from the 2FA gate ---
	tf := e.Group("/admin/2fa", h.Guard.Authenticate(), h.Guard.RequireRolesUngated(middleware.AdminRoles...))
	tf.GET("/status", h.TwoFactor.Status)
	tf.POST("/setup", h.TwoFactor.Setup)
	tf.POST("/verify", h.TwoFactor.Verify)
	tf.POST("/cancel", h.TwoFactor.Cancel)
	tf.POST("/disable", h.TwoFactor.Disable)
	tf.POST("/reset", h.TwoFactor.Reset, h.Guard.RequireRolesUngated(domain.RolePrimaryAdmin))

	// The live channel authenticates its own handshake.
	e.GET("/admin/notifications/ws", h.Live.Connect)

	// --- Admin console ---
	admin := e.Group("/admin", h.Guard.Authenticate(), h.Guard.RequireRoles(middleware.AdminRoles...))
	admin.GET("/users", h.Users.List)
	admin.POST("/users", h.Users.Create)
	admin.PATCH("/users/:username", h.Users.Update)
	admin.DELETE("/users/:username", h.Users.Delete)
	admin.POST("/users/:username/promote", h.Users.Promote)
	admin.GET("/audit", h.Audit.Query)
	admin.GET("/notifications", h.Audit.Notifications)

	return e
}

var (
	httpMetricsOnce sync.Once
	httpMetricsMW   echo.MiddlewareFunc
)

// httpMetrics registers the HTTP collectors with the default registry once
// per process; a second registration panics.
func httpMetrics() echo.MiddlewareFunc {
	httpMetricsOnce.Do(func() {
		httpMetricsMW = echoprometheus.NewMiddleware("ibadah")
	})
	return httpMetricsMW
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

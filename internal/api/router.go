package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/saudijob/jobboard/docs"
	"github.com/saudijob/jobboard/internal/api/handler"
	"github.com/saudijob/jobboard/internal/api/middleware"
	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

// Deps carries everything the HTTP layer needs. Views, Readiness and the
// Prometheus registry are optional; the registry defaults to the global one.
type Deps struct {
	Jobs        ports.JobService
	Quota       ports.QuotaService
	Sessions    ports.AdminSessionService
	Views       handler.ViewQueue
	Readiness   map[string]handler.Checker
	JWTSecret   string
	RewardDelay time.Duration
	Logger      zerolog.Logger
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	reg, gatherer := d.Registerer, d.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "jobboard",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	jobHandler := handler.NewJobHandler(d.Jobs, d.Views)
	quotaHandler := handler.NewQuotaHandler(d.Quota, d.RewardDelay)
	alertHandler := handler.NewAlertHandler(d.Jobs)
	adminHandler := handler.NewAdminHandler(d.Jobs, d.Sessions)

	// --- Health probes and tooling (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Public API; an admin bearer token is honoured when present ---
	api := e.Group("/api", middleware.OptionalAuth(d.JWTSecret))
	api.GET("/jobs", jobHandler.List)
	api.POST("/jobs", jobHandler.Create)
	api.PUT("/jobs/:id", jobHandler.Update)
	api.DELETE("/jobs/:id", jobHandler.Delete)
	api.POST("/jobs/:id/view", jobHandler.View)

	api.GET("/quota", quotaHandler.Get)
	api.POST("/quota/reward", quotaHandler.Reward)
	api.GET("/alerts", alertHandler.Get)

	e.POST("/api/admin/session", adminHandler.Session)

	// --- Admin routes ---
	admin := e.Group("/api/admin", middleware.Auth(d.JWTSecret), middleware.RBAC(domain.RoleAdmin))
	admin.GET("/jobs", adminHandler.ListJobs)
	admin.POST("/purge", adminHandler.Purge)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/usersmanager/account-service/docs"
	"github.com/usersmanager/account-service/internal/api/handler"
	"github.com/usersmanager/account-service/internal/api/metrics"
	"github.com/usersmanager/account-service/internal/api/middleware"
	"github.com/usersmanager/account-service/internal/core/domain"
	"github.com/usersmanager/account-service/internal/core/ports"
	"github.com/usersmanager/account-service/internal/infrastructure/http/handlers"
)

// RouterConfig carries everything NewRouter wires into the Echo instance.
type RouterConfig struct {
	Service ports.AccountService
	// Readiness lists the backends pinged by /health/ready, keyed by name.
	Readiness map[string]ports.Pinger
	// Metrics is optional. MetricsHandler defaults to promhttp.Handler().
	Metrics        *metrics.Recorder
	MetricsHandler http.Handler
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Log))
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
	}

	// --- Health probes and tooling (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	e.GET("/metrics", echo.WrapHandler(metricsHandler))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Account routes (basic auth, admin-only writes) ---
	accountHandler := handler.NewAccountHandler(cfg.Service)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	users := e.Group("/user", middleware.BasicAuth(cfg.Service))
	users.GET("", accountHandler.Get)
	users.GET("/all", accountHandler.List)
	users.POST("", accountHandler.Create, adminOnly)
	users.DELETE("", accountHandler.Delete, adminOnly)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

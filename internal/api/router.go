package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/earnings-tracker/ledger-api/docs"
	"github.com/earnings-tracker/ledger-api/internal/api/handler"
	"github.com/earnings-tracker/ledger-api/internal/api/middleware"
	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
	"github.com/earnings-tracker/ledger-api/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth   ports.AuthService
	Ledger ports.LedgerService
	Stats  ports.StatsService
	Tokens ports.TokenIssuer
	Cookie handler.CookieConfig
	// Health lists the dependencies checked by the readiness probe.
	Health map[string]handlers.Pinger
	Log    zerolog.Logger
	// Registry receives the request metrics; nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	// Metrics wrap the logger so they observe the status written by the error handler.
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "ledger",
		Skipper:    skipProbes,
		Registerer: registerer(deps.Registry),
	}))
	e.Use(requestLogger(deps.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Cookie)
	appHandler := handler.NewApplicationHandler(deps.Ledger)
	earningHandler := handler.NewEarningHandler(deps.Ledger)
	statsHandler := handler.NewStatsHandler(deps.Stats)
	adminHandler := handler.NewAdminHandler(deps.Auth)
	authMiddleware := middleware.Auth(deps.Tokens, deps.Cookie.Name)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, authMiddleware)
	auth.POST("/change-password", authHandler.ChangePassword, authMiddleware)

	// --- Ledger routes ---
	apps := e.Group("/applications", authMiddleware)
	apps.GET("", appHandler.List)
	apps.POST("", appHandler.Create)
	apps.PUT("/:id", appHandler.Update)
	apps.DELETE("/:id", appHandler.Delete)

	earnings := e.Group("/earnings", authMiddleware)
	earnings.GET("", earningHandler.List)
	earnings.POST("", earningHandler.Create)
	earnings.PUT("/:id", earningHandler.Update)
	earnings.DELETE("/:id", earningHandler.Delete)

	stats := e.Group("/stats", authMiddleware)
	stats.GET("/gains-by-application", statsHandler.GainsByApplication)
	stats.GET("/total-over-time", statsHandler.TotalOverTime)

	admin := e.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(deps.Health)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func registerer(r *prometheus.Registry) prometheus.Registerer {
	if r == nil {
		return prometheus.DefaultRegisterer
	}
	return r
}

func metricsHandler(r *prometheus.Registry) echo.HandlerFunc {
	if r == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: r})
}

func skipProbes(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}

// requestLogger feeds one structured line per request into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper:      skipProbes,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
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

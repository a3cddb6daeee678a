package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/expensehub/refund-api/docs"
	"github.com/expensehub/refund-api/internal/api/handler"
	"github.com/expensehub/refund-api/internal/api/middleware"
	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/ports"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Users    ports.UserService
	Refunds  ports.RefundService
	Sessions ports.SessionService
	Uploads  ports.UploadService

	// Health maps dependency names to readiness checks.
	Health map[string]handler.Pinger

	JWTSecret      string
	Logger         zerolog.Logger
	MaxUploadBytes int64
	// UploadDir, when set, is served read-only at /uploads/*.
	UploadDir string

	// Registry overrides the default Prometheus registry (tests).
	Registry *prometheus.Registry
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
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "refund",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	users := handler.NewUserHandler(d.Users)
	refunds := handler.NewRefundHandler(d.Refunds)
	sessions := handler.NewSessionHandler(d.Sessions)
	uploads := handler.NewUploadHandler(d.Uploads)
	health := handler.NewHealthHandler(d.Health)

	auth := middleware.Auth(d.JWTSecret)
	anyone := middleware.RBAC(domain.RoleEmployee, domain.RoleManager)
	employee := middleware.RBAC(domain.RoleEmployee)

	// --- Sessions ---
	e.POST("/sessions", sessions.Create)

	// --- Users ---
	e.POST("/users", users.Create, middleware.OptionalAuth(d.JWTSecret))
	u := e.Group("/users", auth, anyone)
	u.GET("", users.List)
	u.GET("/:id", users.Show)
	u.PATCH("/:id", users.Update)
	u.DELETE("/:id", users.Delete)

	// --- Refunds ---
	// Managers may read every refund; mutations are gated to employees at the
	// route and to owner-or-manager inside the service.
	r := e.Group("/refunds", auth)
	r.POST("", refunds.Create, employee)
	r.GET("", refunds.List, anyone)
	r.GET("/:id", refunds.Show, anyone)
	r.PATCH("/:id", refunds.Update, employee)
	r.DELETE("/:id", refunds.Delete, employee)

	// --- Uploads ---
	e.POST("/uploads", uploads.Create, echomiddleware.BodyLimit(bodyLimit(d.MaxUploadBytes)), auth, employee)
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	// --- Health probes (no auth required) ---
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// bodyLimit leaves 1 MiB of headroom over the file limit for multipart framing.
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = 3 << 20
	}
	return fmt.Sprintf("%dK", maxUpload>>10+1024)
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
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

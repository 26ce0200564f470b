// Package httpapi provides the HTTP API for assistantd.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/assistantd/internal/chat"
	"github.com/fyrsmithlabs/assistantd/internal/escalation"
	"github.com/fyrsmithlabs/assistantd/internal/files"
	"github.com/fyrsmithlabs/assistantd/internal/ingest"
	"github.com/fyrsmithlabs/assistantd/internal/permission"
	"github.com/fyrsmithlabs/assistantd/internal/telemetry"
	"github.com/fyrsmithlabs/assistantd/internal/tenant"
	"github.com/fyrsmithlabs/assistantd/internal/theme"
)

// apiKeyHeader carries the tenant identity on authenticated routes.
const apiKeyHeader = "X-API-Key"

// tenantContextKey is the echo context key for the resolved tenant ID.
const tenantContextKey = "tenant_id"

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// OrgsFile is the static organization list served by /list-orgs.
	OrgsFile string
}

// Services groups the domain dependencies the handlers need.
type Services struct {
	Chat        *chat.Orchestrator
	Ingest      *ingest.Pipeline
	Uploads     *files.Store
	Escalations *escalation.Log
	Themes      *theme.Store
	Permissions *permission.Store
}

// Server provides HTTP endpoints for assistantd.
type Server struct {
	echo    *echo.Echo
	svc     Services
	metrics *telemetry.Metrics
	logger  *zap.Logger
	config  *Config
}

// NewServer creates a new HTTP server.
func NewServer(svc Services, metrics *telemetry.Metrics, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc.Chat == nil || svc.Ingest == nil || svc.Uploads == nil ||
		svc.Escalations == nil || svc.Themes == nil || svc.Permissions == nil {
		return nil, fmt.Errorf("all services are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			if metrics != nil {
				metrics.RequestsTotal.WithLabelValues(
					c.Request().Method, c.Path(), strconv.Itoa(status),
				).Inc()
			}

			return err
		}
	})

	s := &Server{
		echo:    e,
		svc:     svc,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Unauthenticated surface
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/list-orgs", s.handleListOrgs)
	s.echo.POST("/save-permissions/:org_id", s.handleSavePermissions)
	s.echo.GET("/get-permissions/:org_id", s.handleGetPermissions)

	// Tenant-scoped surface behind API-key resolution
	authed := s.echo.Group("", s.apiKeyMiddleware)
	authed.POST("/chat", s.handleChat)
	authed.POST("/ingest-docs", s.handleIngestDocs)
	authed.GET("/list-files", s.handleListFiles)
	authed.GET("/get-escalations", s.handleGetEscalations)
	authed.POST("/save-theme", s.handleSaveTheme)
	authed.GET("/get-theme", s.handleGetTheme)
}

// apiKeyMiddleware resolves the API key header to a validated tenant ID
// and stores it in both the echo context and the request context.
func (s *Server) apiKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(apiKeyHeader)
		if key == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
		}

		id, err := tenant.FromAPIKey(key)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid API Key")
		}

		c.Set(tenantContextKey, id)
		c.SetRequest(c.Request().WithContext(tenant.NewContext(c.Request().Context(), id)))

		return next(c)
	}
}

// tenantID extracts the tenant resolved by apiKeyMiddleware.
func tenantID(c echo.Context) (tenant.ID, error) {
	id, ok := c.Get(tenantContextKey).(tenant.ID)
	if !ok || id == "" {
		return "", tenant.ErrMissingTenant
	}
	return id, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.Addr()))
	if err := s.echo.Start(s.Addr()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

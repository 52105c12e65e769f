// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	authHTTP "github.com/sovereignos/guard/internal/auth/http"
	authService "github.com/sovereignos/guard/internal/auth/service"
	authUseCase "github.com/sovereignos/guard/internal/auth/usecase"
	capHTTP "github.com/sovereignos/guard/internal/capability/http"
	capService "github.com/sovereignos/guard/internal/capability/service"
	egressHTTP "github.com/sovereignos/guard/internal/egress/http"
	keysHTTP "github.com/sovereignos/guard/internal/keys/http"
	"github.com/sovereignos/guard/internal/metrics"
)

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is configured separately
// via SetupRouter; the db handle is only used for readiness checks.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig carries the handlers, middleware dependencies, and settings
// needed to build the API router. Handlers are constructed by the DI
// container; the server only wires them to routes.
type RouterConfig struct {
	ClientHandler     *authHTTP.ClientHandler
	TokenHandler      *authHTTP.TokenHandler
	AuditLogHandler   *authHTTP.AuditLogHandler
	SigningKeyHandler *keysHTTP.SigningKeyHandler
	CapabilityHandler *capHTTP.CapabilityHandler
	EgressHandler     *egressHTTP.EgressHandler

	// Authentication dependencies for the bearer token middleware.
	TokenUseCase    authUseCase.TokenUseCase
	TokenService    authService.TokenService
	AuditLogUseCase authUseCase.AuditLogUseCase
	TokenIssuer     string

	// CapabilityVerifier authorizes the consume endpoint by the presented
	// capability token.
	CapabilityVerifier *capService.Verifier

	// Per-client rate limiting on authenticated routes.
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	// Per-IP rate limiting on the token endpoint.
	RateLimitTokenEnabled        bool
	RateLimitTokenRequestsPerSec float64
	RateLimitTokenBurst          int

	CORSEnabled      bool
	CORSAllowOrigins string

	// MeterProvider enables HTTP request metrics when set.
	MeterProvider    metric.MeterProvider
	MetricsNamespace string
}

// SetupRouter builds the Gin router with all middleware and API routes.
// Route layout:
//   - /health, /ready: unauthenticated probes
//   - POST /v1/token: credential exchange, IP rate limited
//   - everything else under /v1: bearer token authentication, per-client
//     rate limiting, and per-route scope guards
//
// The consume endpoint is the exception to the scope guards: the presented
// capability token is the authorization, so it only requires authentication
// plus a valid token.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Token issuance authenticates by client credentials in the body, not by
	// bearer token, and is rate limited per source IP.
	tokenRoutes := v1.Group("")
	if cfg.RateLimitTokenEnabled {
		tokenRoutes.Use(authHTTP.TokenRateLimitMiddleware(
			cfg.RateLimitTokenRequestsPerSec,
			cfg.RateLimitTokenBurst,
			s.logger,
		))
	}
	tokenRoutes.POST("/token", cfg.TokenHandler.IssueTokenHandler)

	authenticated := v1.Group("")
	authenticated.Use(authHTTP.AuthenticationMiddleware(
		cfg.TokenUseCase,
		cfg.TokenService,
		cfg.TokenIssuer,
		s.logger,
	))
	if cfg.RateLimitEnabled {
		authenticated.Use(authHTTP.RateLimitMiddleware(
			cfg.RateLimitRequestsPerSec,
			cfg.RateLimitBurst,
			s.logger,
		))
	}

	requireScopes := func(operation string) gin.HandlerFunc {
		return authHTTP.RequireScopes(operation, cfg.AuditLogUseCase, s.logger)
	}

	authenticated.POST("/clients", requireScopes("client_manage"), cfg.ClientHandler.CreateHandler)
	authenticated.GET("/clients/:id", requireScopes("client_manage"), cfg.ClientHandler.GetHandler)
	authenticated.PUT("/clients/:id", requireScopes("client_manage"), cfg.ClientHandler.UpdateHandler)
	authenticated.DELETE("/clients/:id", requireScopes("client_manage"), cfg.ClientHandler.DeleteHandler)
	authenticated.POST("/clients/:id/unlock", requireScopes("client_manage"), cfg.ClientHandler.UnlockHandler)
	authenticated.GET("/clients", requireScopes("client_manage"), cfg.ClientHandler.ListHandler)

	authenticated.POST("/capabilities", requireScopes("capability_issue"), cfg.CapabilityHandler.IssueHandler)
	// Delegation is authorized by possession of the parent capability, not
	// by a registry scope: the presented token must be the parent.
	authenticated.POST(
		"/capabilities/delegate",
		capHTTP.PresentedCapability(cfg.CapabilityVerifier, s.logger),
		cfg.CapabilityHandler.DelegateHandler,
	)
	authenticated.POST("/capabilities/verify", requireScopes("capability_get"), cfg.CapabilityHandler.VerifyHandler)
	authenticated.GET("/capabilities/:id", requireScopes("capability_get"), cfg.CapabilityHandler.GetHandler)
	authenticated.POST(
		"/capabilities/:id/consume",
		capHTTP.PresentedCapability(cfg.CapabilityVerifier, s.logger),
		cfg.CapabilityHandler.ConsumeHandler,
	)

	authenticated.GET("/issuers/:issuer/keys", requireScopes("capability_get"), cfg.SigningKeyHandler.ListHandler)

	authenticated.GET("/audit-logs", requireScopes("audit_read"), cfg.AuditLogHandler.ListHandler)
	authenticated.GET("/audit-logs/verify", requireScopes("audit_read"), cfg.AuditLogHandler.VerifyHandler)

	authenticated.POST("/egress/check", requireScopes("egress_check"), cfg.EgressHandler.CheckHandler)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking
// each dependency individually.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("readiness check failed: database ping", slog.Any("error", err))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server. SetupRouter must have been called first.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authHTTP "github.com/sovereignos/guard/internal/auth/http"
	authService "github.com/sovereignos/guard/internal/auth/service"
	authUseCase "github.com/sovereignos/guard/internal/auth/usecase"
	capHTTP "github.com/sovereignos/guard/internal/capability/http"
	capService "github.com/sovereignos/guard/internal/capability/service"
	capUseCase "github.com/sovereignos/guard/internal/capability/usecase"
	"github.com/sovereignos/guard/internal/config"
	"github.com/sovereignos/guard/internal/database"
	"github.com/sovereignos/guard/internal/egress"
	egressHTTP "github.com/sovereignos/guard/internal/egress/http"
	"github.com/sovereignos/guard/internal/http"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
	keysHTTP "github.com/sovereignos/guard/internal/keys/http"
	keysService "github.com/sovereignos/guard/internal/keys/service"
	keysUseCase "github.com/sovereignos/guard/internal/keys/usecase"
	"github.com/sovereignos/guard/internal/metrics"
	outboxUsecase "github.com/sovereignos/guard/internal/outbox/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Key management
	kmsService           keysService.KMSService
	kmsKeeper            keysDomain.KMSKeeper
	masterKeyChain       *keysDomain.MasterKeyChain
	aeadManager          keysService.AEADManager
	seedSealer           keysService.SeedSealer
	signingKeyRepository keysUseCase.SigningKeyRepository
	signingKeyUseCase    keysUseCase.SigningKeyUseCase

	// Auth
	secretService      authService.SecretService
	tokenService       authService.TokenService
	clientRepository   authUseCase.ClientRepository
	tokenRepository    authUseCase.TokenRepository
	auditLogRepository authUseCase.AuditLogRepository
	clientUseCase      authUseCase.ClientUseCase
	tokenUseCase       authUseCase.TokenUseCase
	auditLogUseCase    authUseCase.AuditLogUseCase

	// Capability
	capabilityEnforcement capService.Enforcement
	capabilitySigner      *capService.Signer
	capabilityVerifier    *capService.Verifier
	grantRepository       capUseCase.GrantRepository
	capabilityUseCase     capUseCase.CapabilityUseCase

	// Egress
	egressGuard *egress.Guard

	// Outbox
	outboxRepo    outboxUsecase.OutboxEventRepository
	outboxUseCase outboxUsecase.UseCase

	// Handlers
	clientHandler     *authHTTP.ClientHandler
	tokenHandler      *authHTTP.TokenHandler
	auditLogHandler   *authHTTP.AuditLogHandler
	signingKeyHandler *keysHTTP.SigningKeyHandler
	capabilityHandler *capHTTP.CapabilityHandler
	egressHandler     *egressHTTP.EgressHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                        sync.Mutex
	loggerInit                sync.Once
	dbInit                    sync.Once
	txManagerInit             sync.Once
	metricsProviderInit       sync.Once
	businessMetricsInit       sync.Once
	kmsServiceInit            sync.Once
	kmsKeeperInit             sync.Once
	masterKeyChainInit        sync.Once
	aeadManagerInit           sync.Once
	seedSealerInit            sync.Once
	signingKeyRepositoryInit  sync.Once
	signingKeyUseCaseInit     sync.Once
	secretServiceInit         sync.Once
	tokenServiceInit          sync.Once
	clientRepositoryInit      sync.Once
	tokenRepositoryInit       sync.Once
	auditLogRepositoryInit    sync.Once
	clientUseCaseInit         sync.Once
	tokenUseCaseInit          sync.Once
	auditLogUseCaseInit       sync.Once
	capabilityEnforcementInit sync.Once
	capabilitySignerInit      sync.Once
	capabilityVerifierInit    sync.Once
	grantRepositoryInit       sync.Once
	capabilityUseCaseInit     sync.Once
	egressGuardInit           sync.Once
	outboxRepoInit            sync.Once
	outboxUseCaseInit         sync.Once
	clientHandlerInit         sync.Once
	tokenHandlerInit          sync.Once
	auditLogHandlerInit       sync.Once
	signingKeyHandlerInit     sync.Once
	capabilityHandlerInit     sync.Once
	egressHandlerInit         sync.Once
	httpServerInit            sync.Once
	metricsServerInit         sync.Once
	initErrors                map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the Prometheus-backed OpenTelemetry meter provider.
// Returns nil when metrics are disabled in configuration.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. With metrics
// disabled a no-op recorder is returned so callers never branch.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API HTTP server instance with all routes wired.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
// Returns nil when metrics are disabled in configuration.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Zeroize master key material if loaded
	if c.masterKeyChain != nil {
		c.masterKeyChain.Close()
	}

	// Close the KMS keeper if opened
	if c.kmsKeeper != nil {
		if err := c.kmsKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	// An invalid CAPABILITY_ENFORCEMENT value must stop the server at
	// startup, not surface on the first guarded request.
	if _, err := c.CapabilityEnforcement(); err != nil {
		return nil, fmt.Errorf("invalid capability enforcement configuration: %w", err)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	clientHandler, err := c.ClientHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get client handler for http server: %w", err)
	}

	tokenHandler, err := c.TokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get token handler for http server: %w", err)
	}

	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}

	signingKeyHandler, err := c.SigningKeyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key handler for http server: %w", err)
	}

	capabilityHandler, err := c.CapabilityHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get capability handler for http server: %w", err)
	}

	egressHandler, err := c.EgressHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get egress handler for http server: %w", err)
	}

	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for http server: %w", err)
	}

	capabilityVerifier, err := c.CapabilityVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get capability verifier for http server: %w", err)
	}

	routerConfig := http.RouterConfig{
		ClientHandler:     clientHandler,
		TokenHandler:      tokenHandler,
		AuditLogHandler:   auditLogHandler,
		SigningKeyHandler: signingKeyHandler,
		CapabilityHandler: capabilityHandler,
		EgressHandler:     egressHandler,

		TokenUseCase:    tokenUseCase,
		TokenService:    c.TokenService(),
		AuditLogUseCase: auditLogUseCase,
		TokenIssuer:     c.config.CapabilityIssuer,

		CapabilityVerifier: capabilityVerifier,

		RateLimitEnabled:        c.config.RateLimitEnabled,
		RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
		RateLimitBurst:          c.config.RateLimitBurst,

		RateLimitTokenEnabled:        c.config.RateLimitTokenEnabled,
		RateLimitTokenRequestsPerSec: c.config.RateLimitTokenRequestsPerSec,
		RateLimitTokenBurst:          c.config.RateLimitTokenBurst,

		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,

		MetricsNamespace: c.config.MetricsNamespace,
	}

	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		routerConfig.MeterProvider = provider.MeterProvider()
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(routerConfig)

	return server, nil
}

// initMetricsServer creates the metrics server with its provider.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}

// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authService "github.com/sovereignos/guard/internal/auth/service"
	authUseCase "github.com/sovereignos/guard/internal/auth/usecase"
	apperrors "github.com/sovereignos/guard/internal/errors"
	"github.com/sovereignos/guard/internal/httputil"
	"github.com/sovereignos/guard/internal/scopes"
)

// AuthenticationMiddleware resolves the caller via Bearer token in the Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Hashes the token using tokenService.HashToken()
// 3. Validates the token using tokenUseCase.Authenticate()
// 4. Stores the authenticated client in the request context
// 5. Builds the caller's scope context from the client's flattened grant and
//    stores it alongside, so guards never rebuild it per check
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer")
//
// Error handling:
//   - Missing Authorization header → 401 Unauthorized
//   - Malformed Authorization header → 401 Unauthorized
//   - Invalid/expired/revoked token → 401 Unauthorized (from TokenUseCase.Authenticate)
//   - Inactive client → 403 Forbidden (from TokenUseCase.Authenticate)
//   - Other errors → 500 Internal Server Error
//
// Usage:
//
//	router.Use(AuthenticationMiddleware(tokenUseCase, tokenService, issuer, logger))
//	router.GET("/protected", RequireScopes("memory_store", auditLogUseCase, logger), handler)
func AuthenticationMiddleware(
	tokenUseCase authUseCase.TokenUseCase,
	tokenService authService.TokenService,
	issuer string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header",
				slog.String("header", authHeader))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Hash the token for lookup
		tokenHash := tokenService.HashToken(plainToken)

		// Authenticate using the token hash
		client, err := tokenUseCase.Authenticate(c.Request.Context(), tokenHash)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		// Store the client and its scope context for downstream guards
		ctx := WithClient(c.Request.Context(), client)
		ctx = WithScopeContext(ctx, client.ScopeContext(issuer))
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("client_id", client.ID.String()),
			slog.String("subject", client.Subject))

		// Continue to next handler
		c.Next()
	}
}

// RequireScopes guards an operation by the caller's scope grant.
//
// This middleware MUST be used after AuthenticationMiddleware, as it requires the
// caller's scope context to be present in the request context. It looks up the
// operation in the scope registry and checks that the caller's flattened scope
// set covers every required scope.
//
// Every decision is recorded in the audit trail under the operation name. A
// denial names exactly the missing scopes in both the response and the audit
// record, never the caller's full grant.
//
// Error handling:
//   - No scope context in context → 401 Unauthorized (AuthenticationMiddleware not run)
//   - Missing scopes → 403 Forbidden naming only the missing scopes
//
// Usage:
//
//	router.GET("/v1/audit-logs",
//	    AuthenticationMiddleware(tokenUseCase, tokenService, issuer, logger),
//	    RequireScopes("audit_read", auditLogUseCase, logger),
//	    handler)
func RequireScopes(
	operation string,
	auditLogUseCase authUseCase.AuditLogUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := GetClient(c.Request.Context())
		if !ok || client == nil {
			logger.Debug("authorization failed: no authenticated client in context",
				slog.String("operation", operation))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		scopeCtx, ok := GetScopeContext(c.Request.Context())
		if !ok {
			logger.Debug("authorization failed: no scope context in context",
				slog.String("operation", operation))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		requestID := parseRequestID(c)

		if err := scopeCtx.Require(operation); err != nil {
			recordDecision(c, auditLogUseCase, logger, requestID, client.ID, operation, authDomain.DecisionDeny, err.Error())

			logger.Debug("authorization failed: insufficient scopes",
				slog.String("client_id", client.ID.String()),
				slog.String("subject", client.Subject),
				slog.String("operation", operation),
				slog.String("error", err.Error()))

			var denied *scopes.DeniedError
			if errors.As(err, &denied) {
				// The denial message names only the missing scopes, which is
				// safe to return to the caller.
				c.JSON(http.StatusForbidden, httputil.ErrorResponse{
					Error:   "forbidden",
					Message: denied.Error(),
				})
			} else {
				httputil.HandleErrorGin(c, err, logger)
			}
			c.Abort()
			return
		}

		recordDecision(c, auditLogUseCase, logger, requestID, client.ID, operation, authDomain.DecisionAllow, "scopes satisfied")

		logger.Debug("authorization successful",
			slog.String("client_id", client.ID.String()),
			slog.String("subject", client.Subject),
			slog.String("operation", operation))

		// Continue to next handler
		c.Next()
	}
}

// parseRequestID converts the request ID header set by the requestid middleware
// into a UUID, falling back to uuid.Nil when absent or not UUID-shaped.
func parseRequestID(c *gin.Context) uuid.UUID {
	requestID, err := uuid.Parse(requestid.Get(c))
	if err != nil {
		return uuid.Nil
	}
	return requestID
}

// recordDecision writes one authorization decision to the audit trail. Audit
// write failures are logged and never block the decision already made.
func recordDecision(
	c *gin.Context,
	auditLogUseCase authUseCase.AuditLogUseCase,
	logger *slog.Logger,
	requestID uuid.UUID,
	clientID uuid.UUID,
	operation string,
	decision authDomain.Decision,
	reason string,
) {
	if auditLogUseCase == nil {
		return
	}
	if err := auditLogUseCase.Record(c.Request.Context(), requestID, clientID, operation, decision, reason, nil); err != nil {
		logger.Error("failed to record audit log",
			slog.String("operation", operation),
			slog.String("decision", string(decision)),
			slog.Any("error", err))
	}
}

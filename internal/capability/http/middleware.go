package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	capService "github.com/sovereignos/guard/internal/capability/service"
	apperrors "github.com/sovereignos/guard/internal/errors"
	"github.com/sovereignos/guard/internal/httputil"
)

// CapabilityHeader carries the capability token on guarded requests. The
// Authorization Bearer header is accepted as a fallback for clients that can
// only set one auth header.
const CapabilityHeader = "X-SOS-Capability"

// tokenFromRequest extracts the capability token from the request, preferring
// the dedicated header over the Authorization Bearer fallback.
func tokenFromRequest(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(CapabilityHeader)); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	const bearerPrefix = "bearer "
	if len(authHeader) >= len(bearerPrefix) &&
		strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(authHeader[len(bearerPrefix):])
	}
	return ""
}

// RequireCapability enforces capability possession for an operation.
//
// The middleware reads the capability token from the X-SOS-Capability header
// (fallback: Authorization Bearer), decodes it, and verifies it against the
// required action and the resource derived from the request. The resourceFn
// maps the request to the concrete resource being acted on.
//
// Behavior by enforcement mode:
//   - off: requests pass untouched, the token is never read
//   - advisory: violations are logged and the request proceeds
//   - strict: violations reject the request
//
// Error handling in strict mode:
//   - Missing token → 401 Unauthorized
//   - Malformed token → 422 Unprocessable Entity
//   - Signature failure → 401 Unauthorized
//   - Any other policy failure (expiry, uses, action, resource) → 403 Forbidden
//
// Enforcement demanded with no verification key configured is a deployment
// fault and fails closed with 500 in both advisory and strict mode: a
// misconfigured verifier must never silently approve.
func RequireCapability(
	enforcement capService.Enforcement,
	verifier *capService.Verifier,
	action capDomain.Action,
	resourceFn func(c *gin.Context) string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enforcement.Enabled() {
			c.Next()
			return
		}

		if !verifier.HasKey() {
			logger.Error("capability enforcement enabled without a verification key",
				slog.String("path", c.FullPath()))
			httputil.HandleErrorGin(
				c,
				apperrors.Wrap(apperrors.ErrConfiguration, "no capability verification key configured"),
				logger,
			)
			c.Abort()
			return
		}

		resource := resourceFn(c)

		token := tokenFromRequest(c)
		if token == "" {
			if enforcement.Strict() {
				httputil.HandleErrorGin(
					c,
					apperrors.Wrap(apperrors.ErrUnauthorized, "missing capability token"),
					logger,
				)
				c.Abort()
				return
			}
			logger.Warn("capability violation (advisory): missing capability token",
				slog.String("action", string(action)),
				slog.String("resource", resource))
			c.Next()
			return
		}

		capability, err := capDomain.DecodeToken(token)
		if err != nil {
			if enforcement.Strict() {
				httputil.HandleErrorGin(c, err, logger)
				c.Abort()
				return
			}
			logger.Warn("capability violation (advisory): malformed capability token",
				slog.String("action", string(action)),
				slog.String("resource", resource),
				slog.String("error", err.Error()))
			c.Next()
			return
		}

		ok, reason := verifier.VerifyCapability(capability, action, resource)
		if !ok {
			if enforcement.Strict() {
				if capService.IsSignatureReason(reason) {
					httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, reason), logger)
				} else {
					httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, reason), logger)
				}
				c.Abort()
				return
			}
			logger.Warn("capability violation (advisory)",
				slog.String("capability_id", capability.ID),
				slog.String("subject", capability.Subject),
				slog.String("action", string(action)),
				slog.String("resource", resource),
				slog.String("reason", reason))
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(WithCapability(c.Request.Context(), capability))
		c.Next()
	}
}

// PresentedCapability authenticates a request by the capability token it
// carries: the token is verified against its own action and resource, which
// exercises expiry, use count, and signature without demanding any particular
// operation. The verified capability is stored in the request context for the
// handler.
//
// Unlike RequireCapability this middleware ignores the enforcement mode: the
// token is the only credential on these endpoints, so it is always required.
func PresentedCapability(
	verifier *capService.Verifier,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			httputil.HandleErrorGin(
				c,
				apperrors.Wrap(apperrors.ErrUnauthorized, "missing capability token"),
				logger,
			)
			c.Abort()
			return
		}

		capability, err := capDomain.DecodeToken(token)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ok, reason := verifier.VerifyCapability(capability, capability.Action, capability.Resource)
		if !ok {
			if capService.IsSignatureReason(reason) {
				httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, reason), logger)
			} else {
				httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, reason), logger)
			}
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithCapability(c.Request.Context(), capability))
		c.Next()
	}
}

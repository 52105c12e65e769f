package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sovereignos/guard/internal/auth/http/dto"
	authUseCase "github.com/sovereignos/guard/internal/auth/usecase"
	"github.com/sovereignos/guard/internal/httputil"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase authUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase authUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves audit logs with pagination support and optional time-based filtering.
// GET /v1/audit-logs?offset=0&limit=50&created_at_from=2026-02-01T00:00:00Z&created_at_to=2026-02-14T23:59:59Z
// Guarded by RequireScopes("audit_read"). Returns 200 OK with paginated audit log list
// ordered by created_at descending (newest first). Accepts optional created_at_from and
// created_at_to query parameters in RFC3339 format. Timestamps are converted to UTC. Both
// boundaries are inclusive (>= and <=).
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	// Parse offset and limit query parameters
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Parse optional time window
	createdAtFrom, createdAtTo, err := httputil.ParseTimeWindow(c, "created_at_from", "created_at_to")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Call use case
	auditLogs, err := h.auditLogUseCase.List(c.Request.Context(), offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Map to response
	response := dto.MapAuditLogsToListResponse(auditLogs)
	c.JSON(http.StatusOK, response)
}

// VerifyHandler re-checks the HMAC signatures of a page of audit logs and reports
// tampered or unverifiable records.
// GET /v1/audit-logs/verify?offset=0&limit=50&created_at_from=...&created_at_to=...
// Guarded by RequireScopes("audit_read"). Returns 200 OK with a verification report
// listing the IDs of records whose signatures no longer match.
func (h *AuditLogHandler) VerifyHandler(c *gin.Context) {
	// Parse offset and limit query parameters
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Parse optional time window
	createdAtFrom, createdAtTo, err := httputil.ParseTimeWindow(c, "created_at_from", "created_at_to")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Call use case
	report, err := h.auditLogUseCase.VerifySignatures(c.Request.Context(), offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Map to response
	c.JSON(http.StatusOK, dto.MapAuditVerificationToResponse(report))
}

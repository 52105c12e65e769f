// Package http exposes the egress policy decision over HTTP so services in
// other languages can consult the same SSRF guard the kernel applies to its
// own outbound calls.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sovereignos/guard/internal/egress"
	"github.com/sovereignos/guard/internal/egress/http/dto"
	"github.com/sovereignos/guard/internal/httputil"
	customValidation "github.com/sovereignos/guard/internal/validation"
)

// EgressHandler handles HTTP requests for egress policy checks.
type EgressHandler struct {
	guard  *egress.Guard
	logger *slog.Logger
}

// NewEgressHandler creates a new egress handler with required dependencies.
func NewEgressHandler(guard *egress.Guard, logger *slog.Logger) *EgressHandler {
	return &EgressHandler{
		guard:  guard,
		logger: logger,
	}
}

// CheckHandler runs a URL through the egress guard.
// POST /v1/egress/check - guarded by RequireScopes("egress_check").
// Returns 200 OK with the normalized URL on allow, 403 on a policy block,
// 422 on a malformed URL.
func (h *EgressHandler) CheckHandler(c *gin.Context) {
	var req dto.CheckEgressRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	validated, err := h.guard.ValidateURL(c.Request.Context(), req.URL)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.CheckEgressResponse{
		URL:     validated,
		Allowed: true,
	})
}

// Package http provides HTTP handlers for signing key operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sovereignos/guard/internal/httputil"
	"github.com/sovereignos/guard/internal/keys/http/dto"
	keysUseCase "github.com/sovereignos/guard/internal/keys/usecase"
)

// SigningKeyHandler handles HTTP requests for signing key operations.
type SigningKeyHandler struct {
	signingKeyUseCase keysUseCase.SigningKeyUseCase
	logger            *slog.Logger
}

// NewSigningKeyHandler creates a new signing key handler with required dependencies.
func NewSigningKeyHandler(
	signingKeyUseCase keysUseCase.SigningKeyUseCase,
	logger *slog.Logger,
) *SigningKeyHandler {
	return &SigningKeyHandler{
		signingKeyUseCase: signingKeyUseCase,
		logger:            logger,
	}
}

// ListHandler retrieves the public key history for an issuer, newest version
// first. GET /v1/issuers/:issuer/keys
// Verifiers use this to fetch the active public key and to keep verifying
// tokens signed by retired keys. Only public material is returned.
func (h *SigningKeyHandler) ListHandler(c *gin.Context) {
	issuer := c.Param("issuer")
	if issuer == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("issuer is required"), h.logger)
		return
	}

	signingKeys, err := h.signingKeyUseCase.ListPublic(c.Request.Context(), issuer)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapSigningKeysToListResponse(signingKeys)
	c.JSON(http.StatusOK, response)
}

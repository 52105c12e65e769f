package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	"github.com/sovereignos/guard/internal/capability/http/dto"
	capUseCase "github.com/sovereignos/guard/internal/capability/usecase"
	apperrors "github.com/sovereignos/guard/internal/errors"
	"github.com/sovereignos/guard/internal/httputil"
	customValidation "github.com/sovereignos/guard/internal/validation"
)

// CapabilityHandler handles HTTP requests for capability operations. Scope
// authorization for issue and get is made and audited by the RequireScopes
// middleware; delegate and consume are authorized by the presented
// capability itself.
type CapabilityHandler struct {
	capabilityUseCase capUseCase.CapabilityUseCase
	logger            *slog.Logger
}

// NewCapabilityHandler creates a new capability handler with required dependencies.
func NewCapabilityHandler(
	capabilityUseCase capUseCase.CapabilityUseCase,
	logger *slog.Logger,
) *CapabilityHandler {
	return &CapabilityHandler{
		capabilityUseCase: capabilityUseCase,
		logger:            logger,
	}
}

// IssueHandler mints, signs, and persists a new root capability.
// POST /v1/capabilities - guarded by RequireScopes("capability_issue").
// Returns 201 Created with the capability and its encoded token.
func (h *CapabilityHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueCapabilityRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	action, err := capDomain.ParseAction(req.Action)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	capability, err := h.capabilityUseCase.Issue(c.Request.Context(), &capUseCase.IssueCapabilityInput{
		Subject:     req.Subject,
		Action:      action,
		Resource:    req.Resource,
		Constraints: req.Constraints,
		TTL:         time.Duration(req.TTLSeconds) * time.Second,
		Uses:        req.Uses,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response, err := dto.MapCapabilityToResponse(*capability)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// DelegateHandler mints a child capability attenuated from an existing grant.
// POST /v1/capabilities/delegate - guarded by PresentedCapability.
// The presented token must be the parent being delegated from: delegation
// authority is possession of the parent capability, not a registry scope.
// Returns 201 Created with the child capability and its encoded token.
func (h *CapabilityHandler) DelegateHandler(c *gin.Context) {
	var req dto.DelegateCapabilityRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	presented, ok := GetCapability(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrUnauthorized, "missing capability token"),
			h.logger,
		)
		return
	}
	if presented.ID != req.ParentCapabilityID {
		httputil.HandleErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrForbidden, "presented capability is not the parent"),
			h.logger,
		)
		return
	}

	action, err := capDomain.ParseAction(req.Action)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	capability, err := h.capabilityUseCase.Delegate(
		c.Request.Context(),
		req.ParentCapabilityID,
		&capUseCase.IssueCapabilityInput{
			Subject:     req.Subject,
			Action:      action,
			Resource:    req.Resource,
			Constraints: req.Constraints,
			TTL:         time.Duration(req.TTLSeconds) * time.Second,
			Uses:        req.Uses,
		},
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response, err := dto.MapCapabilityToResponse(*capability)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// VerifyHandler runs a stateless verification decision on a presented token.
// POST /v1/capabilities/verify - guarded by RequireScopes("capability_get").
// Policy outcomes (expired, exhausted, mismatch, bad signature) are reported
// as 200 with allowed=false; only a malformed token is a request error.
func (h *CapabilityHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyCapabilityRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	action, err := capDomain.ParseAction(req.Action)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	result, err := h.capabilityUseCase.VerifyToken(c.Request.Context(), req.Token, action, req.Resource)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyCapabilityResponse{
		Allowed:      result.Allowed,
		Reason:       result.Reason,
		CapabilityID: result.Capability.ID,
		Subject:      result.Capability.Subject,
	})
}

// ConsumeHandler records one authorized use of the presented capability.
// POST /v1/capabilities/:id/consume - guarded by PresentedCapability.
// The presented token must be the capability being consumed: a valid token
// for one capability cannot spend another's uses.
// Returns 200 OK with the refreshed grant.
func (h *CapabilityHandler) ConsumeHandler(c *gin.Context) {
	capability, ok := GetCapability(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrUnauthorized, "missing capability token"),
			h.logger,
		)
		return
	}

	capabilityID := c.Param("id")
	if capability.ID != capabilityID {
		httputil.HandleErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrForbidden, "presented capability does not match"),
			h.logger,
		)
		return
	}

	grant, err := h.capabilityUseCase.Consume(c.Request.Context(), capabilityID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapGrantToResponse(grant))
}

// GetHandler retrieves a grant by capability ID.
// GET /v1/capabilities/:id - guarded by RequireScopes("capability_get").
// Returns 200 OK with the grant (no signature, no token).
func (h *CapabilityHandler) GetHandler(c *gin.Context) {
	grant, err := h.capabilityUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapGrantToResponse(grant))
}

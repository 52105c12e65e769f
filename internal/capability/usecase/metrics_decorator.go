package usecase

import (
	"context"
	"time"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	"github.com/sovereignos/guard/internal/metrics"
)

// capabilityUseCaseWithMetrics decorates CapabilityUseCase with metrics instrumentation.
type capabilityUseCaseWithMetrics struct {
	next    CapabilityUseCase
	metrics metrics.BusinessMetrics
}

// NewCapabilityUseCaseWithMetrics wraps a CapabilityUseCase with metrics recording.
func NewCapabilityUseCaseWithMetrics(
	useCase CapabilityUseCase,
	m metrics.BusinessMetrics,
) CapabilityUseCase {
	return &capabilityUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (c *capabilityUseCaseWithMetrics) record(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "capability", operation, status)
	c.metrics.RecordDuration(ctx, "capability", operation, time.Since(start), status)
}

// Issue records metrics for capability issuance.
func (c *capabilityUseCaseWithMetrics) Issue(
	ctx context.Context,
	input *IssueCapabilityInput,
) (*capDomain.Capability, error) {
	start := time.Now()
	capability, err := c.next.Issue(ctx, input)
	c.record(ctx, "issue", start, err)
	return capability, err
}

// Delegate records metrics for capability delegation.
func (c *capabilityUseCaseWithMetrics) Delegate(
	ctx context.Context,
	parentCapabilityID string,
	input *IssueCapabilityInput,
) (*capDomain.Capability, error) {
	start := time.Now()
	capability, err := c.next.Delegate(ctx, parentCapabilityID, input)
	c.record(ctx, "delegate", start, err)
	return capability, err
}

// VerifyToken records metrics for token verification. Policy denials are not
// errors here: the decision is measured separately through the decision label
// carried in the audit trail.
func (c *capabilityUseCaseWithMetrics) VerifyToken(
	ctx context.Context,
	token string,
	requiredAction capDomain.Action,
	resource string,
) (*VerifyResult, error) {
	start := time.Now()
	result, err := c.next.VerifyToken(ctx, token, requiredAction, resource)
	c.record(ctx, "verify", start, err)
	return result, err
}

// Consume records metrics for capability consumption.
func (c *capabilityUseCaseWithMetrics) Consume(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	start := time.Now()
	grant, err := c.next.Consume(ctx, capabilityID)
	c.record(ctx, "consume", start, err)
	return grant, err
}

// Get records metrics for grant retrieval.
func (c *capabilityUseCaseWithMetrics) Get(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	start := time.Now()
	grant, err := c.next.Get(ctx, capabilityID)
	c.record(ctx, "get", start, err)
	return grant, err
}

// CleanExpired records metrics for expired grant cleanup.
func (c *capabilityUseCaseWithMetrics) CleanExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := c.next.CleanExpired(ctx)
	c.record(ctx, "clean_expired", start, err)
	return deleted, err
}

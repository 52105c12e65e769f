// Package usecase orchestrates the capability grant lifecycle: issuing,
// attenuated delegation, stateless token verification, and use accounting.
package usecase

import (
	"context"
	"time"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	outboxDomain "github.com/sovereignos/guard/internal/outbox/domain"
)

// GrantRepository defines persistence for capability grants.
// Implementations must support transaction-aware operations via context propagation.
type GrantRepository interface {
	// Create stores a new grant for a signed capability.
	Create(ctx context.Context, grant *capDomain.Grant) error

	// GetByCapabilityID retrieves a grant by the capability identifier it
	// records. Returns ErrGrantNotFound if not found.
	GetByCapabilityID(ctx context.Context, capabilityID string) (*capDomain.Grant, error)

	// DecrementUses atomically decrements the use counter of a use-limited
	// grant, refusing to go below zero. Returns the number of rows updated:
	// zero means the grant is exhausted, missing, or unlimited.
	DecrementUses(ctx context.Context, capabilityID string) (int64, error)

	// DeleteExpired removes grants that expired before the given instant and
	// returns how many were deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// OutboxEventRepository defines the outbox operations grant bookkeeping needs.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// IssueCapabilityInput carries the caller-supplied fields for minting a
// capability. TTL of zero selects the configured default.
type IssueCapabilityInput struct {
	Subject     string
	Action      capDomain.Action
	Resource    string
	Constraints map[string]any
	TTL         time.Duration
	Uses        *int
}

// VerifyResult is the outcome of a stateless token verification.
type VerifyResult struct {
	Allowed    bool
	Reason     string
	Capability capDomain.Capability
}

// CapabilityUseCase defines business logic operations for capability grants.
// The issuing authority is the only component that writes grants; verifiers
// stay stateless and consult only the token and the issuer public key.
type CapabilityUseCase interface {
	// Issue mints, signs, and persists a new root capability. The grant row
	// and a capability.issued event are written in one transaction.
	// Issuing requires a configured signer; without one it fails with a
	// configuration error rather than producing unverifiable tokens.
	Issue(ctx context.Context, input *IssueCapabilityInput) (*capDomain.Capability, error)

	// Delegate mints a child capability attenuated from an existing grant.
	// The child may only narrow the parent: action within the parent's
	// action, resource within the parent's pattern, expiry no later, uses no
	// greater. The parent must itself still be valid. A capability.delegated
	// event is written with the grant in one transaction.
	Delegate(
		ctx context.Context,
		parentCapabilityID string,
		input *IssueCapabilityInput,
	) (*capDomain.Capability, error)

	// VerifyToken decodes a capability token and runs the full verification
	// decision against the required action and resource. Policy outcomes are
	// reported in the result; only malformed tokens return an error.
	VerifyToken(
		ctx context.Context,
		token string,
		requiredAction capDomain.Action,
		resource string,
	) (*VerifyResult, error)

	// Consume records one successful authorized use of a capability,
	// decrementing the stored counter exactly once for use-limited grants.
	// Returns ErrGrantExhausted when no uses remain, and the refreshed grant
	// otherwise. Unlimited grants are never decremented.
	Consume(ctx context.Context, capabilityID string) (*capDomain.Grant, error)

	// Get retrieves a grant by capability ID.
	Get(ctx context.Context, capabilityID string) (*capDomain.Grant, error)

	// CleanExpired removes grants whose expiry has passed and returns how
	// many were deleted. This is housekeeping, not revocation: a deleted
	// grant's token was already unusable.
	CleanExpired(ctx context.Context) (int64, error)
}

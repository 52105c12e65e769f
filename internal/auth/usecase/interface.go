// Package usecase defines business logic interfaces for authentication and authorization operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	outboxDomain "github.com/sovereignos/guard/internal/outbox/domain"
)

// ClientRepository defines persistence operations for authentication clients.
// Implementations must support transaction-aware operations via context propagation.
type ClientRepository interface {
	// Create stores a new client in the repository.
	Create(ctx context.Context, client *authDomain.Client) error

	// Update modifies an existing client in the repository.
	Update(ctx context.Context, client *authDomain.Client) error

	// Get retrieves a client by ID. Returns ErrClientNotFound if not found.
	Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error)

	// List retrieves clients ordered by ID descending with pagination.
	List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error)

	// UpdateLockState sets the failed attempt counter and lockout deadline
	// without touching any other column, so lockout bookkeeping never races
	// with concurrent profile updates.
	UpdateLockState(ctx context.Context, clientID uuid.UUID, failedAttempts int, lockedUntil *time.Time) error
}

// TokenRepository defines persistence operations for authentication tokens.
// Implementations must support transaction-aware operations via context propagation.
type TokenRepository interface {
	// Create stores a new token in the repository.
	Create(ctx context.Context, token *authDomain.Token) error

	// Update modifies an existing token in the repository.
	Update(ctx context.Context, token *authDomain.Token) error

	// Get retrieves a token by ID. Returns ErrTokenNotFound if not found.
	Get(ctx context.Context, tokenID uuid.UUID) (*authDomain.Token, error)

	// GetByTokenHash retrieves a token by its SHA-256 hash. Returns
	// ErrTokenNotFound if not found.
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error)

	// DeleteExpired removes tokens that expired before the given instant and
	// returns how many were deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// AuditLogRepository defines persistence operations for the audit trail.
type AuditLogRepository interface {
	// Create stores a new audit log record.
	Create(ctx context.Context, auditLog *authDomain.AuditLog) error

	// List retrieves audit logs ordered by created_at descending with
	// pagination and optional inclusive time bounds (nil means unbounded).
	List(ctx context.Context, offset, limit int, createdAtFrom, createdAtTo *time.Time) ([]*authDomain.AuditLog, error)

	// DeleteOlderThan removes audit logs created before the given instant and
	// returns how many were deleted.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// OutboxEventRepository defines the outbox operations client provisioning needs.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// ClientUseCase defines business logic operations for managing authentication clients.
// It orchestrates client lifecycle including secret generation, scope flattening,
// and soft deletion while maintaining audit history.
type ClientUseCase interface {
	// Create generates a new authentication client with a cryptographically secure secret.
	// Bundle names in the input are expanded exactly once and only the flattened scope
	// list is stored, so later bundle redefinitions never change this client's grant.
	// A client.created event is written in the same transaction.
	//
	// Returns the client ID and plain text secret. The plain secret is only returned once
	// and should be securely transmitted to the client administrator.
	Create(
		ctx context.Context,
		createClientInput *authDomain.CreateClientInput,
	) (*authDomain.CreateClientOutput, error)

	// Update modifies an existing client's name, active status, and scope grant.
	// The client ID, subject, and secret remain unchanged. A client.updated event
	// is written in the same transaction.
	//
	// Returns ErrClientNotFound if the specified client doesn't exist.
	Update(ctx context.Context, clientID uuid.UUID, updateClientInput *authDomain.UpdateClientInput) error

	// Get retrieves a client by ID including its hashed secret and scope grant.
	//
	// Returns ErrClientNotFound if the specified client doesn't exist.
	Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error)

	// Delete performs a soft delete by setting IsActive to false, preventing
	// authentication while preserving the client record for audit purposes.
	//
	// Returns ErrClientNotFound if the specified client doesn't exist.
	Delete(ctx context.Context, clientID uuid.UUID) error

	// List retrieves clients ordered by ID descending with pagination.
	List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error)

	// Unlock clears the lockout state for a client, resetting failed_attempts
	// and locked_until. Returns ErrClientNotFound if the client doesn't exist.
	Unlock(ctx context.Context, clientID uuid.UUID) error
}

// TokenUseCase defines business logic operations for issuing and validating
// authentication tokens.
type TokenUseCase interface {
	// Issue authenticates a client by secret and generates a new token.
	// Repeated failures lock the client out; all credential failures surface
	// as ErrInvalidCredentials so callers cannot probe for valid client IDs.
	Issue(
		ctx context.Context,
		issueTokenInput *authDomain.IssueTokenInput,
	) (*authDomain.IssueTokenOutput, error)

	// Authenticate validates a token hash and returns the associated client.
	Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error)

	// DeleteExpired removes tokens whose expiry has passed and returns how
	// many were deleted. Run periodically as housekeeping.
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuditLogUseCase defines business logic operations for the signed audit trail.
type AuditLogUseCase interface {
	// Record writes one authorization decision to the audit trail, signing it
	// under the active master key when a key chain is configured.
	Record(
		ctx context.Context,
		requestID uuid.UUID,
		clientID uuid.UUID,
		operation string,
		decision authDomain.Decision,
		reason string,
		metadata map[string]any,
	) error

	// List retrieves audit logs ordered by created_at descending (newest
	// first) with pagination and optional inclusive time bounds.
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*authDomain.AuditLog, error)

	// VerifySignatures re-checks the signatures of a page of audit logs and
	// reports tampered or unverifiable records.
	VerifySignatures(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) (*authDomain.AuditVerificationReport, error)

	// DeleteOlderThan removes audit logs created before the given instant and
	// returns how many were deleted. Used by retention housekeeping.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

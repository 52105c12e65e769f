// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authService "github.com/sovereignos/guard/internal/auth/service"
	"github.com/sovereignos/guard/internal/config"
)

// tokenUseCase implements TokenUseCase interface for managing authentication tokens.
type tokenUseCase struct {
	config        *config.Config
	clientRepo    ClientRepository
	tokenRepo     TokenRepository
	secretService authService.SecretService
	tokenService  authService.TokenService
}

// Issue authenticates a client and generates a new authentication token.
//
// This method:
// 1. Validates the client exists, is not locked out, and is active
// 2. Verifies the client secret matches, counting failures toward lockout
// 3. Generates a new token with expiration from config
// 4. Stores the token hash in the database
// 5. Returns the plain token to the caller (only shown once)
//
// Security Notes:
//   - Returns ErrInvalidCredentials for both non-existent clients and wrong secrets
//     to prevent user enumeration attacks
//   - Returns ErrClientLocked while a lockout deadline is in the future; locked
//     clients are rejected before the secret is even compared
//   - Returns ErrClientInactive if the client exists but is not active
//   - Each wrong secret increments failed_attempts; reaching LockoutMaxAttempts
//     sets locked_until to now plus LockoutDuration
//   - A successful authentication resets the failure counter
//   - The plain token is only returned once and should be transmitted securely
//   - Token expiration is set from Config.AuthTokenExpiration
func (t *tokenUseCase) Issue(
	ctx context.Context,
	issueTokenInput *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	// Get the client by ID
	client, err := t.clientRepo.Get(ctx, issueTokenInput.ClientID)
	if err != nil {
		// If client not found, return generic error to prevent enumeration
		if errors.Is(err, authDomain.ErrClientNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()

	// Reject locked clients before touching the secret
	if client.IsLockedAt(now) {
		return nil, authDomain.ErrClientLocked
	}

	// Check if client is active
	if !client.IsActive {
		return nil, authDomain.ErrClientInactive
	}

	// Verify the client secret
	if !t.secretService.CompareSecret(issueTokenInput.ClientSecret, client.Secret) {
		if err := t.recordFailedAttempt(ctx, client, now); err != nil {
			return nil, err
		}
		return nil, authDomain.ErrInvalidCredentials
	}

	// Clear any accumulated failures now that the secret checked out
	if client.FailedAttempts > 0 || client.LockedUntil != nil {
		if err := t.clientRepo.UpdateLockState(ctx, client.ID, 0, nil); err != nil {
			return nil, err
		}
	}

	// Generate a new token
	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	// Create the token entity with expiration from config
	token := &authDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: tokenHash,
		ClientID:  client.ID,
		ExpiresAt: now.Add(t.config.AuthTokenExpiration),
		RevokedAt: nil,
		CreatedAt: now,
	}

	// Persist the token
	if err := t.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	// Return the plain token
	return &authDomain.IssueTokenOutput{
		PlainToken: plainToken,
		ExpiresAt:  token.ExpiresAt,
	}, nil
}

// recordFailedAttempt increments the failure counter and, once the configured
// threshold is reached, sets the lockout deadline. A threshold of zero
// disables lockout entirely and leaves the counter alone.
func (t *tokenUseCase) recordFailedAttempt(ctx context.Context, client *authDomain.Client, now time.Time) error {
	if t.config.LockoutMaxAttempts <= 0 {
		return nil
	}

	attempts := client.FailedAttempts + 1

	var lockedUntil *time.Time
	if attempts >= t.config.LockoutMaxAttempts {
		deadline := now.Add(t.config.LockoutDuration)
		lockedUntil = &deadline
	}

	return t.clientRepo.UpdateLockState(ctx, client.ID, attempts, lockedUntil)
}

// Authenticate validates an authentication token and returns the associated client.
//
// This method:
// 1. Retrieves the token by its hash
// 2. Validates the token is not expired
// 3. Validates the token is not revoked
// 4. Retrieves the associated client
// 5. Validates the client is active
//
// Security Notes:
//   - Returns ErrInvalidCredentials for token not found, expired, or revoked to prevent
//     enumeration attacks and information leakage
//   - Returns ErrInvalidCredentials if the associated client is not found (shouldn't happen
//     due to foreign key constraints, but handled for safety)
//   - Returns ErrClientInactive if the client exists but is not active
//   - All time comparisons use UTC to prevent timezone issues
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - tokenHash: SHA-256 hash of the authentication token
//
// Returns:
//   - The authenticated client if all validations pass
//   - ErrInvalidCredentials if token is invalid, expired, revoked, or client not found
//   - ErrClientInactive if the client is not active
//   - Other errors from repository operations are propagated as-is
func (t *tokenUseCase) Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error) {
	// Get the token by hash
	token, err := t.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		// If token not found, return generic error to prevent enumeration
		if errors.Is(err, authDomain.ErrTokenNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Check if token is expired
	if token.ExpiresAt.Before(time.Now().UTC()) {
		return nil, authDomain.ErrInvalidCredentials
	}

	// Check if token is revoked
	if token.RevokedAt != nil {
		return nil, authDomain.ErrInvalidCredentials
	}

	// Get the associated client
	client, err := t.clientRepo.Get(ctx, token.ClientID)
	if err != nil {
		// If client not found, return generic error (shouldn't happen due to FK, but handle gracefully)
		if errors.Is(err, authDomain.ErrClientNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Check if client is active
	if !client.IsActive {
		return nil, authDomain.ErrClientInactive
	}

	// Return the authenticated client
	return client, nil
}

// DeleteExpired removes tokens whose expiry has passed.
// Returns the number of tokens deleted.
func (t *tokenUseCase) DeleteExpired(ctx context.Context) (int64, error) {
	return t.tokenRepo.DeleteExpired(ctx, time.Now().UTC())
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	config *config.Config,
	clientRepo ClientRepository,
	tokenRepo TokenRepository,
	secretService authService.SecretService,
	tokenService authService.TokenService,
) TokenUseCase {
	return &tokenUseCase{
		config:        config,
		clientRepo:    clientRepo,
		tokenRepo:     tokenRepo,
		secretService: secretService,
		tokenService:  tokenService,
	}
}

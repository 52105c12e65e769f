// Package usecase orchestrates issuer signing key lifecycle: creation,
// rotation, and unsealing into ready-to-use capability signers.
package usecase

import (
	"context"

	capService "github.com/sovereignos/guard/internal/capability/service"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// SigningKeyRepository defines persistence for issuer signing keys.
//
// Implementations must support transaction context via database.GetTx so
// rotation can retire the old key and insert the new one atomically.
type SigningKeyRepository interface {
	// Create stores a new signing key.
	Create(ctx context.Context, key *keysDomain.SigningKey) error

	// Update modifies an existing signing key, typically to retire it
	// during rotation.
	Update(ctx context.Context, key *keysDomain.SigningKey) error

	// GetActive returns the issuer's active signing key, or
	// ErrNoActiveSigningKey when the issuer has none.
	GetActive(ctx context.Context, issuer string) (*keysDomain.SigningKey, error)

	// ListByIssuer returns all of the issuer's keys ordered by version
	// descending (newest first).
	ListByIssuer(ctx context.Context, issuer string) ([]*keysDomain.SigningKey, error)
}

// SigningKeyUseCase manages issuer signing keys end to end.
type SigningKeyUseCase interface {
	// Create mints the issuer's first signing key (version 1), sealed with
	// the chain's active master key.
	Create(
		ctx context.Context,
		masterKeyChain *keysDomain.MasterKeyChain,
		issuer string,
		alg keysDomain.Algorithm,
	) (*keysDomain.SigningKey, error)

	// Rotate retires the issuer's active key and mints the next version
	// atomically. With no existing keys it behaves like Create, so rotation
	// is safe to run unconditionally at provisioning time.
	Rotate(
		ctx context.Context,
		masterKeyChain *keysDomain.MasterKeyChain,
		issuer string,
		alg keysDomain.Algorithm,
	) (*keysDomain.SigningKey, error)

	// ActiveSigner unseals the issuer's active signing seed and returns a
	// capability signer for it. The plaintext seed is zeroed before return.
	ActiveSigner(
		ctx context.Context,
		masterKeyChain *keysDomain.MasterKeyChain,
		issuer string,
	) (*capService.Signer, error)

	// ActivePublicKey returns the hex public key of the issuer's active
	// signing key, for configuring verifiers.
	ActivePublicKey(ctx context.Context, issuer string) (string, error)

	// ListPublic returns all of the issuer's keys, newest first, for the
	// published key list. Sealed seed material is included on the records;
	// the transport layer exposes only public fields.
	ListPublic(ctx context.Context, issuer string) ([]*keysDomain.SigningKey, error)
}

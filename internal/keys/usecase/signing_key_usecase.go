package usecase

import (
	"context"
	"time"

	capService "github.com/sovereignos/guard/internal/capability/service"
	"github.com/sovereignos/guard/internal/database"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
	keysService "github.com/sovereignos/guard/internal/keys/service"
)

// signingKeyUseCase implements SigningKeyUseCase.
type signingKeyUseCase struct {
	txManager database.TxManager
	repo      SigningKeyRepository
	sealer    keysService.SeedSealer
}

// NewSigningKeyUseCase creates a signing key use case with the provided
// dependencies.
func NewSigningKeyUseCase(
	txManager database.TxManager,
	repo SigningKeyRepository,
	sealer keysService.SeedSealer,
) SigningKeyUseCase {
	return &signingKeyUseCase{
		txManager: txManager,
		repo:      repo,
		sealer:    sealer,
	}
}

// Create mints the issuer's first signing key, sealed with the active master
// key.
func (u *signingKeyUseCase) Create(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
	alg keysDomain.Algorithm,
) (*keysDomain.SigningKey, error) {
	masterKey, err := masterKeyChain.Active()
	if err != nil {
		return nil, err
	}

	key, err := u.sealer.CreateSigningKey(masterKey, issuer, 1, alg)
	if err != nil {
		return nil, err
	}

	if err := u.repo.Create(ctx, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// Rotate retires the issuer's current key and mints the next version inside
// one transaction. Verifiers holding the retired public key keep working;
// new capabilities are signed with the fresh seed.
func (u *signingKeyUseCase) Rotate(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
	alg keysDomain.Algorithm,
) (*keysDomain.SigningKey, error) {
	masterKey, err := masterKeyChain.Active()
	if err != nil {
		return nil, err
	}

	var rotated *keysDomain.SigningKey
	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := u.repo.ListByIssuer(ctx, issuer)
		if err != nil {
			return err
		}

		version := uint(1)
		if len(existing) > 0 {
			current := existing[0]
			version = current.Version + 1
			if current.IsActive {
				current.Retire(time.Now().UTC())
				if err := u.repo.Update(ctx, current); err != nil {
					return err
				}
			}
		}

		key, err := u.sealer.CreateSigningKey(masterKey, issuer, version, alg)
		if err != nil {
			return err
		}
		if err := u.repo.Create(ctx, &key); err != nil {
			return err
		}

		rotated = &key
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rotated, nil
}

// ActiveSigner unseals the issuer's active seed and builds a capability
// signer from it.
func (u *signingKeyUseCase) ActiveSigner(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
) (*capService.Signer, error) {
	key, err := u.repo.GetActive(ctx, issuer)
	if err != nil {
		return nil, err
	}

	masterKey, ok := masterKeyChain.Get(key.MasterKeyID)
	if !ok {
		return nil, keysDomain.ErrMasterKeyNotFound
	}

	seed, err := u.sealer.UnsealSeed(key, masterKey)
	if err != nil {
		return nil, err
	}
	defer keysDomain.Zero(seed)

	return capService.NewSignerFromSeed(seed, issuer)
}

// ActivePublicKey returns the hex public key of the issuer's active key.
func (u *signingKeyUseCase) ActivePublicKey(ctx context.Context, issuer string) (string, error) {
	key, err := u.repo.GetActive(ctx, issuer)
	if err != nil {
		return "", err
	}
	return key.PublicKey, nil
}

// ListPublic returns all of the issuer's keys, newest first.
func (u *signingKeyUseCase) ListPublic(
	ctx context.Context, issuer string,
) ([]*keysDomain.SigningKey, error) {
	return u.repo.ListByIssuer(ctx, issuer)
}

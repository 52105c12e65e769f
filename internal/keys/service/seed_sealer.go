package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// SeedSealerService implements SeedSealer. It generates Ed25519 key pairs
// for issuers and seals the 32-byte seed with the master key, binding the
// seal to the issuer and key version through the AEAD's associated data so a
// sealed seed cannot quietly migrate between issuers or versions.
type SeedSealerService struct {
	aeadManager AEADManager
}

// NewSeedSealer creates a SeedSealerService using the provided AEADManager.
func NewSeedSealer(aeadManager AEADManager) *SeedSealerService {
	return &SeedSealerService{aeadManager: aeadManager}
}

// sealAAD binds a sealed seed to its issuer and version.
func sealAAD(issuer string, version uint) []byte {
	return []byte(issuer + ":v" + strconv.FormatUint(uint64(version), 10))
}

// CreateSigningKey generates a fresh Ed25519 key pair and returns the
// signing key record with the seed sealed under the master key. The
// plaintext seed is zeroed before returning; only the sealed blob and the
// public key leave this method.
func (s *SeedSealerService) CreateSigningKey(
	masterKey *keysDomain.MasterKey,
	issuer string,
	version uint,
	alg keysDomain.Algorithm,
) (keysDomain.SigningKey, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return keysDomain.SigningKey{}, fmt.Errorf("failed to generate signing seed: %w", err)
	}
	defer keysDomain.Zero(seed)

	privateKey := ed25519.NewKeyFromSeed(seed)
	publicKey := privateKey.Public().(ed25519.PublicKey)

	aead, err := s.aeadManager.CreateCipher(masterKey.Key, alg)
	if err != nil {
		return keysDomain.SigningKey{}, err
	}

	encryptedSeed, nonce, err := aead.Encrypt(seed, sealAAD(issuer, version))
	if err != nil {
		return keysDomain.SigningKey{}, fmt.Errorf("failed to seal signing seed: %w", err)
	}

	return keysDomain.SigningKey{
		ID:            uuid.Must(uuid.NewV7()),
		Issuer:        issuer,
		Version:       version,
		Algorithm:     alg,
		PublicKey:     hex.EncodeToString(publicKey),
		EncryptedSeed: encryptedSeed,
		Nonce:         nonce,
		MasterKeyID:   masterKey.ID,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// UnsealSeed recovers the plaintext seed of a signing key using the master
// key it was sealed with. The caller must zero the returned buffer once the
// signer is constructed.
func (s *SeedSealerService) UnsealSeed(
	key *keysDomain.SigningKey,
	masterKey *keysDomain.MasterKey,
) ([]byte, error) {
	aead, err := s.aeadManager.CreateCipher(masterKey.Key, key.Algorithm)
	if err != nil {
		return nil, err
	}

	seed, err := aead.Decrypt(key.EncryptedSeed, key.Nonce, sealAAD(key.Issuer, key.Version))
	if err != nil {
		return nil, keysDomain.ErrUnsealFailed
	}
	return seed, nil
}

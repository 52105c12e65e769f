// Package service provides credential primitives for client authentication:
// one-time client secrets hashed with Argon2id and opaque access tokens
// stored by SHA-256 digest.
package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// secretService generates and verifies client secrets. Only the Argon2id hash
// is persisted; the plaintext is shown once at provisioning time.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateSecret produces a 32-byte random client secret together with its
// Argon2id hash. The plaintext is base64url-encoded for transmission.
func (s *secretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random secret")
	}

	plainSecret = base64.URLEncoding.EncodeToString(randomBytes)

	hashedSecret, err := s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}

	return plainSecret, hashedSecret, nil
}

// HashSecret hashes a plaintext secret with Argon2id.
func (s *secretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashedSecret, nil
}

// CompareSecret reports whether plainSecret matches hashedSecret. Comparison
// errors read as a mismatch.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

// NewSecretService returns a SecretService backed by Argon2id with the
// moderate cost policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// Only reachable with an invalid policy constant.
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}

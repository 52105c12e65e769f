package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// tokenService issues opaque access tokens. Tokens are stored as SHA-256
// digests so a database leak does not expose usable credentials, and lookup
// by digest stays an indexed equality match.
type tokenService struct{}

// GenerateToken produces a 32-byte random access token and its SHA-256 hash.
// The plaintext token is base64url-encoded.
func (t *tokenService) GenerateToken() (plainToken string, tokenHash string, error error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken = base64.URLEncoding.EncodeToString(randomBytes)
	tokenHash = t.HashToken(plainToken)

	return plainToken, tokenHash, nil
}

// HashToken returns the hex-encoded SHA-256 digest of plainToken.
func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// NewTokenService returns a TokenService backed by SHA-256 digests.
func NewTokenService() TokenService {
	return &tokenService{}
}

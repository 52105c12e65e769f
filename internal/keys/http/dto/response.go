// Package dto provides data transfer objects for signing key HTTP responses.
package dto

import (
	"time"

	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// SigningKeyResponse represents a signing key in API responses. Only public
// material is exposed; the encrypted seed never leaves the service.
type SigningKeyResponse struct {
	ID        string     `json:"id"`
	Issuer    string     `json:"issuer"`
	Version   uint       `json:"version"`
	Algorithm string     `json:"algorithm"`
	PublicKey string     `json:"public_key"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
}

// MapSigningKeyToResponse converts a domain signing key to an API response.
func MapSigningKeyToResponse(key *keysDomain.SigningKey) SigningKeyResponse {
	return SigningKeyResponse{
		ID:        key.ID.String(),
		Issuer:    key.Issuer,
		Version:   key.Version,
		Algorithm: string(key.Algorithm),
		PublicKey: key.PublicKey,
		IsActive:  key.IsActive,
		CreatedAt: key.CreatedAt,
		RetiredAt: key.RetiredAt,
	}
}

// ListSigningKeysResponse represents the key history of an issuer, newest
// version first.
type ListSigningKeysResponse struct {
	Data []SigningKeyResponse `json:"data"`
}

// MapSigningKeysToListResponse converts a slice of domain signing keys to a
// list API response.
func MapSigningKeysToListResponse(keys []*keysDomain.SigningKey) ListSigningKeysResponse {
	keyResponses := make([]SigningKeyResponse, 0, len(keys))
	for _, key := range keys {
		keyResponses = append(keyResponses, MapSigningKeyToResponse(key))
	}
	return ListSigningKeysResponse{
		Data: keyResponses,
	}
}

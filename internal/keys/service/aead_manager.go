package service

import (
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// AEADManagerService implements AEADManager for the supported seal algorithms.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for the specified algorithm.
// Returns ErrInvalidKeySize if key is not 32 bytes or ErrUnsupportedAlgorithm
// if the algorithm is unknown.
func (am *AEADManagerService) CreateCipher(
	key []byte, alg keysDomain.Algorithm,
) (AEAD, error) {
	if len(key) != 32 {
		return nil, keysDomain.ErrInvalidKeySize
	}

	switch alg {
	case keysDomain.AESGCM:
		return NewAESGCM(key)
	case keysDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, keysDomain.ErrUnsupportedAlgorithm
	}
}

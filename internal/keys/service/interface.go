// Package service provides the cryptographic services behind issuer key
// management: AEAD ciphers for sealing Ed25519 seeds under master keys, and
// KMS access for unwrapping master keys themselves.
package service

import (
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// AEAD defines authenticated encryption with associated data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager creates AEAD cipher instances for a given algorithm.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg keysDomain.Algorithm) (AEAD, error)
}

// SeedSealer manages Ed25519 signing seeds sealed under master keys.
type SeedSealer interface {
	// CreateSigningKey generates a fresh Ed25519 key pair for the issuer and
	// seals its seed with the master key.
	CreateSigningKey(
		masterKey *keysDomain.MasterKey,
		issuer string,
		version uint,
		alg keysDomain.Algorithm,
	) (keysDomain.SigningKey, error)

	// UnsealSeed recovers the plaintext 32-byte seed of a signing key. The
	// caller owns the returned buffer and must zero it after use.
	UnsealSeed(key *keysDomain.SigningKey, masterKey *keysDomain.MasterKey) ([]byte, error)
}

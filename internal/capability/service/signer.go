// Package service implements capability signing and verification. Signers
// hold an Ed25519 private key and belong to the issuing authority; verifiers
// hold at most a public key and run on every request. Both are stateless per
// call and safe for concurrent use.
package service

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	apperrors "github.com/sovereignos/guard/internal/errors"
)

const signaturePrefix = "ed25519:"

// Signer signs capabilities on behalf of one issuer.
type Signer struct {
	key    ed25519.PrivateKey
	issuer string
}

// NewSignerFromSeed builds a signer from a 32-byte Ed25519 seed.
func NewSignerFromSeed(seed []byte, issuer string) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, apperrors.Wrap(
			apperrors.ErrConfiguration,
			fmt.Sprintf("signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed)),
		)
	}
	return &Signer{key: ed25519.NewKeyFromSeed(seed), issuer: issuer}, nil
}

// NewSignerFromHex builds a signer from a hex-encoded 32-byte seed.
func NewSignerFromHex(seedHex, issuer string) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "signing seed is not valid hex")
	}
	return NewSignerFromSeed(seed, issuer)
}

// Issuer returns the issuer name this signer signs as.
func (s *Signer) Issuer() string {
	return s.issuer
}

// PublicKeyHex returns the verification key as hex.
func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.key.Public().(ed25519.PublicKey))
}

// Sign computes the capability's canonical payload, hashes it, signs the
// digest and stores the signature on the capability as "ed25519:<hex>".
// Hashing first keeps the signed message fixed-size regardless of constraint
// payload size.
func (s *Signer) Sign(c *capDomain.Capability) (string, error) {
	payload, err := c.SigningPayload()
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(payload)
	signature := ed25519.Sign(s.key, digest[:])
	c.Signature = signaturePrefix + hex.EncodeToString(signature)
	return c.Signature, nil
}

// Package domain defines the key management models for capability issuance.
//
// It implements a two-tier key hierarchy: Master Key → Issuer Signing Key.
// Each issuer holds one active Ed25519 signing key whose 32-byte seed is
// sealed with a master key before it touches the database. Master keys come
// from the environment or are unwrapped through a KMS, and remain only in
// memory. Rotation retires the active key and mints the next version, so
// verifiers can keep checking tokens signed by retired keys while new tokens
// use the fresh one.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SigningKey is an issuer's Ed25519 key pair at one version. The private
// seed is stored sealed (EncryptedSeed, Nonce) under the master key named by
// MasterKeyID; the plaintext seed never reaches persistence. PublicKey is
// hex-encoded and safe to publish.
type SigningKey struct {
	ID            uuid.UUID
	Issuer        string
	Version       uint
	Algorithm     Algorithm
	PublicKey     string
	EncryptedSeed []byte
	Nonce         []byte
	MasterKeyID   string
	IsActive      bool
	CreatedAt     time.Time
	RetiredAt     *time.Time
}

// Retire marks the key inactive as of the given time. Retired keys stay in
// the database so previously issued capabilities remain verifiable.
func (k *SigningKey) Retire(at time.Time) {
	k.IsActive = false
	t := at.UTC()
	k.RetiredAt = &t
}

package domain

import "context"

// KMSKeeper wraps and unwraps key material through an external key
// management service. *secrets.Keeper from gocloud.dev implements it, which
// lets the domain layer stay free of provider SDKs while production unwraps
// master keys through GCP KMS, AWS KMS, Azure Key Vault, or Vault.
type KMSKeeper interface {
	// Encrypt wraps plaintext key material into a ciphertext blob.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt unwraps a ciphertext blob back into key material.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases any resources held by the underlying provider.
	Close() error
}

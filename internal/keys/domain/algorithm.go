package domain

// Algorithm identifies the AEAD cipher used to seal signing key seeds.
//
// Both supported algorithms provide authenticated encryption with 256-bit
// keys, so a sealed seed cannot be swapped or truncated without detection.
// AESGCM is the default on server CPUs with AES-NI; ChaCha20 performs better
// in software-only environments.
type Algorithm string

const (
	// AESGCM seals seeds with AES-256-GCM (12-byte nonce, 16-byte tag).
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 seals seeds with ChaCha20-Poly1305 (12-byte nonce, 16-byte
	// tag), constant-time without hardware support.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

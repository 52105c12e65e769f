package domain

import (
	"github.com/sovereignos/guard/internal/errors"
)

// Key management errors. Master key problems wrap ErrConfiguration so they
// surface as server errors: a service that cannot load its keys must fail
// closed rather than report an authorization decision.
var (
	// ErrUnsupportedAlgorithm indicates the requested seal algorithm is not
	// one of aes-gcm or chacha20-poly1305.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates key material is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrConfiguration, "invalid key size")

	// ErrUnsealFailed indicates a sealed signing seed failed authenticated
	// decryption: wrong master key, or the stored blob was altered.
	ErrUnsealFailed = errors.Wrap(errors.ErrConfiguration, "unseal failed")

	// ErrMasterKeysNotSet indicates MASTER_KEYS is not configured.
	ErrMasterKeysNotSet = errors.Wrap(errors.ErrConfiguration, "MASTER_KEYS is not set")

	// ErrActiveMasterKeyIDNotSet indicates ACTIVE_MASTER_KEY_ID is not configured.
	ErrActiveMasterKeyIDNotSet = errors.Wrap(
		errors.ErrConfiguration, "ACTIVE_MASTER_KEY_ID is not set",
	)

	// ErrInvalidMasterKeysFormat indicates a MASTER_KEYS entry is not "id:base64".
	ErrInvalidMasterKeysFormat = errors.Wrap(
		errors.ErrConfiguration, "invalid MASTER_KEYS format",
	)

	// ErrInvalidMasterKeyBase64 indicates a master key value is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.Wrap(
		errors.ErrConfiguration, "invalid master key base64",
	)

	// ErrActiveMasterKeyNotFound indicates ACTIVE_MASTER_KEY_ID names a key
	// absent from MASTER_KEYS.
	ErrActiveMasterKeyNotFound = errors.Wrap(
		errors.ErrConfiguration, "active master key not found",
	)

	// ErrMasterKeyNotFound indicates a referenced master key is not in the
	// chain, typically after a rotation removed a key still referenced by a
	// sealed seed.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrConfiguration, "master key not found")

	// ErrSigningKeyNotFound indicates the requested signing key does not exist.
	ErrSigningKeyNotFound = errors.Wrap(errors.ErrNotFound, "signing key not found")

	// ErrNoActiveSigningKey indicates the issuer has no active signing key.
	ErrNoActiveSigningKey = errors.Wrap(errors.ErrNotFound, "no active signing key")
)

package domain

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MasterKey is a 32-byte root key. Master keys seal issuer signing seeds and
// key the audit log MAC; they are never persisted by this service. In
// development they are read directly from the environment, in production the
// environment carries KMS-wrapped blobs that are unwrapped at startup.
type MasterKey struct {
	ID  string
	Key []byte
}

// MasterKeyChain holds the configured master keys with one designated as
// active. Keeping retired keys in the chain lets the service unseal signing
// seeds created before a rotation while new seeds are sealed with the active
// key.
//
// The chain is safe for concurrent readers.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// ActiveMasterKeyID returns the ID of the key used for new seals. It
// corresponds to the ACTIVE_MASTER_KEY_ID environment variable.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Get retrieves a master key by ID, for unsealing material sealed before a
// rotation.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// Active returns the active master key. It fails only if the chain was
// mutated after loading, since the loader validates the active ID.
func (m *MasterKeyChain) Active() (*MasterKey, error) {
	masterKey, ok := m.Get(m.activeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMasterKeyNotFound, m.activeID)
	}
	return masterKey, nil
}

// Close zeroes all key material and resets the chain. Call it on shutdown or
// after a failed load so partial key material does not linger in memory.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(key, value any) bool {
		if masterKey, ok := value.(*MasterKey); ok {
			Zero(masterKey.Key)
		}
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

// LoadMasterKeyChain loads master keys from the environment, optionally
// unwrapping each entry through a KMS keeper.
//
// Two environment variables drive the load:
//   - MASTER_KEYS: comma-separated entries in the form "id:base64value"
//   - ACTIVE_MASTER_KEY_ID: the entry used to seal new signing seeds
//
// With a nil keeper each base64 value must decode to a raw 32-byte key:
//
//	MASTER_KEYS="2025-06:kJc9...Zw==,2026-01:Mds1...pA=="
//	ACTIVE_MASTER_KEY_ID="2026-01"
//
// With a keeper the base64 values are ciphertext blobs produced by the KMS,
// and each must unwrap to 32 bytes. Temporary plaintext buffers are zeroed
// once copied into the chain, and the chain is closed on any error so a
// partial load never survives.
func LoadMasterKeyChain(ctx context.Context, keeper KMSKeeper) (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := &MasterKeyChain{activeID: active}

	parts := strings.SplitSeq(raw, ",")
	for part := range parts {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}
		if keeper != nil {
			wrapped := key
			key, err = keeper.Decrypt(ctx, wrapped)
			if err != nil {
				mkc.Close()
				return nil, fmt.Errorf("unwrap master key %s: %w", id, err)
			}
		}
		if len(key) != 32 {
			Zero(key)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be 32 bytes, got %d",
				ErrInvalidKeySize,
				id,
				len(key),
			)
		}
		mkc.keys.Store(id, &MasterKey{ID: id, Key: bytes.Clone(key)})
		Zero(key)
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}

// LoadMasterKeyChainFromEnv loads master keys from the environment without a
// KMS, for development and the CLI.
func LoadMasterKeyChainFromEnv() (*MasterKeyChain, error) {
	return LoadMasterKeyChain(context.Background(), nil)
}

package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

func TestAEADManager_CreateCipher(t *testing.T) {
	manager := NewAEADManager()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	for _, alg := range []keysDomain.Algorithm{keysDomain.AESGCM, keysDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			aead, err := manager.CreateCipher(key, alg)
			require.NoError(t, err)

			plaintext := []byte("issuer signing seed material")
			aad := []byte("river:v1")

			ciphertext, nonce, err := aead.Encrypt(plaintext, aad)
			require.NoError(t, err)
			assert.NotEqual(t, plaintext, ciphertext)
			assert.Len(t, nonce, 12)

			decrypted, err := aead.Decrypt(ciphertext, nonce, aad)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		})
	}
}

func TestAEADManager_InvalidKeySize(t *testing.T) {
	manager := NewAEADManager()

	for _, size := range []int{0, 16, 31, 33, 64} {
		_, err := manager.CreateCipher(make([]byte, size), keysDomain.AESGCM)
		assert.ErrorIs(t, err, keysDomain.ErrInvalidKeySize, "size %d", size)
	}
}

func TestAEADManager_UnsupportedAlgorithm(t *testing.T) {
	manager := NewAEADManager()

	_, err := manager.CreateCipher(make([]byte, 32), keysDomain.Algorithm("des"))
	assert.ErrorIs(t, err, keysDomain.ErrUnsupportedAlgorithm)
}

func TestAEAD_AADMismatchFails(t *testing.T) {
	manager := NewAEADManager()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	aead, err := manager.CreateCipher(key, keysDomain.AESGCM)
	require.NoError(t, err)

	ciphertext, nonce, err := aead.Encrypt([]byte("seed"), []byte("river:v1"))
	require.NoError(t, err)

	_, err = aead.Decrypt(ciphertext, nonce, []byte("river:v2"))
	assert.Error(t, err)
}

func TestAEAD_CrossAlgorithmDecryptFails(t *testing.T) {
	manager := NewAEADManager()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	gcm, err := manager.CreateCipher(key, keysDomain.AESGCM)
	require.NoError(t, err)
	chacha, err := manager.CreateCipher(key, keysDomain.ChaCha20)
	require.NoError(t, err)

	ciphertext, nonce, err := gcm.Encrypt([]byte("seed"), nil)
	require.NoError(t, err)

	_, err = chacha.Decrypt(ciphertext, nonce, nil)
	assert.Error(t, err)
}

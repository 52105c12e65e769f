package domain

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeeper simulates a KMS by prefixing plaintext with a marker.
type fakeKeeper struct {
	decryptErr error
}

func (f *fakeKeeper) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	return append([]byte("wrapped:"), plaintext...), nil
}

func (f *fakeKeeper) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}
	unwrapped, ok := bytes.CutPrefix(ciphertext, []byte("wrapped:"))
	if !ok {
		return nil, errors.New("not a wrapped blob")
	}
	return bytes.Clone(unwrapped), nil
}

func (f *fakeKeeper) Close() error { return nil }

func TestMasterKeyChain_ActiveMasterKeyID(t *testing.T) {
	mkc := &MasterKeyChain{activeID: "2026-01"}
	assert.Equal(t, "2026-01", mkc.ActiveMasterKeyID())
}

func TestMasterKeyChain_Get(t *testing.T) {
	mkc := &MasterKeyChain{}
	testKey := &MasterKey{
		ID:  "2026-01",
		Key: []byte("12345678901234567890123456789012"),
	}
	mkc.keys.Store("2026-01", testKey)

	key, found := mkc.Get("2026-01")
	require.True(t, found)
	assert.Equal(t, testKey.ID, key.ID)
	assert.Equal(t, testKey.Key, key.Key)

	key, found = mkc.Get("missing")
	assert.False(t, found)
	assert.Nil(t, key)
}

func TestMasterKeyChain_Active(t *testing.T) {
	mkc := &MasterKeyChain{activeID: "2026-01"}
	mkc.keys.Store("2026-01", &MasterKey{ID: "2026-01", Key: make([]byte, 32)})

	key, err := mkc.Active()
	require.NoError(t, err)
	assert.Equal(t, "2026-01", key.ID)

	empty := &MasterKeyChain{activeID: "gone"}
	_, err = empty.Active()
	assert.ErrorIs(t, err, ErrMasterKeyNotFound)
}

func TestMasterKeyChain_Close(t *testing.T) {
	key1 := &MasterKey{ID: "2025-06", Key: []byte("12345678901234567890123456789012")}
	key2 := &MasterKey{ID: "2026-01", Key: []byte("abcdefghijklmnopqrstuvwxyz123456")}

	mkc := &MasterKeyChain{activeID: "2026-01"}
	mkc.keys.Store(key1.ID, key1)
	mkc.keys.Store(key2.ID, key2)

	mkc.Close()

	assert.Equal(t, "", mkc.activeID)
	_, found := mkc.Get("2025-06")
	assert.False(t, found)
	_, found = mkc.Get("2026-01")
	assert.False(t, found)

	// Key material is zeroed, not just dropped.
	assert.Equal(t, make([]byte, 32), key1.Key)
	assert.Equal(t, make([]byte, 32), key2.Key)
}

func TestLoadMasterKeyChainFromEnv(t *testing.T) {
	key1 := base64.StdEncoding.EncodeToString([]byte("12345678901234567890123456789012"))
	key2 := base64.StdEncoding.EncodeToString([]byte("abcdefghijklmnopqrstuvwxyz123456"))

	tests := []struct {
		name              string
		masterKeys        string
		activeMasterKeyID string
		wantErr           error
		validateFunc      func(*testing.T, *MasterKeyChain)
	}{
		{
			name:              "valid single key",
			masterKeys:        "2026-01:" + key1,
			activeMasterKeyID: "2026-01",
			validateFunc: func(t *testing.T, mkc *MasterKeyChain) {
				assert.Equal(t, "2026-01", mkc.ActiveMasterKeyID())
				mk, found := mkc.Get("2026-01")
				require.True(t, found)
				assert.Equal(t, "2026-01", mk.ID)
				assert.Equal(t, []byte("12345678901234567890123456789012"), mk.Key)
			},
		},
		{
			name:              "valid multiple keys",
			masterKeys:        "2025-06:" + key1 + ",2026-01:" + key2,
			activeMasterKeyID: "2026-01",
			validateFunc: func(t *testing.T, mkc *MasterKeyChain) {
				assert.Equal(t, "2026-01", mkc.ActiveMasterKeyID())
				_, found := mkc.Get("2025-06")
				assert.True(t, found)
				_, found = mkc.Get("2026-01")
				assert.True(t, found)
			},
		},
		{
			name:              "whitespace around entries",
			masterKeys:        " 2025-06:" + key1 + " , 2026-01:" + key2,
			activeMasterKeyID: "2025-06",
			validateFunc: func(t *testing.T, mkc *MasterKeyChain) {
				_, found := mkc.Get("2026-01")
				assert.True(t, found)
			},
		},
		{
			name:              "missing MASTER_KEYS",
			masterKeys:        "",
			activeMasterKeyID: "2026-01",
			wantErr:           ErrMasterKeysNotSet,
		},
		{
			name:              "missing ACTIVE_MASTER_KEY_ID",
			masterKeys:        "2026-01:" + key1,
			activeMasterKeyID: "",
			wantErr:           ErrActiveMasterKeyIDNotSet,
		},
		{
			name:              "entry without separator",
			masterKeys:        "justanid",
			activeMasterKeyID: "justanid",
			wantErr:           ErrInvalidMasterKeysFormat,
		},
		{
			name:              "invalid base64",
			masterKeys:        "2026-01:not-base64!!!",
			activeMasterKeyID: "2026-01",
			wantErr:           ErrInvalidMasterKeyBase64,
		},
		{
			name:              "wrong key size",
			masterKeys:        "2026-01:" + base64.StdEncoding.EncodeToString([]byte("short")),
			activeMasterKeyID: "2026-01",
			wantErr:           ErrInvalidKeySize,
		},
		{
			name:              "active key not in chain",
			masterKeys:        "2026-01:" + key1,
			activeMasterKeyID: "2099-12",
			wantErr:           ErrActiveMasterKeyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MASTER_KEYS", tt.masterKeys)
			t.Setenv("ACTIVE_MASTER_KEY_ID", tt.activeMasterKeyID)

			mkc, err := LoadMasterKeyChainFromEnv()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			defer mkc.Close()
			tt.validateFunc(t, mkc)
		})
	}
}

func TestLoadMasterKeyChain_WithKeeper(t *testing.T) {
	ctx := context.Background()
	keeper := &fakeKeeper{}
	plaintext := []byte("12345678901234567890123456789012")

	wrapped, err := keeper.Encrypt(ctx, plaintext)
	require.NoError(t, err)

	t.Setenv("MASTER_KEYS", "2026-01:"+base64.StdEncoding.EncodeToString(wrapped))
	t.Setenv("ACTIVE_MASTER_KEY_ID", "2026-01")

	mkc, err := LoadMasterKeyChain(ctx, keeper)
	require.NoError(t, err)
	defer mkc.Close()

	mk, found := mkc.Get("2026-01")
	require.True(t, found)
	assert.Equal(t, plaintext, mk.Key)
}

func TestLoadMasterKeyChain_KeeperFailure(t *testing.T) {
	t.Setenv("MASTER_KEYS", "2026-01:"+base64.StdEncoding.EncodeToString(make([]byte, 48)))
	t.Setenv("ACTIVE_MASTER_KEY_ID", "2026-01")

	keeper := &fakeKeeper{decryptErr: errors.New("kms unavailable")}
	_, err := LoadMasterKeyChain(context.Background(), keeper)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unwrap master key 2026-01")
}

func TestLoadMasterKeyChain_WrappedKeyWrongSize(t *testing.T) {
	ctx := context.Background()
	keeper := &fakeKeeper{}

	wrapped, err := keeper.Encrypt(ctx, []byte("too short"))
	require.NoError(t, err)

	t.Setenv("MASTER_KEYS", "2026-01:"+base64.StdEncoding.EncodeToString(wrapped))
	t.Setenv("ACTIVE_MASTER_KEY_ID", "2026-01")

	_, err = LoadMasterKeyChain(ctx, keeper)
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestLoadMasterKeyChain_StoredKeySurvivesTemporaryZeroing(t *testing.T) {
	raw := []byte("12345678901234567890123456789012")
	t.Setenv("MASTER_KEYS", "2026-01:"+base64.StdEncoding.EncodeToString(raw))
	t.Setenv("ACTIVE_MASTER_KEY_ID", "2026-01")

	mkc, err := LoadMasterKeyChainFromEnv()
	require.NoError(t, err)
	defer mkc.Close()

	// The loader zeroes its temporary buffer after copying; the chain must
	// hold an independent copy.
	mk, found := mkc.Get("2026-01")
	require.True(t, found)
	assert.Equal(t, raw, mk.Key)
	assert.NotEqual(t, make([]byte, 32), mk.Key)
}

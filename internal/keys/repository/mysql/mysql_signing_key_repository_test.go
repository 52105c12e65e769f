package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
	"github.com/sovereignos/guard/internal/testutil"
)

func newTestSigningKey(issuer string, version uint, active bool) *keysDomain.SigningKey {
	return &keysDomain.SigningKey{
		ID:            uuid.Must(uuid.NewV7()),
		Issuer:        issuer,
		Version:       version,
		Algorithm:     keysDomain.ChaCha20,
		PublicKey:     "aabbccdd00112233",
		EncryptedSeed: []byte("sealed-seed-material"),
		Nonce:         []byte("nonce-123456"),
		MasterKeyID:   "2026-01",
		IsActive:      active,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestNewMySQLSigningKeyRepository(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewMySQLSigningKeyRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &MySQLSigningKeyRepository{}, repo)
}

func TestMySQLSigningKeyRepository_CreateAndGetActive(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSigningKeyRepository(db)
	ctx := context.Background()

	key := newTestSigningKey("river", 1, true)

	err := repo.Create(ctx, key)
	require.NoError(t, err)

	got, err := repo.GetActive(ctx, "river")
	require.NoError(t, err)

	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, key.Issuer, got.Issuer)
	assert.Equal(t, key.Version, got.Version)
	assert.Equal(t, key.Algorithm, got.Algorithm)
	assert.Equal(t, key.PublicKey, got.PublicKey)
	assert.Equal(t, key.EncryptedSeed, got.EncryptedSeed)
	assert.Equal(t, key.Nonce, got.Nonce)
	assert.Equal(t, key.MasterKeyID, got.MasterKeyID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.RetiredAt)
	assert.WithinDuration(t, key.CreatedAt, got.CreatedAt, time.Second)
}

func TestMySQLSigningKeyRepository_GetActive_NoKeys(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSigningKeyRepository(db)

	_, err := repo.GetActive(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, keysDomain.ErrNoActiveSigningKey)
}

func TestMySQLSigningKeyRepository_Update_Retire(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSigningKeyRepository(db)
	ctx := context.Background()

	key := newTestSigningKey("river", 1, true)
	require.NoError(t, repo.Create(ctx, key))

	key.Retire(time.Now().UTC())
	err := repo.Update(ctx, key)
	require.NoError(t, err)

	_, err = repo.GetActive(ctx, "river")
	assert.ErrorIs(t, err, keysDomain.ErrNoActiveSigningKey)

	keys, err := repo.ListByIssuer(ctx, "river")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.False(t, keys[0].IsActive)
	require.NotNil(t, keys[0].RetiredAt)
	assert.WithinDuration(t, *key.RetiredAt, *keys[0].RetiredAt, time.Second)
}

func TestMySQLSigningKeyRepository_Update_NotFound(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSigningKeyRepository(db)

	missing := newTestSigningKey("river", 1, false)
	err := repo.Update(context.Background(), missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, keysDomain.ErrSigningKeyNotFound)
}

func TestMySQLSigningKeyRepository_ListByIssuer(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSigningKeyRepository(db)
	ctx := context.Background()

	v1 := newTestSigningKey("river", 1, false)
	retiredAt := time.Now().UTC().Add(-2 * time.Hour)
	v1.RetiredAt = &retiredAt
	v2 := newTestSigningKey("river", 2, true)
	other := newTestSigningKey("meadow", 1, true)

	require.NoError(t, repo.Create(ctx, v1))
	require.NoError(t, repo.Create(ctx, v2))
	require.NoError(t, repo.Create(ctx, other))

	keys, err := repo.ListByIssuer(ctx, "river")
	require.NoError(t, err)
	require.Len(t, keys, 2)

	// Newest version first
	assert.Equal(t, uint(2), keys[0].Version)
	assert.Equal(t, uint(1), keys[1].Version)
	assert.NotNil(t, keys[1].RetiredAt)
}

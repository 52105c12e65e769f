package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	"github.com/sovereignos/guard/internal/database"
	"github.com/sovereignos/guard/internal/scopes"
	"github.com/sovereignos/guard/internal/testutil"
)

func newTestClient(name string) *authDomain.Client {
	return &authDomain.Client{
		ID:       uuid.Must(uuid.NewV7()),
		Secret:   "hashed-secret",
		Name:     name,
		Subject:  "agent:" + name,
		IsActive: true,
		Scopes: []scopes.Scope{
			scopes.AgentRead,
			scopes.MemoryRead,
			scopes.MemoryWrite,
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestNewMySQLClientRepository(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewMySQLClientRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &MySQLClientRepository{}, repo)
}

func TestMySQLClientRepository_Create(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestClient("create-client-mysql")

	err := repo.Create(ctx, client)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)

	assert.Equal(t, client.ID, retrieved.ID)
	assert.Equal(t, client.Secret, retrieved.Secret)
	assert.Equal(t, client.Name, retrieved.Name)
	assert.Equal(t, client.Subject, retrieved.Subject)
	assert.True(t, retrieved.IsActive)
	assert.Equal(t, client.Scopes, retrieved.Scopes)
	assert.Equal(t, 0, retrieved.FailedAttempts)
	assert.Nil(t, retrieved.LockedUntil)
	assert.WithinDuration(t, client.CreatedAt, retrieved.CreatedAt, time.Second)
}

func TestMySQLClientRepository_Update(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestClient("update-client-mysql")
	err := repo.Create(ctx, client)
	require.NoError(t, err)

	client.Name = "renamed-client-mysql"
	client.IsActive = false
	client.Scopes = []scopes.Scope{scopes.SystemHealth}

	err = repo.Update(ctx, client)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed-client-mysql", retrieved.Name)
	assert.False(t, retrieved.IsActive)
	assert.Equal(t, []scopes.Scope{scopes.SystemHealth}, retrieved.Scopes)
	// Subject is immutable after creation
	assert.Equal(t, client.Subject, retrieved.Subject)
}

func TestMySQLClientRepository_Update_PreservesLockState(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestClient("locked-update-client-mysql")
	err := repo.Create(ctx, client)
	require.NoError(t, err)

	lockedUntil := time.Now().UTC().Add(30 * time.Minute)
	err = repo.UpdateLockState(ctx, client.ID, 3, &lockedUntil)
	require.NoError(t, err)

	// A profile update must not touch the lockout columns
	client.Name = "renamed-while-locked-mysql"
	err = repo.Update(ctx, client)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed-while-locked-mysql", retrieved.Name)
	assert.Equal(t, 3, retrieved.FailedAttempts)
	require.NotNil(t, retrieved.LockedUntil)
	assert.WithinDuration(t, lockedUntil, *retrieved.LockedUntil, time.Second)
}

func TestMySQLClientRepository_Update_NonExistent(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestClient("ghost-client-mysql")

	err := repo.Update(ctx, client)
	assert.ErrorIs(t, err, authDomain.ErrClientNotFound)
}

func TestMySQLClientRepository_Get_NotFound(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	retrieved, err := repo.Get(ctx, uuid.Must(uuid.NewV7()))
	assert.Error(t, err)
	assert.Nil(t, retrieved)
	assert.ErrorIs(t, err, authDomain.ErrClientNotFound)
}

func TestMySQLClientRepository_List(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	first := newTestClient("list-client-mysql-1")
	second := newTestClient("list-client-mysql-2")
	third := newTestClient("list-client-mysql-3")

	for _, c := range []*authDomain.Client{first, second, third} {
		require.NoError(t, repo.Create(ctx, c))
	}

	// UUIDv7 binary sorts chronologically, so id DESC means newest first
	clients, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, third.ID, clients[0].ID)
	assert.Equal(t, second.ID, clients[1].ID)
	assert.Equal(t, first.ID, clients[2].ID)

	// Pagination
	clients, err = repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, second.ID, clients[0].ID)
}

func TestMySQLClientRepository_List_Empty(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	clients, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, clients)
	assert.Empty(t, clients)
}

func TestMySQLClientRepository_UpdateLockState(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestClient("lock-state-client-mysql")
	err := repo.Create(ctx, client)
	require.NoError(t, err)

	lockedUntil := time.Now().UTC().Add(30 * time.Minute)
	err = repo.UpdateLockState(ctx, client.ID, 5, &lockedUntil)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, retrieved.FailedAttempts)
	require.NotNil(t, retrieved.LockedUntil)
	assert.WithinDuration(t, lockedUntil, *retrieved.LockedUntil, time.Second)

	// Clearing the lock resets both columns
	err = repo.UpdateLockState(ctx, client.ID, 0, nil)
	require.NoError(t, err)

	retrieved, err = repo.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, retrieved.FailedAttempts)
	assert.Nil(t, retrieved.LockedUntil)
}

func TestMySQLClientRepository_UpdateLockState_NonExistent(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	err := repo.UpdateLockState(ctx, uuid.Must(uuid.NewV7()), 1, nil)
	assert.ErrorIs(t, err, authDomain.ErrClientNotFound)
}

func TestMySQLClientRepository_Create_WithTransactionRollback(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	txManager := database.NewTxManager(db)
	ctx := context.Background()

	client := newTestClient("tx-rollback-client-mysql")

	txErr := errors.New("boom")
	err := txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, client); err != nil {
			return err
		}
		return txErr
	})
	require.ErrorIs(t, err, txErr)

	// The insert rolled back with the transaction
	retrieved, err := repo.Get(ctx, client.ID)
	assert.Nil(t, retrieved)
	assert.ErrorIs(t, err, authDomain.ErrClientNotFound)
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	outboxDomain "github.com/sovereignos/guard/internal/outbox/domain"
	"github.com/sovereignos/guard/internal/scopes"
)

// mockTxManager is a mock implementation of database.TxManager for testing.
// When the expectation returns nil the wrapped function is executed, so the
// logic inside the transaction is still exercised.
type mockTxManager struct {
	mock.Mock
}

func (m *mockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// mockClientRepository is a mock implementation of ClientRepository for testing.
type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) Create(ctx context.Context, client *authDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) Update(ctx context.Context, client *authDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Client), args.Error(1)
}

func (m *mockClientRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Client), args.Error(1)
}

func (m *mockClientRepository) UpdateLockState(
	ctx context.Context,
	clientID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	args := m.Called(ctx, clientID, failedAttempts, lockedUntil)
	return args.Error(0)
}

// mockSecretService is a mock implementation of SecretService for testing.
type mockSecretService struct {
	mock.Mock
}

func (m *mockSecretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockSecretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	args := m.Called(plainSecret)
	return args.String(0), args.Error(1)
}

func (m *mockSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

// mockOutboxEventRepository is a mock implementation of OutboxEventRepository for testing.
type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestClientUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FlattensBundlesAndScopes", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		plainSecret := "plain-secret-abc123"                         //nolint:gosec // test fixture, not a real credential
		hashedSecret := "$argon2id$v=19$m=65536,t=3,p=4$test-hash"   //nolint:gosec // test fixture, not a real credential
		createInput := &authDomain.CreateClientInput{
			Name:     "meadow-agent",
			Subject:  "agent:kasra",
			IsActive: true,
			Scopes:   []string{"readonly", "memory.write"},
		}

		var createdClient *authDomain.Client

		// Setup expectations
		mockSecret.On("GenerateSecret").
			Return(plainSecret, hashedSecret, nil).
			Once()

		mockTx.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()

		mockClientRepo.On("Create", ctx, mock.MatchedBy(func(client *authDomain.Client) bool {
			createdClient = client
			return client.Secret == hashedSecret &&
				client.Name == "meadow-agent" &&
				client.Subject == "agent:kasra" &&
				client.IsActive &&
				!client.CreatedAt.IsZero()
		})).
			Return(nil).
			Once()

		mockOutboxRepo.On("Create", ctx, mock.MatchedBy(func(event *outboxDomain.OutboxEvent) bool {
			return event.EventType == "client.created" &&
				event.Status == outboxDomain.OutboxEventStatusPending &&
				event.Retries == 0 &&
				strings.Contains(event.Payload, `"subject":"agent:kasra"`)
		})).
			Return(nil).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		output, err := uc.Create(ctx, createInput)

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.Equal(t, plainSecret, output.PlainSecret)
		assert.Equal(t, createdClient.ID, output.ID)

		// The readonly bundle expands and merges with the explicit scope
		assert.Equal(t, []scopes.Scope{
			scopes.AgentRead,
			scopes.EconomyRead,
			scopes.IdentityRead,
			scopes.MemoryRead,
			scopes.MemoryWrite,
			scopes.SystemHealth,
			scopes.ToolsList,
		}, createdClient.Scopes)

		mockSecret.AssertExpectations(t)
		mockTx.AssertExpectations(t)
		mockClientRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("Success_EmptyScopeGrantAllowed", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		createInput := &authDomain.CreateClientInput{
			Name:     "scopeless-client",
			Subject:  "user:river",
			IsActive: true,
		}

		// Setup expectations
		mockSecret.On("GenerateSecret").
			Return("plain", "hashed", nil).
			Once()

		mockTx.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()

		mockClientRepo.On("Create", ctx, mock.MatchedBy(func(client *authDomain.Client) bool {
			return len(client.Scopes) == 0
		})).
			Return(nil).
			Once()

		mockOutboxRepo.On("Create", ctx, mock.AnythingOfType("*domain.OutboxEvent")).
			Return(nil).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		output, err := uc.Create(ctx, createInput)

		// Assert - a client with no scopes can authenticate but passes no scope check
		assert.NoError(t, err)
		assert.NotNil(t, output)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_SecretGenerationFails", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		expectedErr := errors.New("failed to generate random secret")

		// Setup expectations
		mockSecret.On("GenerateSecret").
			Return("", "", expectedErr).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		output, err := uc.Create(ctx, &authDomain.CreateClientInput{Name: "x", Subject: "user:x"})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
		mockTx.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
		mockSecret.AssertExpectations(t)
	})

	t.Run("Error_RepositoryCreateFails", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		expectedErr := errors.New("database error")

		// Setup expectations
		mockSecret.On("GenerateSecret").
			Return("plain", "hashed", nil).
			Once()

		mockTx.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()

		mockClientRepo.On("Create", ctx, mock.AnythingOfType("*domain.Client")).
			Return(expectedErr).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		output, err := uc.Create(ctx, &authDomain.CreateClientInput{Name: "x", Subject: "user:x"})

		// Assert - the transaction surfaces the repository error unchanged
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
		mockOutboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_OutboxCreateFails", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		// Setup expectations
		mockSecret.On("GenerateSecret").
			Return("plain", "hashed", nil).
			Once()

		mockTx.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()

		mockClientRepo.On("Create", ctx, mock.AnythingOfType("*domain.Client")).
			Return(nil).
			Once()

		mockOutboxRepo.On("Create", ctx, mock.AnythingOfType("*domain.OutboxEvent")).
			Return(errors.New("outbox insert failed")).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		output, err := uc.Create(ctx, &authDomain.CreateClientInput{Name: "x", Subject: "user:x"})

		// Assert - event write failure rolls the whole creation back
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorContains(t, err, "failed to create outbox event")
	})
}

func TestClientUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_UpdatesMutableFields", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())
		existing := &authDomain.Client{
			ID:        clientID,
			Secret:    "hashed-secret",
			Name:      "old-name",
			Subject:   "agent:kasra",
			IsActive:  true,
			Scopes:    []scopes.Scope{scopes.MemoryRead},
			CreatedAt: time.Now().UTC(),
		}

		updateInput := &authDomain.UpdateClientInput{
			Name:     "new-name",
			IsActive: false,
			Scopes:   []string{"memory.write", "memory.read"},
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(existing, nil).
			Once()

		mockTx.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()

		mockClientRepo.On("Update", ctx, mock.MatchedBy(func(client *authDomain.Client) bool {
			return client.ID == clientID &&
				client.Name == "new-name" &&
				!client.IsActive &&
				client.Subject == "agent:kasra" &&
				client.Secret == "hashed-secret"
		})).
			Return(nil).
			Once()

		mockOutboxRepo.On("Create", ctx, mock.MatchedBy(func(event *outboxDomain.OutboxEvent) bool {
			return event.EventType == "client.updated" &&
				strings.Contains(event.Payload, `"is_active":false`)
		})).
			Return(nil).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		err := uc.Update(ctx, clientID, updateInput)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, []scopes.Scope{scopes.MemoryRead, scopes.MemoryWrite}, existing.Scopes)
		mockClientRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		err := uc.Update(ctx, clientID, &authDomain.UpdateClientInput{Name: "x"})

		// Assert
		assert.Error(t, err)
		assert.Equal(t, authDomain.ErrClientNotFound, err)
		mockClientRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestClientUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_GetExistingClient", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:      clientID,
			Name:    "test-client",
			Subject: "user:river",
			Scopes:  []scopes.Scope{scopes.SystemHealth},
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		got, err := uc.Get(ctx, clientID)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, client, got)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		got, err := uc.Get(ctx, clientID)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, authDomain.ErrClientNotFound, err)
	})
}

func TestClientUseCase_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SoftDeleteDeactivates", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Name:     "doomed-client",
			Subject:  "user:river",
			IsActive: true,
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockTx.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()

		mockClientRepo.On("Update", ctx, mock.MatchedBy(func(updated *authDomain.Client) bool {
			return updated.ID == clientID && !updated.IsActive
		})).
			Return(nil).
			Once()

		mockOutboxRepo.On("Create", ctx, mock.MatchedBy(func(event *outboxDomain.OutboxEvent) bool {
			return event.EventType == "client.updated" &&
				strings.Contains(event.Payload, `"is_active":false`)
		})).
			Return(nil).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		err := uc.Delete(ctx, clientID)

		// Assert - the record survives for audit history, it just can't authenticate
		assert.NoError(t, err)
		mockClientRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		err := uc.Delete(ctx, clientID)

		// Assert
		assert.Error(t, err)
		assert.Equal(t, authDomain.ErrClientNotFound, err)
	})
}

func TestClientUseCase_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ListClients", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clients := []*authDomain.Client{
			{ID: uuid.Must(uuid.NewV7()), Name: "client-b"},
			{ID: uuid.Must(uuid.NewV7()), Name: "client-a"},
		}

		// Setup expectations
		mockClientRepo.On("List", ctx, 0, 50).
			Return(clients, nil).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		got, err := uc.List(ctx, 0, 50)

		// Assert
		assert.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, clients, got)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_RepositoryFails", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		expectedErr := errors.New("database error")

		// Setup expectations
		mockClientRepo.On("List", ctx, 10, 20).
			Return(nil, expectedErr).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		got, err := uc.List(ctx, 10, 20)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, expectedErr, err)
	})
}

func TestClientUseCase_Unlock(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ClearsLockState", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())
		lockedUntil := time.Now().UTC().Add(30 * time.Minute)
		client := &authDomain.Client{
			ID:             clientID,
			Name:           "locked-client",
			Subject:        "user:river",
			IsActive:       true,
			FailedAttempts: 10,
			LockedUntil:    &lockedUntil,
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockClientRepo.On("UpdateLockState", ctx, clientID, 0, (*time.Time)(nil)).
			Return(nil).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		err := uc.Unlock(ctx, clientID)

		// Assert
		assert.NoError(t, err)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		// Setup mocks
		mockTx := &mockTxManager{}
		mockClientRepo := &mockClientRepository{}
		mockSecret := &mockSecretService{}
		mockOutboxRepo := &mockOutboxEventRepository{}

		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		// Execute
		uc := NewClientUseCase(mockTx, mockClientRepo, mockSecret, mockOutboxRepo)
		err := uc.Unlock(ctx, clientID)

		// Assert
		assert.Error(t, err)
		assert.Equal(t, authDomain.ErrClientNotFound, err)
		mockClientRepo.AssertNotCalled(t, "UpdateLockState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

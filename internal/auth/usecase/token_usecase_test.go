package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	"github.com/sovereignos/guard/internal/config"
)

// mockTokenService is a mock implementation of TokenService for testing.
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateToken() (plainToken string, tokenHash string, error error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTokenService) HashToken(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}

// mockTokenRepository is a mock implementation of TokenRepository for testing.
type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) Create(ctx context.Context, token *authDomain.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenRepository) Update(ctx context.Context, token *authDomain.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*authDomain.Token, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Token), args.Error(1)
}

func (m *mockTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Token), args.Error(1)
}

func (m *mockTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func TestTokenUseCase_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_IssueTokenWithValidCredentials", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		// Test data
		clientID := uuid.Must(uuid.NewV7())
		clientSecret := "test-client-secret-abc123"                //nolint:gosec // test fixture, not a real credential
		hashedSecret := "$argon2id$v=19$m=65536,t=3,p=4$test-hash" //nolint:gosec // test fixture, not a real credential
		plainToken := "test-token-xyz789"
		tokenHash := "abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"

		client := &authDomain.Client{
			ID:       clientID,
			Secret:   hashedSecret,
			Name:     "test-client",
			Subject:  "agent:kasra",
			IsActive: true,
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", clientSecret, hashedSecret).
			Return(true).
			Once()

		mockTokenService.On("GenerateToken").
			Return(plainToken, tokenHash, nil).
			Once()

		mockTokenRepo.On("Create", ctx, mock.MatchedBy(func(token *authDomain.Token) bool {
			return token.TokenHash == tokenHash &&
				token.ClientID == clientID &&
				token.RevokedAt == nil &&
				!token.ExpiresAt.IsZero() &&
				!token.CreatedAt.IsZero()
		})).
			Return(nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.Equal(t, plainToken, output.PlainToken)
		assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), output.ExpiresAt, time.Second)
		mockClientRepo.AssertExpectations(t)
		mockSecretService.AssertExpectations(t)
		mockTokenService.AssertExpectations(t)
		mockTokenRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "some-secret",
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert - should return generic error to prevent enumeration
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientLocked", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
			LockoutMaxAttempts:  5,
			LockoutDuration:     30 * time.Minute,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		lockedUntil := time.Now().UTC().Add(10 * time.Minute)
		client := &authDomain.Client{
			ID:             clientID,
			Secret:         "hashed-secret",
			Name:           "locked-client",
			Subject:        "user:river",
			IsActive:       true,
			FailedAttempts: 5,
			LockedUntil:    &lockedUntil,
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "correct-or-not-does-not-matter",
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert - locked clients are rejected before the secret is compared
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, authDomain.ErrClientLocked, err)
		mockSecretService.AssertNotCalled(t, "CompareSecret", mock.Anything, mock.Anything)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientInactive", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "inactive-client",
			Subject:  "user:river",
			IsActive: false, // Client is inactive
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "client-secret",
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, authDomain.ErrClientInactive, err)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_InvalidSecretWithoutLockoutConfigured", func(t *testing.T) {
		// Setup mocks - LockoutMaxAttempts of zero disables lockout
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		wrongSecret := "wrong-secret"
		hashedSecret := "$argon2id$v=19$m=65536,t=3,p=4$test-hash" //nolint:gosec // test fixture, not a real credential

		client := &authDomain.Client{
			ID:       clientID,
			Secret:   hashedSecret,
			Name:     "test-client",
			Subject:  "agent:kasra",
			IsActive: true,
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: wrongSecret,
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", wrongSecret, hashedSecret).
			Return(false). // Secret doesn't match
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert - no lockout bookkeeping happens with the feature disabled
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
		mockClientRepo.AssertNotCalled(
			t, "UpdateLockState", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		)
		mockClientRepo.AssertExpectations(t)
		mockSecretService.AssertExpectations(t)
	})

	t.Run("Error_InvalidSecretCountsFailedAttempt", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
			LockoutMaxAttempts:  5,
			LockoutDuration:     30 * time.Minute,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:             clientID,
			Secret:         "hashed-secret",
			Name:           "test-client",
			Subject:        "agent:kasra",
			IsActive:       true,
			FailedAttempts: 0,
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "wrong-secret",
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", "wrong-secret", "hashed-secret").
			Return(false).
			Once()

		// First failure: counter goes to one, no lock yet
		mockClientRepo.On("UpdateLockState", ctx, clientID, 1, (*time.Time)(nil)).
			Return(nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_InvalidSecretLocksAtThreshold", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
			LockoutMaxAttempts:  3,
			LockoutDuration:     30 * time.Minute,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:             clientID,
			Secret:         "hashed-secret",
			Name:           "test-client",
			Subject:        "agent:kasra",
			IsActive:       true,
			FailedAttempts: 2, // One failure away from the threshold
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "wrong-secret",
		}

		now := time.Now().UTC()

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", "wrong-secret", "hashed-secret").
			Return(false).
			Once()

		mockClientRepo.On("UpdateLockState", ctx, clientID, 3, mock.MatchedBy(func(lockedUntil *time.Time) bool {
			if lockedUntil == nil {
				return false
			}
			expected := now.Add(30 * time.Minute)
			return lockedUntil.After(expected.Add(-time.Second)) && lockedUntil.Before(expected.Add(time.Second))
		})).
			Return(nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert - the caller still sees a credential failure, not the lock
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Success_ExpiredLockClearsOnValidSecret", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
			LockoutMaxAttempts:  5,
			LockoutDuration:     30 * time.Minute,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		expiredLock := time.Now().UTC().Add(-time.Minute)
		client := &authDomain.Client{
			ID:             clientID,
			Secret:         "hashed-secret",
			Name:           "recovering-client",
			Subject:        "agent:kasra",
			IsActive:       true,
			FailedAttempts: 5,
			LockedUntil:    &expiredLock, // Lock deadline has passed
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "correct-secret",
		}

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", "correct-secret", "hashed-secret").
			Return(true).
			Once()

		mockClientRepo.On("UpdateLockState", ctx, clientID, 0, (*time.Time)(nil)).
			Return(nil).
			Once()

		mockTokenService.On("GenerateToken").
			Return("plain-token", "token-hash", nil).
			Once()

		mockTokenRepo.On("Create", ctx, mock.AnythingOfType("*domain.Token")).
			Return(nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert - the stale lock state is cleared and a token comes back
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.Equal(t, "plain-token", output.PlainToken)
		mockClientRepo.AssertExpectations(t)
		mockTokenRepo.AssertExpectations(t)
	})

	t.Run("Error_TokenGenerationFails", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		clientSecret := "test-client-secret"
		hashedSecret := "$argon2id$v=19$m=65536,t=3,p=4$test-hash" //nolint:gosec // test fixture, not a real credential

		client := &authDomain.Client{
			ID:       clientID,
			Secret:   hashedSecret,
			Name:     "test-client",
			Subject:  "agent:kasra",
			IsActive: true,
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}

		expectedErr := errors.New("failed to generate random token")

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", clientSecret, hashedSecret).
			Return(true).
			Once()

		mockTokenService.On("GenerateToken").
			Return("", "", expectedErr).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
		mockClientRepo.AssertExpectations(t)
		mockSecretService.AssertExpectations(t)
		mockTokenService.AssertExpectations(t)
	})

	t.Run("Error_RepositoryCreateFails", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		clientSecret := "test-client-secret"
		hashedSecret := "$argon2id$v=19$m=65536,t=3,p=4$test-hash" //nolint:gosec // test fixture, not a real credential

		client := &authDomain.Client{
			ID:       clientID,
			Secret:   hashedSecret,
			Name:     "test-client",
			Subject:  "agent:kasra",
			IsActive: true,
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}

		expectedErr := errors.New("database error")

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", clientSecret, hashedSecret).
			Return(true).
			Once()

		mockTokenService.On("GenerateToken").
			Return("plain-token", "token-hash", nil).
			Once()

		mockTokenRepo.On("Create", ctx, mock.AnythingOfType("*domain.Token")).
			Return(expectedErr).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
		mockClientRepo.AssertExpectations(t)
		mockSecretService.AssertExpectations(t)
		mockTokenService.AssertExpectations(t)
		mockTokenRepo.AssertExpectations(t)
	})

	t.Run("Success_TokenExpirationSetFromConfig", func(t *testing.T) {
		// Setup mocks with specific expiration duration
		customExpiration := 48 * time.Hour
		mockConfig := &config.Config{
			AuthTokenExpiration: customExpiration,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		clientSecret := "test-client-secret"
		hashedSecret := "$argon2id$v=19$m=65536,t=3,p=4$test-hash" //nolint:gosec // test fixture, not a real credential

		client := &authDomain.Client{
			ID:       clientID,
			Secret:   hashedSecret,
			Name:     "test-client",
			Subject:  "agent:kasra",
			IsActive: true,
		}

		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}

		// Capture the created token to verify expiration
		var createdToken *authDomain.Token
		now := time.Now().UTC()

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", clientSecret, hashedSecret).
			Return(true).
			Once()

		mockTokenService.On("GenerateToken").
			Return("plain-token", "token-hash", nil).
			Once()

		mockTokenRepo.On("Create", ctx, mock.MatchedBy(func(token *authDomain.Token) bool {
			createdToken = token
			return true
		})).
			Return(nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.NotNil(t, createdToken)

		// Verify expiration is set correctly (within 1 second tolerance)
		expectedExpiration := now.Add(customExpiration)
		assert.WithinDuration(t, expectedExpiration, createdToken.ExpiresAt, time.Second)
		assert.Equal(t, createdToken.ExpiresAt, output.ExpiresAt)

		mockClientRepo.AssertExpectations(t)
		mockSecretService.AssertExpectations(t)
		mockTokenService.AssertExpectations(t)
		mockTokenRepo.AssertExpectations(t)
	})

	t.Run("Error_RepositoryGetReturnsUnexpectedError", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		issueInput := &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "some-secret",
		}

		expectedErr := errors.New("unexpected database error")

		// Setup expectations
		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, expectedErr).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		output, err := uc.Issue(ctx, issueInput)

		// Assert - should return the original error, not ErrInvalidCredentials
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
		mockClientRepo.AssertExpectations(t)
	})
}

func TestTokenUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AuthenticateValidToken", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		tokenHash := "valid-token-hash"
		token := &authDomain.Token{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: tokenHash,
			ClientID:  clientID,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			CreatedAt: time.Now().UTC(),
		}
		client := &authDomain.Client{
			ID:       clientID,
			Name:     "test-client",
			Subject:  "agent:kasra",
			IsActive: true,
		}

		// Setup expectations
		mockTokenRepo.On("GetByTokenHash", ctx, tokenHash).
			Return(token, nil).
			Once()

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		got, err := uc.Authenticate(ctx, tokenHash)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, client, got)
		mockTokenRepo.AssertExpectations(t)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_TokenNotFound", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		// Setup expectations
		mockTokenRepo.On("GetByTokenHash", ctx, "unknown-hash").
			Return(nil, authDomain.ErrTokenNotFound).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		got, err := uc.Authenticate(ctx, "unknown-hash")

		// Assert - generic error prevents token probing
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
		mockTokenRepo.AssertExpectations(t)
	})

	t.Run("Error_TokenExpired", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		token := &authDomain.Token{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "expired-hash",
			ClientID:  uuid.Must(uuid.NewV7()),
			ExpiresAt: time.Now().UTC().Add(-time.Minute), // Already expired
			CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
		}

		// Setup expectations
		mockTokenRepo.On("GetByTokenHash", ctx, "expired-hash").
			Return(token, nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		got, err := uc.Authenticate(ctx, "expired-hash")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
		mockClientRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("Error_TokenRevoked", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		revokedAt := time.Now().UTC().Add(-time.Hour)
		token := &authDomain.Token{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "revoked-hash",
			ClientID:  uuid.Must(uuid.NewV7()),
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			RevokedAt: &revokedAt,
			CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		}

		// Setup expectations
		mockTokenRepo.On("GetByTokenHash", ctx, "revoked-hash").
			Return(token, nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		got, err := uc.Authenticate(ctx, "revoked-hash")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
	})

	t.Run("Error_ClientInactive", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		token := &authDomain.Token{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "valid-hash",
			ClientID:  clientID,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			CreatedAt: time.Now().UTC(),
		}
		client := &authDomain.Client{
			ID:       clientID,
			Name:     "deactivated-client",
			Subject:  "user:river",
			IsActive: false,
		}

		// Setup expectations
		mockTokenRepo.On("GetByTokenHash", ctx, "valid-hash").
			Return(token, nil).
			Once()

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		got, err := uc.Authenticate(ctx, "valid-hash")

		// Assert - deactivation cuts off existing tokens immediately
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, authDomain.ErrClientInactive, err)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		token := &authDomain.Token{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "orphan-hash",
			ClientID:  clientID,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			CreatedAt: time.Now().UTC(),
		}

		// Setup expectations
		mockTokenRepo.On("GetByTokenHash", ctx, "orphan-hash").
			Return(token, nil).
			Once()

		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		got, err := uc.Authenticate(ctx, "orphan-hash")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, authDomain.ErrInvalidCredentials, err)
	})
}

func TestTokenUseCase_DeleteExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeletesExpiredTokens", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		now := time.Now().UTC()

		// Setup expectations
		mockTokenRepo.On("DeleteExpired", ctx, mock.MatchedBy(func(before time.Time) bool {
			return before.After(now.Add(-time.Second)) && before.Before(now.Add(time.Second))
		})).
			Return(int64(7), nil).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		count, err := uc.DeleteExpired(ctx)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		mockTokenRepo.AssertExpectations(t)
	})

	t.Run("Error_RepositoryFails", func(t *testing.T) {
		// Setup mocks
		mockConfig := &config.Config{
			AuthTokenExpiration: 24 * time.Hour,
		}
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		expectedErr := errors.New("database error")

		// Setup expectations
		mockTokenRepo.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).
			Return(int64(0), expectedErr).
			Once()

		// Execute
		uc := NewTokenUseCase(mockConfig, mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)
		count, err := uc.DeleteExpired(ctx)

		// Assert
		assert.Error(t, err)
		assert.Equal(t, int64(0), count)
		assert.Equal(t, expectedErr, err)
	})
}

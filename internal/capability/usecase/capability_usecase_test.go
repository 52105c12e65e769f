package usecase

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	capService "github.com/sovereignos/guard/internal/capability/service"
	apperrors "github.com/sovereignos/guard/internal/errors"
	outboxDomain "github.com/sovereignos/guard/internal/outbox/domain"
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

// mockGrantRepository is a mock implementation of GrantRepository for testing.
type mockGrantRepository struct {
	mock.Mock
}

func (m *mockGrantRepository) Create(ctx context.Context, grant *capDomain.Grant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *mockGrantRepository) GetByCapabilityID(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	args := m.Called(ctx, capabilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capDomain.Grant), args.Error(1)
}

func (m *mockGrantRepository) DecrementUses(
	ctx context.Context,
	capabilityID string,
) (int64, error) {
	args := m.Called(ctx, capabilityID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGrantRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// mockOutboxEventRepository is a mock implementation of OutboxEventRepository for testing.
type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(
	ctx context.Context,
	event *outboxDomain.OutboxEvent,
) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// newTestKeyPair returns a signer and a matching verifier for tests.
func newTestKeyPair(t *testing.T, issuer string) (*capService.Signer, *capService.Verifier) {
	t.Helper()

	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	require.NoError(t, err)

	signer, err := capService.NewSignerFromSeed(seed, issuer)
	require.NoError(t, err)

	verifier, err := capService.NewVerifier(signer.PublicKeyHex())
	require.NoError(t, err)

	return signer, verifier
}

func intPtr(v int) *int {
	return &v
}

func TestCapabilityUseCase_Issue(t *testing.T) {
	ctx := context.Background()
	signer, verifier := newTestKeyPair(t, "river")

	t.Run("Success_SignsAndPersists", func(t *testing.T) {
		mockTx := &mockTxManager{}
		mockGrants := &mockGrantRepository{}
		mockOutbox := &mockOutboxEventRepository{}

		mockTx.On("WithTx", ctx, mock.Anything).Return(nil)
		mockGrants.On("Create", ctx, mock.MatchedBy(func(g *capDomain.Grant) bool {
			return g.Subject == "agent:kasra" && g.Signature != ""
		})).Return(nil)
		mockOutbox.On("Create", ctx, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
			return e.EventType == outboxDomain.EventTypeCapabilityIssued
		})).Return(nil)

		useCase := NewCapabilityUseCase(mockTx, mockGrants, mockOutbox, signer, verifier, time.Hour)

		capability, err := useCase.Issue(ctx, &IssueCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:kasra/*",
			TTL:      time.Hour,
		})
		assert.NoError(t, err)
		assert.NotNil(t, capability)
		assert.Equal(t, "river", capability.Issuer)
		assert.Empty(t, capability.ParentID)

		ok, reason := verifier.VerifyCapability(
			*capability, capDomain.ActionMemoryRead, "memory:kasra/notes",
		)
		assert.True(t, ok)
		assert.Equal(t, capService.ReasonValid, reason)

		mockGrants.AssertExpectations(t)
		mockOutbox.AssertExpectations(t)
	})

	t.Run("DefaultTTL_AppliedWhenUnset", func(t *testing.T) {
		mockTx := &mockTxManager{}
		mockGrants := &mockGrantRepository{}
		mockOutbox := &mockOutboxEventRepository{}

		mockTx.On("WithTx", ctx, mock.Anything).Return(nil)
		mockGrants.On("Create", ctx, mock.Anything).Return(nil)
		mockOutbox.On("Create", ctx, mock.Anything).Return(nil)

		useCase := NewCapabilityUseCase(
			mockTx, mockGrants, mockOutbox, signer, verifier, 30*time.Minute,
		)

		capability, err := useCase.Issue(ctx, &IssueCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionToolExecute,
			Resource: "tool:search",
		})
		assert.NoError(t, err)
		assert.Equal(
			t,
			capability.IssuedAt.Add(30*time.Minute),
			capability.ExpiresAt,
		)
	})

	t.Run("NoSigner_ConfigurationError", func(t *testing.T) {
		useCase := NewCapabilityUseCase(
			&mockTxManager{}, &mockGrantRepository{}, &mockOutboxEventRepository{},
			nil, verifier, time.Hour,
		)

		_, err := useCase.Issue(ctx, &IssueCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:kasra/*",
		})
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("InvalidAction_InvalidInput", func(t *testing.T) {
		useCase := NewCapabilityUseCase(
			&mockTxManager{}, &mockGrantRepository{}, &mockOutboxEventRepository{},
			signer, verifier, time.Hour,
		)

		_, err := useCase.Issue(ctx, &IssueCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.Action("memory:browse"),
			Resource: "memory:kasra/*",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestCapabilityUseCase_Delegate(t *testing.T) {
	ctx := context.Background()
	signer, verifier := newTestKeyPair(t, "river")

	parentCap, err := capDomain.New(capDomain.NewCapabilityInput{
		Subject:  "agent:kasra",
		Action:   capDomain.ActionMemoryRead,
		Resource: "memory:kasra/*",
		TTL:      time.Hour,
		Uses:     intPtr(10),
		Issuer:   "river",
	})
	require.NoError(t, err)
	_, err = signer.Sign(&parentCap)
	require.NoError(t, err)
	parentGrant := capDomain.NewGrant(parentCap)

	t.Run("Success_AttenuatedChild", func(t *testing.T) {
		mockTx := &mockTxManager{}
		mockGrants := &mockGrantRepository{}
		mockOutbox := &mockOutboxEventRepository{}

		mockGrants.On("GetByCapabilityID", ctx, parentCap.ID).Return(&parentGrant, nil)
		mockTx.On("WithTx", ctx, mock.Anything).Return(nil)
		mockGrants.On("Create", ctx, mock.MatchedBy(func(g *capDomain.Grant) bool {
			return g.ParentID == parentCap.ID
		})).Return(nil)
		mockOutbox.On("Create", ctx, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
			return e.EventType == outboxDomain.EventTypeCapabilityDelegated
		})).Return(nil)

		useCase := NewCapabilityUseCase(mockTx, mockGrants, mockOutbox, signer, verifier, time.Hour)

		child, err := useCase.Delegate(ctx, parentCap.ID, &IssueCapabilityInput{
			Subject:  "agent:worker",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:kasra/notes/*",
			TTL:      10 * time.Minute,
			Uses:     intPtr(3),
		})
		assert.NoError(t, err)
		assert.Equal(t, parentCap.ID, child.ParentID)

		ok, _ := verifier.VerifyCapability(
			*child, capDomain.ActionMemoryRead, "memory:kasra/notes/today",
		)
		assert.True(t, ok)

		mockGrants.AssertExpectations(t)
	})

	t.Run("WiderResource_Rejected", func(t *testing.T) {
		mockGrants := &mockGrantRepository{}
		mockGrants.On("GetByCapabilityID", ctx, parentCap.ID).Return(&parentGrant, nil)

		useCase := NewCapabilityUseCase(
			&mockTxManager{}, mockGrants, &mockOutboxEventRepository{},
			signer, verifier, time.Hour,
		)

		_, err := useCase.Delegate(ctx, parentCap.ID, &IssueCapabilityInput{
			Subject:  "agent:worker",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:*",
			TTL:      10 * time.Minute,
			Uses:     intPtr(1),
		})
		assert.ErrorIs(t, err, capDomain.ErrDelegationExceedsParent)
	})

	t.Run("WiderAction_Rejected", func(t *testing.T) {
		mockGrants := &mockGrantRepository{}
		mockGrants.On("GetByCapabilityID", ctx, parentCap.ID).Return(&parentGrant, nil)

		useCase := NewCapabilityUseCase(
			&mockTxManager{}, mockGrants, &mockOutboxEventRepository{},
			signer, verifier, time.Hour,
		)

		_, err := useCase.Delegate(ctx, parentCap.ID, &IssueCapabilityInput{
			Subject:  "agent:worker",
			Action:   capDomain.ActionMemoryWrite,
			Resource: "memory:kasra/notes",
			TTL:      10 * time.Minute,
			Uses:     intPtr(1),
		})
		assert.ErrorIs(t, err, capDomain.ErrDelegationExceedsParent)
	})

	t.Run("LaterExpiry_Rejected", func(t *testing.T) {
		mockGrants := &mockGrantRepository{}
		mockGrants.On("GetByCapabilityID", ctx, parentCap.ID).Return(&parentGrant, nil)

		useCase := NewCapabilityUseCase(
			&mockTxManager{}, mockGrants, &mockOutboxEventRepository{},
			signer, verifier, time.Hour,
		)

		_, err := useCase.Delegate(ctx, parentCap.ID, &IssueCapabilityInput{
			Subject:  "agent:worker",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:kasra/notes",
			TTL:      48 * time.Hour,
			Uses:     intPtr(1),
		})
		assert.ErrorIs(t, err, capDomain.ErrDelegationExceedsParent)
	})

	t.Run("ExhaustedParent_Rejected", func(t *testing.T) {
		exhaustedCap, err := capDomain.New(capDomain.NewCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:kasra/*",
			TTL:      time.Hour,
			Uses:     intPtr(1),
			Issuer:   "river",
		})
		require.NoError(t, err)
		exhaustedGrant := capDomain.NewGrant(exhaustedCap)
		exhaustedGrant.UsesRemaining = intPtr(0)

		mockGrants := &mockGrantRepository{}
		mockGrants.On("GetByCapabilityID", ctx, exhaustedCap.ID).Return(&exhaustedGrant, nil)

		useCase := NewCapabilityUseCase(
			&mockTxManager{}, mockGrants, &mockOutboxEventRepository{},
			signer, verifier, time.Hour,
		)

		_, err = useCase.Delegate(ctx, exhaustedCap.ID, &IssueCapabilityInput{
			Subject:  "agent:worker",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:kasra/notes",
			TTL:      10 * time.Minute,
			Uses:     intPtr(1),
		})
		assert.ErrorIs(t, err, capDomain.ErrGrantExhausted)
	})

	t.Run("UnknownParent_NotFound", func(t *testing.T) {
		mockGrants := &mockGrantRepository{}
		mockGrants.On("GetByCapabilityID", ctx, "cap_missing").
			Return(nil, capDomain.ErrGrantNotFound)

		useCase := NewCapabilityUseCase(
			&mockTxManager{}, mockGrants, &mockOutboxEventRepository{},
			signer, verifier, time.Hour,
		)

		_, err := useCase.Delegate(ctx, "cap_missing", &IssueCapabilityInput{
			Subject:  "agent:worker",
			Action:   capDomain.ActionMemoryRead,
			Resource: "memory:kasra/notes",
			TTL:      10 * time.Minute,
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCapabilityUseCase_VerifyToken(t *testing.T) {
	ctx := context.Background()
	signer, verifier := newTestKeyPair(t, "river")

	capability, err := capDomain.New(capDomain.NewCapabilityInput{
		Subject:  "agent:kasra",
		Action:   capDomain.ActionMemoryRead,
		Resource: "memory:kasra/*",
		TTL:      time.Hour,
		Issuer:   "river",
	})
	require.NoError(t, err)
	_, err = signer.Sign(&capability)
	require.NoError(t, err)

	token, err := capDomain.EncodeToken(capability)
	require.NoError(t, err)

	useCase := NewCapabilityUseCase(
		&mockTxManager{}, &mockGrantRepository{}, &mockOutboxEventRepository{},
		signer, verifier, time.Hour,
	)

	t.Run("Allowed", func(t *testing.T) {
		result, err := useCase.VerifyToken(
			ctx, token, capDomain.ActionMemoryRead, "memory:kasra/notes",
		)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, capService.ReasonValid, result.Reason)
		assert.Equal(t, capability.ID, result.Capability.ID)
	})

	t.Run("ResourceMismatch_Denied", func(t *testing.T) {
		result, err := useCase.VerifyToken(
			ctx, token, capDomain.ActionMemoryRead, "memory:river/secrets",
		)
		assert.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Contains(t, result.Reason, "resource mismatch")
	})

	t.Run("TamperedResource_SignatureDenied", func(t *testing.T) {
		tampered := capability
		tampered.Resource = "memory:*"
		tamperedToken, err := capDomain.EncodeToken(tampered)
		require.NoError(t, err)

		result, err := useCase.VerifyToken(
			ctx, tamperedToken, capDomain.ActionMemoryRead, "memory:river/secrets",
		)
		assert.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Contains(t, result.Reason, "signature")
	})

	t.Run("MalformedToken_Error", func(t *testing.T) {
		_, err := useCase.VerifyToken(
			ctx, "!!not-a-token!!", capDomain.ActionMemoryRead, "memory:kasra/notes",
		)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestCapabilityUseCase_Consume(t *testing.T) {
	ctx := context.Background()
	signer, verifier := newTestKeyPair(t, "river")

	t.Run("LimitedGrant_Decrements", func(t *testing.T) {
		capability, err := capDomain.New(capDomain.NewCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionToolExecute,
			Resource: "tool:search",
			TTL:      time.Hour,
			Uses:     intPtr(2),
			Issuer:   "river",
		})
		require.NoError(t, err)
		grant := capDomain.NewGrant(capability)
		refreshed := grant
		refreshed.UsesRemaining = intPtr(1)

		mockTx := &mockTxManager{}
		mockGrants := &mockGrantRepository{}
		mockOutbox := &mockOutboxEventRepository{}

		mockGrants.On("GetByCapabilityID", ctx, capability.ID).Return(&grant, nil).Once()
		mockTx.On("WithTx", ctx, mock.Anything).Return(nil)
		mockGrants.On("DecrementUses", ctx, capability.ID).Return(int64(1), nil)
		mockOutbox.On("Create", ctx, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
			return e.EventType == outboxDomain.EventTypeCapabilityConsumed
		})).Return(nil)
		mockGrants.On("GetByCapabilityID", ctx, capability.ID).Return(&refreshed, nil).Once()

		useCase := NewCapabilityUseCase(mockTx, mockGrants, mockOutbox, signer, verifier, time.Hour)

		got, err := useCase.Consume(ctx, capability.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, *got.UsesRemaining)

		mockGrants.AssertExpectations(t)
		mockOutbox.AssertExpectations(t)
	})

	t.Run("Exhausted_ReturnsGrantExhausted", func(t *testing.T) {
		capability, err := capDomain.New(capDomain.NewCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionToolExecute,
			Resource: "tool:search",
			TTL:      time.Hour,
			Uses:     intPtr(1),
			Issuer:   "river",
		})
		require.NoError(t, err)
		grant := capDomain.NewGrant(capability)
		grant.UsesRemaining = intPtr(0)

		mockTx := &mockTxManager{}
		mockGrants := &mockGrantRepository{}

		mockGrants.On("GetByCapabilityID", ctx, capability.ID).Return(&grant, nil)
		mockTx.On("WithTx", ctx, mock.Anything).Return(nil)
		mockGrants.On("DecrementUses", ctx, capability.ID).Return(int64(0), nil)

		useCase := NewCapabilityUseCase(
			mockTx, mockGrants, &mockOutboxEventRepository{}, signer, verifier, time.Hour,
		)

		_, err = useCase.Consume(ctx, capability.ID)
		assert.ErrorIs(t, err, capDomain.ErrGrantExhausted)
	})

	t.Run("UnlimitedGrant_NoDecrement", func(t *testing.T) {
		capability, err := capDomain.New(capDomain.NewCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionToolExecute,
			Resource: "tool:search",
			TTL:      time.Hour,
			Issuer:   "river",
		})
		require.NoError(t, err)
		grant := capDomain.NewGrant(capability)

		mockTx := &mockTxManager{}
		mockGrants := &mockGrantRepository{}
		mockOutbox := &mockOutboxEventRepository{}

		mockGrants.On("GetByCapabilityID", ctx, capability.ID).Return(&grant, nil)
		mockTx.On("WithTx", ctx, mock.Anything).Return(nil)
		mockOutbox.On("Create", ctx, mock.Anything).Return(nil)

		useCase := NewCapabilityUseCase(mockTx, mockGrants, mockOutbox, signer, verifier, time.Hour)

		got, err := useCase.Consume(ctx, capability.ID)
		assert.NoError(t, err)
		assert.Nil(t, got.UsesRemaining)
		mockGrants.AssertNotCalled(t, "DecrementUses", mock.Anything, mock.Anything)
	})

	t.Run("ExpiredGrant_Forbidden", func(t *testing.T) {
		capability, err := capDomain.New(capDomain.NewCapabilityInput{
			Subject:  "agent:kasra",
			Action:   capDomain.ActionToolExecute,
			Resource: "tool:search",
			TTL:      time.Second,
			Issuer:   "river",
		})
		require.NoError(t, err)
		grant := capDomain.NewGrant(capability)
		grant.ExpiresAt = time.Now().UTC().Add(-time.Minute)

		mockGrants := &mockGrantRepository{}
		mockGrants.On("GetByCapabilityID", ctx, capability.ID).Return(&grant, nil)

		useCase := NewCapabilityUseCase(
			&mockTxManager{}, mockGrants, &mockOutboxEventRepository{},
			signer, verifier, time.Hour,
		)

		_, err = useCase.Consume(ctx, capability.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestCapabilityUseCase_CleanExpired(t *testing.T) {
	ctx := context.Background()
	signer, verifier := newTestKeyPair(t, "river")

	mockGrants := &mockGrantRepository{}
	mockGrants.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).
		Return(int64(4), nil)

	useCase := NewCapabilityUseCase(
		&mockTxManager{}, mockGrants, &mockOutboxEventRepository{},
		signer, verifier, time.Hour,
	)

	deleted, err := useCase.CleanExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
}

// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	capUseCase "github.com/sovereignos/guard/internal/capability/usecase"
)

// MockCapabilityUseCase is a mock implementation of CapabilityUseCase for testing.
type MockCapabilityUseCase struct {
	mock.Mock
}

// Issue mocks the Issue method of CapabilityUseCase.
func (m *MockCapabilityUseCase) Issue(
	ctx context.Context,
	input *capUseCase.IssueCapabilityInput,
) (*capDomain.Capability, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capDomain.Capability), args.Error(1)
}

// Delegate mocks the Delegate method of CapabilityUseCase.
func (m *MockCapabilityUseCase) Delegate(
	ctx context.Context,
	parentCapabilityID string,
	input *capUseCase.IssueCapabilityInput,
) (*capDomain.Capability, error) {
	args := m.Called(ctx, parentCapabilityID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capDomain.Capability), args.Error(1)
}

// VerifyToken mocks the VerifyToken method of CapabilityUseCase.
func (m *MockCapabilityUseCase) VerifyToken(
	ctx context.Context,
	token string,
	requiredAction capDomain.Action,
	resource string,
) (*capUseCase.VerifyResult, error) {
	args := m.Called(ctx, token, requiredAction, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capUseCase.VerifyResult), args.Error(1)
}

// Consume mocks the Consume method of CapabilityUseCase.
func (m *MockCapabilityUseCase) Consume(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	args := m.Called(ctx, capabilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capDomain.Grant), args.Error(1)
}

// Get mocks the Get method of CapabilityUseCase.
func (m *MockCapabilityUseCase) Get(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	args := m.Called(ctx, capabilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capDomain.Grant), args.Error(1)
}

// CleanExpired mocks the CleanExpired method of CapabilityUseCase.
func (m *MockCapabilityUseCase) CleanExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

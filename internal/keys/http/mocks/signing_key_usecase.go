// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	capService "github.com/sovereignos/guard/internal/capability/service"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// MockSigningKeyUseCase is a mock implementation of SigningKeyUseCase for testing.
type MockSigningKeyUseCase struct {
	mock.Mock
}

// Create mocks the Create method of SigningKeyUseCase.
func (m *MockSigningKeyUseCase) Create(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
	alg keysDomain.Algorithm,
) (*keysDomain.SigningKey, error) {
	args := m.Called(ctx, masterKeyChain, issuer, alg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keysDomain.SigningKey), args.Error(1)
}

// Rotate mocks the Rotate method of SigningKeyUseCase.
func (m *MockSigningKeyUseCase) Rotate(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
	alg keysDomain.Algorithm,
) (*keysDomain.SigningKey, error) {
	args := m.Called(ctx, masterKeyChain, issuer, alg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keysDomain.SigningKey), args.Error(1)
}

// ActiveSigner mocks the ActiveSigner method of SigningKeyUseCase.
func (m *MockSigningKeyUseCase) ActiveSigner(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
) (*capService.Signer, error) {
	args := m.Called(ctx, masterKeyChain, issuer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capService.Signer), args.Error(1)
}

// ActivePublicKey mocks the ActivePublicKey method of SigningKeyUseCase.
func (m *MockSigningKeyUseCase) ActivePublicKey(ctx context.Context, issuer string) (string, error) {
	args := m.Called(ctx, issuer)
	return args.String(0), args.Error(1)
}

// ListPublic mocks the ListPublic method of SigningKeyUseCase.
func (m *MockSigningKeyUseCase) ListPublic(
	ctx context.Context,
	issuer string,
) ([]*keysDomain.SigningKey, error) {
	args := m.Called(ctx, issuer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*keysDomain.SigningKey), args.Error(1)
}

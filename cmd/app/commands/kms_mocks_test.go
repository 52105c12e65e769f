package commands

import (
	"context"

	"github.com/stretchr/testify/mock"

	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// fakeKMSService and fakeKMSKeeper stand in for gocloud.dev keepers in the
// key management command tests.
type fakeKMSService struct {
	mock.Mock
}

func (m *fakeKMSService) OpenKeeper(ctx context.Context, keyURI string) (keysDomain.KMSKeeper, error) {
	args := m.Called(ctx, keyURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(keysDomain.KMSKeeper), args.Error(1)
}

type fakeKMSKeeper struct {
	mock.Mock
}

func (m *fakeKMSKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *fakeKMSKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *fakeKMSKeeper) Close() error {
	return m.Called().Error(0)
}

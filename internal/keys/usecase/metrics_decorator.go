package usecase

import (
	"context"
	"time"

	capService "github.com/sovereignos/guard/internal/capability/service"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
	"github.com/sovereignos/guard/internal/metrics"
)

// signingKeyUseCaseWithMetrics decorates SigningKeyUseCase with metrics instrumentation.
type signingKeyUseCaseWithMetrics struct {
	next    SigningKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewSigningKeyUseCaseWithMetrics wraps a SigningKeyUseCase with metrics recording.
func NewSigningKeyUseCaseWithMetrics(
	useCase SigningKeyUseCase,
	m metrics.BusinessMetrics,
) SigningKeyUseCase {
	return &signingKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (s *signingKeyUseCaseWithMetrics) record(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "keys", operation, status)
	s.metrics.RecordDuration(ctx, "keys", operation, time.Since(start), status)
}

// Create records metrics for signing key creation.
func (s *signingKeyUseCaseWithMetrics) Create(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
	alg keysDomain.Algorithm,
) (*keysDomain.SigningKey, error) {
	start := time.Now()
	key, err := s.next.Create(ctx, masterKeyChain, issuer, alg)
	s.record(ctx, "create", start, err)
	return key, err
}

// Rotate records metrics for signing key rotation.
func (s *signingKeyUseCaseWithMetrics) Rotate(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
	alg keysDomain.Algorithm,
) (*keysDomain.SigningKey, error) {
	start := time.Now()
	key, err := s.next.Rotate(ctx, masterKeyChain, issuer, alg)
	s.record(ctx, "rotate", start, err)
	return key, err
}

// ActiveSigner records metrics for signer unsealing.
func (s *signingKeyUseCaseWithMetrics) ActiveSigner(
	ctx context.Context,
	masterKeyChain *keysDomain.MasterKeyChain,
	issuer string,
) (*capService.Signer, error) {
	start := time.Now()
	signer, err := s.next.ActiveSigner(ctx, masterKeyChain, issuer)
	s.record(ctx, "active_signer", start, err)
	return signer, err
}

// ActivePublicKey records metrics for public key lookups.
func (s *signingKeyUseCaseWithMetrics) ActivePublicKey(
	ctx context.Context,
	issuer string,
) (string, error) {
	start := time.Now()
	publicKey, err := s.next.ActivePublicKey(ctx, issuer)
	s.record(ctx, "active_public_key", start, err)
	return publicKey, err
}

// ListPublic records metrics for key listing.
func (s *signingKeyUseCaseWithMetrics) ListPublic(
	ctx context.Context,
	issuer string,
) ([]*keysDomain.SigningKey, error) {
	start := time.Now()
	keys, err := s.next.ListPublic(ctx, issuer)
	s.record(ctx, "list_public", start, err)
	return keys, err
}

// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authService "github.com/sovereignos/guard/internal/auth/service"
	apperrors "github.com/sovereignos/guard/internal/errors"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// auditLogUseCase implements AuditLogUseCase. Records are signed under the
// active master key when a chain is configured; without one the trail is
// written unsigned, which keeps development setups working.
type auditLogUseCase struct {
	auditLogRepo   AuditLogRepository
	auditSigner    authService.AuditSigner
	masterKeyChain *keysDomain.MasterKeyChain
}

// Record writes one authorization decision to the audit trail.
func (a *auditLogUseCase) Record(
	ctx context.Context,
	requestID uuid.UUID,
	clientID uuid.UUID,
	operation string,
	decision authDomain.Decision,
	reason string,
	metadata map[string]any,
) error {
	auditLog := &authDomain.AuditLog{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: requestID,
		ClientID:  clientID,
		Operation: operation,
		Decision:  decision,
		Reason:    reason,
		Metadata:  metadata,
		// Microsecond precision matches what the databases store; signing a
		// finer timestamp would invalidate the signature on read-back.
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if a.masterKeyChain != nil {
		masterKey, err := a.masterKeyChain.Active()
		if err != nil {
			return apperrors.Wrap(err, "failed to get active master key")
		}

		signature, err := a.auditSigner.Sign(masterKey.Key, auditLog)
		if err != nil {
			return apperrors.Wrap(err, "failed to sign audit log")
		}

		auditLog.Signature = signature
		auditLog.MasterKeyID = masterKey.ID
	}

	return a.auditLogRepo.Create(ctx, auditLog)
}

// List retrieves audit logs newest first with pagination and optional
// inclusive time bounds.
func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*authDomain.AuditLog, error) {
	return a.auditLogRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
}

// VerifySignatures re-checks the signatures of a page of audit logs.
//
// A record counts as invalid when its signature fails verification or when
// its master key ID is missing from the configured chain, since either way
// the record can no longer be trusted. Records written before signing was
// enabled count as unsigned, not invalid.
func (a *auditLogUseCase) VerifySignatures(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) (*authDomain.AuditVerificationReport, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, err
	}

	report := &authDomain.AuditVerificationReport{}

	for _, auditLog := range auditLogs {
		report.Checked++

		if !auditLog.Signed() {
			report.Unsigned++
			continue
		}

		if a.masterKeyChain == nil {
			report.Invalid++
			report.InvalidIDs = append(report.InvalidIDs, auditLog.ID)
			continue
		}

		masterKey, ok := a.masterKeyChain.Get(auditLog.MasterKeyID)
		if !ok {
			report.Invalid++
			report.InvalidIDs = append(report.InvalidIDs, auditLog.ID)
			continue
		}

		if err := a.auditSigner.Verify(masterKey.Key, auditLog); err != nil {
			report.Invalid++
			report.InvalidIDs = append(report.InvalidIDs, auditLog.ID)
			continue
		}

		report.Valid++
	}

	return report, nil
}

// DeleteOlderThan removes audit logs created before the given instant.
// Returns the number of records deleted.
func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return a.auditLogRepo.DeleteOlderThan(ctx, before)
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
// A nil master key chain disables signing; records are then written unsigned.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	auditSigner authService.AuditSigner,
	masterKeyChain *keysDomain.MasterKeyChain,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo:   auditLogRepo,
		auditSigner:    auditSigner,
		masterKeyChain: masterKeyChain,
	}
}

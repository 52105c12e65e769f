package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records authorization decisions for compliance and security monitoring.
// Captures client identity, the logical operation, the decision with its reason,
// and free-form metadata. Each record carries an HMAC signature plus the ID of
// the master key it was signed under, so tampering is detectable and signatures
// stay verifiable across master key rotations.
type AuditLog struct {
	ID          uuid.UUID
	RequestID   uuid.UUID
	ClientID    uuid.UUID
	Operation   string
	Decision    Decision
	Reason      string
	Metadata    map[string]any
	Signature   []byte
	MasterKeyID string
	CreatedAt   time.Time
}

// Signed reports whether the record carries a complete signature. Records
// written before signing was enabled have neither signature nor key ID.
func (a *AuditLog) Signed() bool {
	return len(a.Signature) > 0 && a.MasterKeyID != ""
}

// AuditVerificationReport summarizes a signature verification sweep over a
// range of audit logs. Invalid counts records whose signature failed to
// verify or whose master key is no longer in the chain; their IDs are listed
// so operators can inspect them.
type AuditVerificationReport struct {
	Checked    int
	Valid      int
	Invalid    int
	Unsigned   int
	InvalidIDs []uuid.UUID
}

// Package domain defines authentication and authorization domain models.
// Implements scope-based access control with clients, tokens, and a signed audit trail.
package domain

// Decision records the outcome of an authorization decision in the audit trail.
type Decision string

const (
	// DecisionAllow records that the operation was permitted.
	DecisionAllow Decision = "allow"

	// DecisionDeny records that the operation was refused.
	DecisionDeny Decision = "deny"
)

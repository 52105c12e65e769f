// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
)

// CreateClientResponse contains the result of creating a new client.
// SECURITY: The secret is only returned once and must be saved securely.
type CreateClientResponse struct {
	ID     string `json:"id"`
	Secret string `json:"secret"` //nolint:gosec // returned once on creation
}

// ClientResponse represents a client in API responses (excludes secret).
// The scope list is the flattened grant, never the bundle names the client
// was provisioned with.
type ClientResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Subject        string     `json:"subject"`
	IsActive       bool       `json:"is_active"`
	Scopes         []string   `json:"scopes"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MapClientToResponse converts a domain client to an API response.
func MapClientToResponse(client *authDomain.Client) ClientResponse {
	scopeNames := make([]string, 0, len(client.Scopes))
	for _, s := range client.Scopes {
		scopeNames = append(scopeNames, string(s))
	}
	return ClientResponse{
		ID:             client.ID.String(),
		Name:           client.Name,
		Subject:        client.Subject,
		IsActive:       client.IsActive,
		Scopes:         scopeNames,
		FailedAttempts: client.FailedAttempts,
		LockedUntil:    client.LockedUntil,
		CreatedAt:      client.CreatedAt,
	}
}

// ListClientsResponse represents a paginated list of clients in API responses.
type ListClientsResponse struct {
	Data []ClientResponse `json:"data"`
}

// MapClientsToListResponse converts a slice of domain clients to a list API response.
func MapClientsToListResponse(clients []*authDomain.Client) ListClientsResponse {
	clientResponses := make([]ClientResponse, 0, len(clients))
	for _, client := range clients {
		clientResponses = append(clientResponses, MapClientToResponse(client))
	}
	return ListClientsResponse{
		Data: clientResponses,
	}
}

// IssueTokenResponse contains the result of issuing a token.
// SECURITY: The token is only returned once and must be saved securely.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuditLogResponse represents an audit log entry in API responses. The raw
// HMAC signature is not exposed; Signed reports whether one is present.
type AuditLogResponse struct {
	ID          string         `json:"id"`
	RequestID   string         `json:"request_id"`
	ClientID    string         `json:"client_id"`
	Operation   string         `json:"operation"`
	Decision    string         `json:"decision"`
	Reason      string         `json:"reason"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Signed      bool           `json:"signed"`
	MasterKeyID string         `json:"master_key_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *authDomain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:          auditLog.ID.String(),
		RequestID:   auditLog.RequestID.String(),
		ClientID:    auditLog.ClientID.String(),
		Operation:   auditLog.Operation,
		Decision:    string(auditLog.Decision),
		Reason:      auditLog.Reason,
		Metadata:    auditLog.Metadata,
		Signed:      auditLog.Signed(),
		MasterKeyID: auditLog.MasterKeyID,
		CreatedAt:   auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*authDomain.AuditLog) ListAuditLogsResponse {
	auditLogResponses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		auditLogResponses = append(auditLogResponses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{
		Data: auditLogResponses,
	}
}

// AuditVerificationResponse reports the outcome of an audit signature sweep.
type AuditVerificationResponse struct {
	Checked    int      `json:"checked"`
	Valid      int      `json:"valid"`
	Invalid    int      `json:"invalid"`
	Unsigned   int      `json:"unsigned"`
	InvalidIDs []string `json:"invalid_ids,omitempty"`
}

// MapAuditVerificationToResponse converts a domain verification report to an API response.
func MapAuditVerificationToResponse(report *authDomain.AuditVerificationReport) AuditVerificationResponse {
	invalidIDs := make([]string, 0, len(report.InvalidIDs))
	for _, id := range report.InvalidIDs {
		invalidIDs = append(invalidIDs, id.String())
	}
	return AuditVerificationResponse{
		Checked:    report.Checked,
		Valid:      report.Valid,
		Invalid:    report.Invalid,
		Unsigned:   report.Unsigned,
		InvalidIDs: invalidIDs,
	}
}

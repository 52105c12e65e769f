// Package domain defines authentication and authorization domain models and business logic.
//
// It provides client-based authentication with scope-based authorization. Clients
// authenticate using secrets, exchange them for short-lived tokens, and are authorized
// by the flattened scope list stored at provisioning time.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/sovereignos/guard/internal/scopes"
)

// Client represents an authentication client with its granted scopes.
// Clients are used to authenticate API requests and enforce access control.
type Client struct {
	ID             uuid.UUID      // Unique identifier (UUIDv7)
	Secret         string         //nolint:gosec // hashed client secret (not plaintext)
	Name           string         // Human-readable client name
	Subject        string         // Principal acting through this client, e.g. "agent:kasra" or "svc:gateway"
	IsActive       bool           // Whether the client can authenticate
	Scopes         []scopes.Scope // Flattened scope list granted at provisioning
	FailedAttempts int            // Number of consecutive failed authentication attempts
	LockedUntil    *time.Time     // Time until which the client is locked (nil if not locked)
	CreatedAt      time.Time
}

// HasScope reports whether the client's grant includes the scope.
func (c *Client) HasScope(s scopes.Scope) bool {
	return scopes.Check(c.Scopes, []scopes.Scope{s})
}

// IsLockedAt reports whether the client is locked out at the given instant.
// A client with LockedUntil in the past is no longer locked; the counter is
// reset on the next successful authentication.
func (c *Client) IsLockedAt(now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// ScopeContext builds the authorization context requests authenticated through
// this client carry. The issuer names the authority that provisioned the
// client, normally this deployment's capability issuer.
func (c *Client) ScopeContext(issuer string) scopes.Context {
	return scopes.NewContext(c.Scopes, c.Subject, issuer)
}

// CreateClientInput contains the parameters for creating a new authentication client.
// The client secret will be automatically generated and cannot be specified by the caller.
//
// Scopes accepts a mix of bundle names ("readonly", "user", "agent", "admin")
// and raw scope strings ("memory.read"). Bundles are expanded exactly once at
// provisioning; only the flattened result is stored, so later bundle changes
// never alter existing clients.
type CreateClientInput struct {
	Name     string   // Human-readable name for identifying the client
	Subject  string   // Principal this client acts as
	IsActive bool     // Whether the client can authenticate immediately after creation
	Scopes   []string // Bundle names and scope strings to flatten into the grant
}

// CreateClientOutput contains the result of creating a new client.
// SECURITY: The PlainSecret is only returned once and must be securely transmitted
// to the client. It will never be retrievable again after this response.
type CreateClientOutput struct {
	ID          uuid.UUID // Unique identifier for the created client (UUIDv7)
	PlainSecret string    // Plain text secret for authentication (transmit securely, never log)
}

// UpdateClientInput contains the mutable fields for updating an existing client.
// The client ID, subject, and secret cannot be modified through updates.
type UpdateClientInput struct {
	Name     string   // Updated human-readable name
	IsActive bool     // Updated active status (false prevents authentication)
	Scopes   []string // Replacement grant, flattened the same way as at creation
}

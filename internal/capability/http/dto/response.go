// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
)

// CapabilityResponse represents a freshly minted capability in API responses.
// SECURITY: the encoded token is bearer material; it is returned once on
// issue or delegate and never again.
type CapabilityResponse struct {
	ID            string         `json:"id"`
	Subject       string         `json:"subject"`
	Action        string         `json:"action"`
	Resource      string         `json:"resource"`
	Constraints   map[string]any `json:"constraints,omitempty"`
	IssuedAt      time.Time      `json:"issued_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
	Issuer        string         `json:"issuer"`
	UsesRemaining *int           `json:"uses_remaining"`
	ParentID      string         `json:"parent_id,omitempty"`
	Token         string         `json:"token"`
}

// MapCapabilityToResponse converts a signed capability to an API response,
// including its encoded token.
func MapCapabilityToResponse(c capDomain.Capability) (CapabilityResponse, error) {
	token, err := capDomain.EncodeToken(c)
	if err != nil {
		return CapabilityResponse{}, err
	}
	return CapabilityResponse{
		ID:            c.ID,
		Subject:       c.Subject,
		Action:        string(c.Action),
		Resource:      c.Resource,
		Constraints:   c.Constraints,
		IssuedAt:      c.IssuedAt,
		ExpiresAt:     c.ExpiresAt,
		Issuer:        c.Issuer,
		UsesRemaining: c.UsesRemaining,
		ParentID:      c.ParentID,
		Token:         token,
	}, nil
}

// GrantResponse represents a stored grant in API responses. The signature is
// not exposed; the token already carries it.
type GrantResponse struct {
	CapabilityID  string         `json:"capability_id"`
	Subject       string         `json:"subject"`
	Action        string         `json:"action"`
	Resource      string         `json:"resource"`
	Constraints   map[string]any `json:"constraints,omitempty"`
	IssuedAt      time.Time      `json:"issued_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
	Issuer        string         `json:"issuer"`
	UsesRemaining *int           `json:"uses_remaining"`
	ParentID      string         `json:"parent_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// MapGrantToResponse converts a domain grant to an API response.
func MapGrantToResponse(grant *capDomain.Grant) GrantResponse {
	return GrantResponse{
		CapabilityID:  grant.CapabilityID,
		Subject:       grant.Subject,
		Action:        string(grant.Action),
		Resource:      grant.Resource,
		Constraints:   grant.Constraints,
		IssuedAt:      grant.IssuedAt,
		ExpiresAt:     grant.ExpiresAt,
		Issuer:        grant.Issuer,
		UsesRemaining: grant.UsesRemaining,
		ParentID:      grant.ParentID,
		CreatedAt:     grant.CreatedAt,
	}
}

// VerifyCapabilityResponse reports a verification decision. Allowed is the
// decision; Reason explains a denial ("Valid" on allow).
type VerifyCapabilityResponse struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason"`
	CapabilityID string `json:"capability_id"`
	Subject      string `json:"subject"`
}

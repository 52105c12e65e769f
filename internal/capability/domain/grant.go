package domain

import (
	"time"

	"github.com/google/uuid"
)

// Grant is the persisted record of a capability this authority signed. The
// issuing authority is the only place use accounting happens: verifiers stay
// stateless and consumption decrements the stored counter exactly once per
// authorized action.
type Grant struct {
	ID            uuid.UUID
	CapabilityID  string
	Subject       string
	Action        Action
	Resource      string
	Constraints   map[string]any
	IssuedAt      time.Time
	ExpiresAt     time.Time
	Issuer        string
	Signature     string
	UsesRemaining *int
	ParentID      string
	CreatedAt     time.Time
}

// NewGrant builds the grant row for a signed capability.
func NewGrant(c Capability) Grant {
	return Grant{
		ID:            uuid.Must(uuid.NewV7()),
		CapabilityID:  c.ID,
		Subject:       c.Subject,
		Action:        c.Action,
		Resource:      c.Resource,
		Constraints:   c.Constraints,
		IssuedAt:      c.IssuedAt,
		ExpiresAt:     c.ExpiresAt,
		Issuer:        c.Issuer,
		Signature:     c.Signature,
		UsesRemaining: c.UsesRemaining,
		ParentID:      c.ParentID,
		CreatedAt:     time.Now().UTC(),
	}
}

// Capability reconstructs the token the grant records.
func (g Grant) Capability() Capability {
	return Capability{
		ID:            g.CapabilityID,
		Subject:       g.Subject,
		Action:        g.Action,
		Resource:      g.Resource,
		Constraints:   g.Constraints,
		IssuedAt:      g.IssuedAt,
		ExpiresAt:     g.ExpiresAt,
		Issuer:        g.Issuer,
		Signature:     g.Signature,
		UsesRemaining: g.UsesRemaining,
		ParentID:      g.ParentID,
	}
}

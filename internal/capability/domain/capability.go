// Package domain holds the capability token model: an unforgeable grant of
// one action on one resource pattern, bounded by time and an optional use
// count, signed by its issuer and delegable with attenuation.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// Capability is a signed token granting subject the right to perform action
// on resources matching resource until expires_at, optionally limited to a
// number of uses. Field names mirror the wire format.
type Capability struct {
	ID          string         `json:"id"`
	Subject     string         `json:"subject"`
	Action      Action         `json:"action"`
	Resource    string         `json:"resource"`
	Constraints map[string]any `json:"constraints"`
	IssuedAt    time.Time      `json:"issued_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Issuer      string         `json:"issuer"`
	// Signature is "ed25519:<hex>" over the signing payload, or empty for an
	// unsigned capability.
	Signature string `json:"signature,omitempty"`
	// UsesRemaining limits how many times the capability may be consumed.
	// nil means unlimited.
	UsesRemaining *int `json:"uses_remaining"`
	// ParentID links a delegated capability to its parent for lookup. It
	// carries no verification semantics.
	ParentID string `json:"parent_id,omitempty"`
}

// NewCapabilityInput carries the fields needed to mint a capability.
type NewCapabilityInput struct {
	Subject     string
	Action      Action
	Resource    string
	Constraints map[string]any
	TTL         time.Duration
	Uses        *int
	Issuer      string
	ParentID    string
}

// New mints an unsigned capability. Timestamps are truncated to whole
// seconds so the signing payload is stable across serialization.
func New(input NewCapabilityInput) (Capability, error) {
	if input.Subject == "" {
		return Capability{}, apperrors.Wrap(apperrors.ErrInvalidInput, "subject is required")
	}
	if input.Resource == "" {
		return Capability{}, apperrors.Wrap(apperrors.ErrInvalidInput, "resource is required")
	}
	if _, err := ParseAction(string(input.Action)); err != nil {
		return Capability{}, err
	}
	if input.TTL <= 0 {
		return Capability{}, apperrors.Wrap(apperrors.ErrInvalidInput, "ttl must be positive")
	}
	if input.Uses != nil && *input.Uses < 0 {
		return Capability{}, apperrors.Wrap(apperrors.ErrInvalidInput, "uses must not be negative")
	}

	now := time.Now().UTC().Truncate(time.Second)
	constraints := input.Constraints
	if constraints == nil {
		constraints = map[string]any{}
	}
	return Capability{
		ID:            NewCapabilityID(),
		Subject:       input.Subject,
		Action:        input.Action,
		Resource:      input.Resource,
		Constraints:   constraints,
		IssuedAt:      now,
		ExpiresAt:     now.Add(input.TTL).Truncate(time.Second),
		Issuer:        input.Issuer,
		UsesRemaining: input.Uses,
		ParentID:      input.ParentID,
	}, nil
}

// NewCapabilityID generates a capability identifier of the form
// "cap_<12 hex chars>".
func NewCapabilityID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return "cap_" + hex.EncodeToString(b[:])
}

// IsExpiredAt reports whether the capability is expired at the given time.
func (c Capability) IsExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsExpired reports whether the capability is expired now.
func (c Capability) IsExpired() bool {
	return c.IsExpiredAt(time.Now().UTC())
}

// IsValidAt reports whether the capability is usable at the given time: not
// expired, and either unlimited or with uses left. Validity is independent of
// the signature, which is checked separately by the verifier.
func (c Capability) IsValidAt(now time.Time) bool {
	if c.IsExpiredAt(now) {
		return false
	}
	if c.UsesRemaining != nil && *c.UsesRemaining <= 0 {
		return false
	}
	return true
}

// IsValid reports whether the capability is usable now.
func (c Capability) IsValid() bool {
	return c.IsValidAt(time.Now().UTC())
}

// MatchesResource reports whether the capability's resource pattern covers
// the requested resource.
func (c Capability) MatchesResource(requested string) bool {
	return MatchesResource(c.Resource, requested)
}

// MatchesResource matches a resource pattern against a requested resource:
// exact equality, or a trailing "*" granting everything with the preceding
// prefix ("memory:agent:*" covers "memory:agent:kasra", bare "*" covers
// everything). Only a trailing wildcard is honored and no regular
// expressions are involved, keeping matching total and O(n).
func MatchesResource(pattern, requested string) bool {
	if pattern == requested {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(requested, prefix)
	}
	return false
}

// ResourceWithin reports whether the child resource pattern grants no more
// than the parent pattern. A child wildcard pattern needs a parent wildcard
// pattern whose prefix covers the child's; everything a plain child resource
// names must be matched by the parent.
func ResourceWithin(parent, child string) bool {
	if parent == child {
		return true
	}
	if childBase, ok := strings.CutSuffix(child, "*"); ok {
		parentBase, ok := strings.CutSuffix(parent, "*")
		if !ok {
			return false
		}
		return strings.HasPrefix(childBase, parentBase)
	}
	return MatchesResource(parent, child)
}

// CoversDelegation checks that the child capability stays within this
// capability's grant. Action, resource pattern, expiry, and use count may
// only narrow; the first exceeded bound is reported. The caller is
// responsible for passing the authoritative use count, which lives on the
// grant rather than the token.
func (c Capability) CoversDelegation(child Capability) error {
	if !c.Action.Matches(child.Action) {
		return apperrors.Wrapf(
			ErrDelegationExceedsParent,
			"action %s exceeds parent action %s", child.Action, c.Action,
		)
	}
	if !ResourceWithin(c.Resource, child.Resource) {
		return apperrors.Wrapf(
			ErrDelegationExceedsParent,
			"resource %s exceeds parent resource %s", child.Resource, c.Resource,
		)
	}
	if child.ExpiresAt.After(c.ExpiresAt) {
		return apperrors.Wrapf(
			ErrDelegationExceedsParent,
			"expiry %s exceeds parent expiry %s",
			child.ExpiresAt.UTC().Format(time.RFC3339), c.ExpiresAt.UTC().Format(time.RFC3339),
		)
	}
	if c.UsesRemaining != nil {
		if child.UsesRemaining == nil {
			return apperrors.Wrap(
				ErrDelegationExceedsParent,
				"unlimited uses exceed parent use limit",
			)
		}
		if *child.UsesRemaining > *c.UsesRemaining {
			return apperrors.Wrapf(
				ErrDelegationExceedsParent,
				"uses %d exceed parent uses %d", *child.UsesRemaining, *c.UsesRemaining,
			)
		}
	}
	return nil
}

// SigningPayload is the canonical byte encoding covered by the signature:
// every field except the signature itself, JSON-encoded with sorted keys and
// compact separators. Any change to a covered field changes the payload.
func (c Capability) SigningPayload() ([]byte, error) {
	var parentID any
	if c.ParentID != "" {
		parentID = c.ParentID
	}
	constraints := c.Constraints
	if constraints == nil {
		constraints = map[string]any{}
	}
	payload := map[string]any{
		"id":             c.ID,
		"subject":        c.Subject,
		"action":         string(c.Action),
		"resource":       c.Resource,
		"constraints":    constraints,
		"issued_at":      c.IssuedAt.UTC().Format(time.RFC3339),
		"expires_at":     c.ExpiresAt.UTC().Format(time.RFC3339),
		"issuer":         c.Issuer,
		"uses_remaining": c.UsesRemaining,
		"parent_id":      parentID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "encode signing payload")
	}
	return data, nil
}

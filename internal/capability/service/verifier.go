package service

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	apperrors "github.com/sovereignos/guard/internal/errors"
)

// Verification reason strings. Policy outcomes are returned as (bool, reason)
// pairs rather than errors so callers can choose advisory or strict handling
// without exception-style control flow.
const (
	ReasonValid          = "Valid"
	ReasonValidSignature = "valid signature"
)

// Verifier checks capabilities against an optional issuer public key. The
// zero-key verifier skips signature checks entirely; whether that is
// acceptable is an enforcement-configuration decision made by the caller,
// not by the verifier. Multiple differently-keyed verifiers may coexist.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier builds a verifier from a hex public key. An empty string
// configures no key. A malformed key is a configuration error: better to
// fail at startup than to silently verify nothing.
func NewVerifier(publicKeyHex string) (*Verifier, error) {
	if publicKeyHex == "" {
		return &Verifier{}, nil
	}
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "public key is not valid hex")
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, apperrors.Wrap(
			apperrors.ErrConfiguration,
			fmt.Sprintf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key)),
		)
	}
	return &Verifier{key: key}, nil
}

// HasKey reports whether a public key is configured.
func (v *Verifier) HasKey() bool {
	return len(v.key) > 0
}

// VerifySignature checks the capability's Ed25519 signature against the
// configured public key.
func (v *Verifier) VerifySignature(c capDomain.Capability) (bool, string) {
	if !v.HasKey() {
		return false, "no public key configured"
	}
	if c.Signature == "" {
		return false, "missing signature"
	}

	encoded := strings.TrimPrefix(c.Signature, signaturePrefix)
	signature, err := hex.DecodeString(encoded)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false, "invalid signature encoding"
	}

	payload, err := c.SigningPayload()
	if err != nil {
		return false, "invalid signature"
	}
	digest := sha256.Sum256(payload)
	if !ed25519.Verify(v.key, digest[:], signature) {
		return false, "invalid signature"
	}
	return true, ReasonValidSignature
}

// VerifyCapabilityAt runs the full decision at a fixed instant, returning the
// first failing reason. Checks run cheapest first: expiry, uses, action,
// resource, and only then the signature (and only when a key is configured),
// so malformed or expired tokens never reach the cryptographic step.
func (v *Verifier) VerifyCapabilityAt(
	now time.Time,
	c capDomain.Capability,
	requiredAction capDomain.Action,
	resource string,
) (bool, string) {
	if c.IsExpiredAt(now) {
		return false, fmt.Sprintf("capability expired at %s", c.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if c.UsesRemaining != nil && *c.UsesRemaining <= 0 {
		return false, "capability has no uses remaining"
	}
	if !c.Action.Matches(requiredAction) {
		return false, fmt.Sprintf(
			"action mismatch: capability grants %s, requested %s", c.Action, requiredAction,
		)
	}
	if !c.MatchesResource(resource) {
		return false, fmt.Sprintf(
			"resource mismatch: capability grants %s, requested %s", c.Resource, resource,
		)
	}
	if v.HasKey() {
		if ok, reason := v.VerifySignature(c); !ok {
			return false, reason
		}
	}
	return true, ReasonValid
}

// VerifyCapability runs the full decision at the current time.
func (v *Verifier) VerifyCapability(
	c capDomain.Capability,
	requiredAction capDomain.Action,
	resource string,
) (bool, string) {
	return v.VerifyCapabilityAt(time.Now().UTC(), c, requiredAction, resource)
}

// IsSignatureReason reports whether a rejection reason concerns the
// signature. Signature failures map to the authentication error class at the
// boundary; every other policy failure maps to the authorization class.
func IsSignatureReason(reason string) bool {
	return strings.Contains(strings.ToLower(reason), "signature")
}

package service

import (
	apperrors "github.com/sovereignos/guard/internal/errors"
)

// Enforcement selects how capability checks apply to guarded operations.
// Advisory mode logs violations and lets the request through, so operators
// can stage a rollout across services without a code deploy per stage.
type Enforcement string

const (
	EnforcementOff      Enforcement = "off"
	EnforcementAdvisory Enforcement = "advisory"
	EnforcementStrict   Enforcement = "strict"
)

// ParseEnforcement validates a configured enforcement mode.
func ParseEnforcement(raw string) (Enforcement, error) {
	switch Enforcement(raw) {
	case EnforcementOff, EnforcementAdvisory, EnforcementStrict:
		return Enforcement(raw), nil
	default:
		return "", apperrors.Wrapf(apperrors.ErrConfiguration, "unknown enforcement mode %q", raw)
	}
}

// Enabled reports whether capability checks run at all.
func (e Enforcement) Enabled() bool {
	return e != EnforcementOff
}

// Strict reports whether violations reject the request.
func (e Enforcement) Strict() bool {
	return e == EnforcementStrict
}

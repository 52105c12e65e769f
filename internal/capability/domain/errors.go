package domain

import (
	"github.com/sovereignos/guard/internal/errors"
)

var (
	// ErrGrantNotFound indicates no grant exists for the capability id.
	ErrGrantNotFound = errors.Wrap(errors.ErrNotFound, "grant not found")

	// ErrGrantExhausted indicates a use-limited grant has no uses left.
	ErrGrantExhausted = errors.Wrap(errors.ErrForbidden, "capability has no uses remaining")

	// ErrDelegationExceedsParent indicates a delegation request asked for
	// more than the parent capability grants.
	ErrDelegationExceedsParent = errors.Wrap(errors.ErrForbidden, "delegation exceeds parent capability")
)

package scopes

import (
	"fmt"
	"strings"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// Context carries the authorization identity of one request. It is built by
// boundary authentication and passed explicitly to whatever needs it; nothing
// in this package reads ambient request state.
type Context struct {
	// Scopes is the caller's flattened scope list.
	Scopes []Scope
	// Subject identifies the caller, e.g. "agent:alpha" or "svc:gateway".
	Subject string
	// Issuer identifies the authority that authenticated the caller.
	Issuer string
}

// NewContext builds a Context with a defensive copy of the scope list.
func NewContext(provided []Scope, subject, issuer string) Context {
	s := make([]Scope, len(provided))
	copy(s, provided)
	return Context{Scopes: s, Subject: subject, Issuer: issuer}
}

// Has reports whether the context carries the given scope.
func (c Context) Has(s Scope) bool {
	return Check(c.Scopes, []Scope{s})
}

// Require checks the context against an operation's required scopes and
// returns a DeniedError naming only the missing scopes on failure.
func (c Context) Require(operation string) error {
	missing := Missing(c.Scopes, RequiredScopes(operation))
	if len(missing) == 0 {
		return nil
	}
	return &DeniedError{Operation: operation, Missing: missing}
}

// DeniedError reports a scope check failure. Its message names the missing
// scopes and nothing else.
type DeniedError struct {
	Operation string
	Missing   []Scope
}

func (e *DeniedError) Error() string {
	names := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		names[i] = string(s)
	}
	return fmt.Sprintf("missing required scopes: %s", strings.Join(names, ", "))
}

// Unwrap maps scope denials onto the forbidden error class.
func (e *DeniedError) Unwrap() error {
	return apperrors.ErrForbidden
}

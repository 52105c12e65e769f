package domain

import (
	"github.com/sovereignos/guard/internal/errors"
)

// Authentication and authorization errors.
var (
	// ErrClientNotFound indicates a client with the specified ID was not found.
	ErrClientNotFound = errors.Wrap(errors.ErrNotFound, "client not found")

	// ErrTokenNotFound indicates a token with the specified ID was not found.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrInvalidCredentials indicates authentication failed. It deliberately
	// covers unknown clients, wrong secrets, and bad or expired tokens so
	// responses do not reveal which part failed.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrClientInactive indicates the client exists but has been deactivated.
	ErrClientInactive = errors.Wrap(errors.ErrForbidden, "client is not active")

	// ErrClientLocked indicates the client is locked out after too many
	// failed authentication attempts.
	ErrClientLocked = errors.Wrap(errors.ErrLocked, "client is locked")

	// ErrSignatureInvalid indicates an audit log signature does not match its
	// contents, meaning the record was tampered with or signed by another key.
	ErrSignatureInvalid = errors.New("audit log signature invalid")
)

// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	"github.com/sovereignos/guard/internal/scopes"
)

// clientKey is a context key type for storing authenticated clients.
type clientKey struct{}

// scopeContextKey is a context key type for storing the request's scope context.
type scopeContextKey struct{}

// WithClient stores an authenticated client in the context.
// This is typically called by the authentication middleware after successful token validation.
func WithClient(ctx context.Context, client *authDomain.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// GetClient retrieves an authenticated client from the context.
// Returns (client, true) if a client is present, or (nil, false) if no client was set.
// This is typically called by handlers or subsequent middleware that need the authenticated client.
func GetClient(ctx context.Context) (*authDomain.Client, bool) {
	client, ok := ctx.Value(clientKey{}).(*authDomain.Client)
	return client, ok
}

// WithScopeContext stores the caller's authorization context in the request context.
// This is typically called by the authentication middleware after building the
// scope context from the authenticated client.
func WithScopeContext(ctx context.Context, sc scopes.Context) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, sc)
}

// GetScopeContext retrieves the caller's authorization context.
// Returns (sc, true) if present, or (zero, false) if no scope context was set.
// This is typically called by RequireScopes and by handlers that record
// audit metadata about the caller.
func GetScopeContext(ctx context.Context) (scopes.Context, bool) {
	sc, ok := ctx.Value(scopeContextKey{}).(scopes.Context)
	return sc, ok
}

// Package http provides HTTP handlers and enforcement middleware for
// capability operations.
package http

import (
	"context"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
)

// capabilityKey is a context key type for storing the presented capability.
type capabilityKey struct{}

// WithCapability stores the verified presented capability in the context.
// This is typically called by the enforcement middleware after a token passes
// verification.
func WithCapability(ctx context.Context, c capDomain.Capability) context.Context {
	return context.WithValue(ctx, capabilityKey{}, c)
}

// GetCapability retrieves the verified presented capability from the context.
// Returns (capability, true) if one is present, or (zero, false) if no
// capability was set.
func GetCapability(ctx context.Context) (capDomain.Capability, bool) {
	c, ok := ctx.Value(capabilityKey{}).(capDomain.Capability)
	return c, ok
}

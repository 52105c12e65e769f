// Package scopes implements the coarse permission model used by boundary
// authorization. A scope is a "<domain>.<verb>" string from a closed set;
// callers carry a flattened scope list and operations declare the scope set
// they require. Scope checks are pure set containment, with no pattern
// matching and no I/O.
package scopes

import (
	"slices"
	"strings"
)

// Scope identifies a single permission as "<domain>.<verb>".
type Scope string

// The closed set of recognized scopes.
const (
	AgentRead  Scope = "agent.read"
	AgentWrite Scope = "agent.write"
	AgentAdmin Scope = "agent.admin"

	MemoryRead   Scope = "memory.read"
	MemoryWrite  Scope = "memory.write"
	MemoryDelete Scope = "memory.delete"

	EconomyRead     Scope = "economy.read"
	EconomyTransact Scope = "economy.transact"
	EconomyAdmin    Scope = "economy.admin"

	ToolsList    Scope = "tools.list"
	ToolsExecute Scope = "tools.execute"
	ToolsAdmin   Scope = "tools.admin"

	IdentityRead  Scope = "identity.read"
	IdentityPair  Scope = "identity.pair"
	IdentityAdmin Scope = "identity.admin"

	SystemHealth Scope = "system.health"
	SystemConfig Scope = "system.config"
	SystemAdmin  Scope = "system.admin"
)

var allScopes = []Scope{
	AgentRead, AgentWrite, AgentAdmin,
	MemoryRead, MemoryWrite, MemoryDelete,
	EconomyRead, EconomyTransact, EconomyAdmin,
	ToolsList, ToolsExecute, ToolsAdmin,
	IdentityRead, IdentityPair, IdentityAdmin,
	SystemHealth, SystemConfig, SystemAdmin,
}

// All returns every recognized scope, sorted.
func All() []Scope {
	out := make([]Scope, len(allScopes))
	copy(out, allScopes)
	slices.Sort(out)
	return out
}

// Known reports whether s is a recognized scope.
func Known(s Scope) bool {
	return slices.Contains(allScopes, s)
}

// Domain returns the "<domain>" part of the scope, or "" when malformed.
func (s Scope) Domain() string {
	domain, _, ok := strings.Cut(string(s), ".")
	if !ok {
		return ""
	}
	return domain
}

// Verb returns the "<verb>" part of the scope, or "" when malformed.
func (s Scope) Verb() string {
	_, verb, ok := strings.Cut(string(s), ".")
	if !ok {
		return ""
	}
	return verb
}

// Parse converts raw strings into recognized scopes, silently skipping
// unknown values. Provisioning inputs may mix valid scopes with typos or
// scopes from newer deployments; rejecting the whole list would make every
// rollout a flag day.
func Parse(raw []string) []Scope {
	out := make([]Scope, 0, len(raw))
	for _, r := range raw {
		s := Scope(strings.TrimSpace(r))
		if Known(s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// Check reports whether provided covers every required scope. An empty
// required set always passes.
func Check(provided, required []Scope) bool {
	return len(Missing(provided, required)) == 0
}

// Missing returns the required scopes not present in provided, sorted.
// Denial messages are built from this list alone so they never leak the
// caller's unrelated scopes.
func Missing(provided, required []Scope) []Scope {
	missing := make([]Scope, 0)
	for _, req := range required {
		if !slices.Contains(provided, req) && !slices.Contains(missing, req) {
			missing = append(missing, req)
		}
	}
	slices.Sort(missing)
	return missing
}

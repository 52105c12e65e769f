package scopes

import "slices"

// Bundles are provisioning-time shorthands for common scope sets. They are
// expanded exactly once, when a client is provisioned; enforcement only ever
// sees flattened scopes, so redefining a bundle never changes the permissions
// of already-provisioned clients.
var bundles = map[string][]Scope{
	"readonly": {
		AgentRead,
		MemoryRead,
		EconomyRead,
		ToolsList,
		IdentityRead,
		SystemHealth,
	},
	"user": {
		AgentRead, AgentWrite,
		MemoryRead, MemoryWrite,
		EconomyRead, EconomyTransact,
		ToolsList, ToolsExecute,
		IdentityRead,
		SystemHealth,
	},
	"agent": {
		AgentRead, AgentWrite,
		MemoryRead, MemoryWrite, MemoryDelete,
		EconomyRead, EconomyTransact,
		ToolsList, ToolsExecute,
		IdentityRead, IdentityPair,
		SystemHealth,
	},
	"admin": allScopes,
}

// ExpandBundle returns the scopes a bundle stands for. The second return is
// false for unknown bundle names.
func ExpandBundle(name string) ([]Scope, bool) {
	expanded, ok := bundles[name]
	if !ok {
		return nil, false
	}
	out := make([]Scope, len(expanded))
	copy(out, expanded)
	return out, true
}

// BundleNames returns the known bundle names, sorted.
func BundleNames() []string {
	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Flatten resolves a mixed list of bundle names and raw scope strings into a
// sorted, deduplicated scope list. Unknown entries are skipped, matching
// Parse.
func Flatten(names []string) []Scope {
	out := make([]Scope, 0, len(names))
	for _, name := range names {
		if expanded, ok := ExpandBundle(name); ok {
			for _, s := range expanded {
				if !slices.Contains(out, s) {
					out = append(out, s)
				}
			}
			continue
		}
		for _, s := range Parse([]string{name}) {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	slices.Sort(out)
	return out
}

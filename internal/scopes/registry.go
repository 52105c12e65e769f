package scopes

// operationScopes is the static registry mapping logical operation names to
// the scope set they require. Every scope in the set must be present. An
// operation absent from the registry requires nothing, which keeps lookups
// total; registry completeness is asserted by tests, not at runtime.
//
// Delegation, verification and consumption of capabilities are deliberately
// unregistered: those operations are authorized by the presented capability
// itself, not by the caller's scopes.
var operationScopes = map[string][]Scope{
	// Chat/agent operations.
	"chat":         {AgentRead, AgentWrite},
	"agent_status": {AgentRead},
	"agent_create": {AgentAdmin},
	"agent_delete": {AgentAdmin},

	// Memory operations.
	"memory_search":   {MemoryRead},
	"memory_retrieve": {MemoryRead},
	"memory_store":    {MemoryWrite},
	"memory_update":   {MemoryWrite},
	"memory_delete":   {MemoryDelete},

	// Economy operations.
	"economy_balance":  {EconomyRead},
	"economy_history":  {EconomyRead},
	"economy_transfer": {EconomyTransact},
	"economy_mint":     {EconomyAdmin},

	// Tools operations.
	"tools_list":     {ToolsList},
	"tools_execute":  {ToolsExecute},
	"tools_register": {ToolsAdmin},

	// Identity operations.
	"identity_info":   {IdentityRead},
	"identity_pair":   {IdentityPair},
	"identity_create": {IdentityAdmin},

	// System operations.
	"health":     {SystemHealth},
	"config_get": {SystemConfig},
	"config_set": {SystemConfig},

	// This service's own surface.
	"capability_issue": {SystemAdmin},
	"capability_get":   {SystemConfig},
	"client_manage":    {SystemAdmin},
	"audit_read":       {SystemAdmin},
	"egress_check":     {ToolsExecute},
}

// RequiredScopes returns the scope set an operation requires. Unknown
// operations return an empty set.
func RequiredScopes(operation string) []Scope {
	required, ok := operationScopes[operation]
	if !ok {
		return nil
	}
	out := make([]Scope, len(required))
	copy(out, required)
	return out
}

// Operations returns every operation name in the registry.
func Operations() []string {
	names := make([]string, 0, len(operationScopes))
	for name := range operationScopes {
		names = append(names, name)
	}
	return names
}

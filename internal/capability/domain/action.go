package domain

import (
	"fmt"
	"slices"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// Action identifies what a capability permits, as "<domain>:<verb>".
type Action string

// The closed set of actions a capability can grant. ActionWildcard grants
// every action and is reserved for root capabilities.
const (
	ActionMemoryRead   Action = "memory:read"
	ActionMemoryWrite  Action = "memory:write"
	ActionMemoryDelete Action = "memory:delete"

	ActionToolExecute  Action = "tool:execute"
	ActionToolRegister Action = "tool:register"

	ActionLedgerRead  Action = "ledger:read"
	ActionLedgerWrite Action = "ledger:write"

	ActionAgentSpawn     Action = "agent:spawn"
	ActionAgentTerminate Action = "agent:terminate"

	ActionConfigRead  Action = "config:read"
	ActionConfigWrite Action = "config:write"

	ActionSecretRead  Action = "secret:read"
	ActionSecretWrite Action = "secret:write"

	ActionNetworkOutbound Action = "network:outbound"

	ActionFileRead  Action = "file:read"
	ActionFileWrite Action = "file:write"

	ActionWildcard Action = "*"
)

var allActions = []Action{
	ActionMemoryRead, ActionMemoryWrite, ActionMemoryDelete,
	ActionToolExecute, ActionToolRegister,
	ActionLedgerRead, ActionLedgerWrite,
	ActionAgentSpawn, ActionAgentTerminate,
	ActionConfigRead, ActionConfigWrite,
	ActionSecretRead, ActionSecretWrite,
	ActionNetworkOutbound,
	ActionFileRead, ActionFileWrite,
	ActionWildcard,
}

// Actions returns every recognized action.
func Actions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

// ParseAction validates a raw action string against the closed action set.
func ParseAction(raw string) (Action, error) {
	a := Action(raw)
	if !slices.Contains(allActions, a) {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown action %q", raw))
	}
	return a, nil
}

// Matches reports whether the action satisfies required: exact match, or the
// capability holds the wildcard action.
func (a Action) Matches(required Action) bool {
	return a == ActionWildcard || a == required
}

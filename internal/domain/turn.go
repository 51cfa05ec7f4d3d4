package domain

import "fmt"

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles accepted by the chat contract.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is the provider-agnostic chat message shape shared by the handler,
// the client library and the LLM integrations.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (t Turn) String() string {
	return fmt.Sprintf("%s: %s", t.Role, t.Content)
}

// HasSystemTurn reports whether any turn carries the system role.
func HasSystemTurn(turns []Turn) bool {
	for _, t := range turns {
		if t.Role == RoleSystem {
			return true
		}
	}
	return false
}

// WithSystemPrompt returns a new sequence with one system turn holding prompt
// prepended, unless turns already contains a system turn. The input slice is
// never modified.
func WithSystemPrompt(turns []Turn, prompt string) []Turn {
	if HasSystemTurn(turns) {
		out := make([]Turn, len(turns))
		copy(out, turns)
		return out
	}
	out := make([]Turn, 0, len(turns)+1)
	out = append(out, Turn{Role: RoleSystem, Content: prompt})
	return append(out, turns...)
}

package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPersona_IncludesRules(t *testing.T) {
	content := Persona()
	require.Contains(t, content, "Role:")
	require.Contains(t, content, "book recommendation expert")
	require.Contains(t, content, "Behavior Rules:")
	require.NotContains(t, content, "Output Contract:")
}

func TestPersonaWithSchema_IncludesContract(t *testing.T) {
	content := PersonaWithSchema()
	require.Contains(t, content, "Output Contract:")
	require.Contains(t, content, `"type":"recommendation"`)
	require.Contains(t, content, `"type":"chat"`)
	require.Contains(t, content, "exactly 3 books")
}

func TestForMode(t *testing.T) {
	require.Equal(t, PersonaWithSchema(), ForMode(true))
	require.Equal(t, Persona(), ForMode(false))
}

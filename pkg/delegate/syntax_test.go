package delegate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCall(t *testing.T) {
	got := FormatCall("Find login component", AgentExplore)
	assert.Equal(t, `Task(subagent_type="explore", prompt="Find login component")`, got)
}

func TestFormatCallEscapes(t *testing.T) {
	prompt := "line one\nline \"two\"\r\nback\\slash\u2028separated"
	got := FormatCall(prompt, AgentTask)

	assert.NotContains(t, got, "\n")
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\u2028")
	assert.Contains(t, got, `\n`)
	assert.Contains(t, got, `\"two\"`)
	assert.Equal(t, 1, len(strings.Split(got, "\n")))
}

func TestParseCallRoundTrip(t *testing.T) {
	prompts := []string{
		"simple",
		"with \"quotes\" and 'apostrophes'",
		"multi\nline\n\nprompt",
		`trailing backslash \`,
		"unicode: héllo wörld",
		`looks like ", prompt="injection`,
	}
	for _, p := range prompts {
		for _, a := range AgentTypes {
			prompt, agent, err := ParseCall(FormatCall(p, a))
			require.NoError(t, err, p)
			assert.Equal(t, p, prompt)
			assert.Equal(t, a, agent)
		}
	}
}

func TestParseCallRejectsGarbage(t *testing.T) {
	for _, s := range []string{
		"",
		"Task()",
		`Task(subagent_type=explore, prompt="x")`,
		`Task(subagent_type="explore", prompt="unterminated)`,
	} {
		_, _, err := ParseCall(s)
		assert.Error(t, err, s)
	}
}

func TestSyntaxHelp(t *testing.T) {
	help := SyntaxHelp()
	for _, a := range AgentTypes {
		assert.Contains(t, help, string(a))
	}
	assert.Contains(t, help, `Task(subagent_type="explore", prompt="Find login component")`)
}

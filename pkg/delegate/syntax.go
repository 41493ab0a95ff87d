package delegate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// callPattern matches the output of FormatCall. Both arguments are Go quoted
// strings, so they never span lines.
var callPattern = regexp.MustCompile(`^Task\(subagent_type=("(?:[^"\\]|\\.)*"), prompt=("(?:[^"\\]|\\.)*")\)$`)

// FormatCall renders a delegation as a single-line invocation for display.
// Quotes, backslashes and newlines in the prompt are escaped, so the result
// never contains a raw line break.
func FormatCall(prompt string, agentType AgentType) string {
	return fmt.Sprintf("Task(subagent_type=%s, prompt=%s)",
		strconv.Quote(string(agentType)), strconv.Quote(prompt))
}

// ParseCall reverses FormatCall.
func ParseCall(s string) (prompt string, agentType AgentType, err error) {
	m := callPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", fmt.Errorf("not a delegation call: %q", s)
	}
	kind, err := strconv.Unquote(m[1])
	if err != nil {
		return "", "", fmt.Errorf("subagent_type: %w", err)
	}
	prompt, err = strconv.Unquote(m[2])
	if err != nil {
		return "", "", fmt.Errorf("prompt: %w", err)
	}
	return prompt, AgentType(kind), nil
}

// SyntaxHelp documents the invocation format and the accepted agent types.
func SyntaxHelp() string {
	var sb strings.Builder
	sb.WriteString("Delegation call syntax:\n\n")
	sb.WriteString("  Task(subagent_type=\"<agent type>\", prompt=\"<task prompt>\")\n\n")
	sb.WriteString("The prompt is a double-quoted string. Newlines are written as \\n and\n")
	sb.WriteString("embedded quotes as \\\".\n\n")
	sb.WriteString("Agent types:\n")
	sb.WriteString("  explore          read-only search and summarization of code or documents\n")
	sb.WriteString("  task             a bounded action such as running tests or applying a change\n")
	sb.WriteString("  general-purpose  open-ended multi-step work\n\n")
	sb.WriteString("Example:\n  ")
	sb.WriteString(FormatCall("Find login component", AgentExplore))
	sb.WriteString("\n")
	return sb.String()
}

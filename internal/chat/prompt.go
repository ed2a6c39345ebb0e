package chat

import (
	_ "embed"
	"strings"

	"github.com/DavidBatoDev/wally-chat-bot/internal/provider"
	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

//go:embed prompts/persona.md
var defaultPersona string

// DefaultPersona returns the built-in assistant persona text.
func DefaultPersona() string {
	return strings.TrimSpace(defaultPersona)
}

// timestampLayout renders the optional per-entry timestamp annotation.
const timestampLayout = "2006-01-02 15:04 MST"

// Prompt is the linear input for one backend invocation: the fixed system
// instruction plus the retained turns as role-tagged entries.
type Prompt struct {
	System   string
	Messages []provider.Message
}

// Entries returns the total entry count including the system entry.
func (p Prompt) Entries() int {
	return 1 + len(p.Messages)
}

// Assemble renders a retention plan into a Prompt. Entries keep the plan's
// chronological order; when includeTimestamps is set, each entry's text gets
// a rendered send-time annotation appended. Pure: no I/O, no network.
func Assemble(system string, plan Plan, includeTimestamps bool) Prompt {
	msgs := make([]provider.Message, 0, len(plan))
	for _, t := range plan {
		text := t.Text
		if includeTimestamps && !t.SentAt.IsZero() {
			text += " [sent " + t.SentAt.UTC().Format(timestampLayout) + "]"
		}
		role := provider.RoleUser
		if t.Role == transcript.RoleAssistant {
			role = provider.RoleAssistant
		}
		msgs = append(msgs, provider.Message{Role: role, Text: text})
	}
	return Prompt{System: system, Messages: msgs}
}

// Package chat implements the conversation-context assembly and tool-dispatch
// pipeline: it normalizes stored turns into renderable text, selects which
// turns fit the model's context budget, assembles the linear prompt, invokes
// the generative backend, and decodes the result into UI actions.
package chat

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

// DefaultTokensPerChar is the crude chars-to-tokens ratio used for budgeting.
// The backend enforces its own hard ceiling, so the estimate only has to
// usually stay under budget, not be exact.
const DefaultTokensPerChar = 0.25

// malformedPayloadText replaces the rendering of a turn whose payload
// cannot be decoded. One bad turn never aborts the batch.
const malformedPayloadText = "[Attachment unavailable]"

// NormalizedTurn is a turn reduced to prompt-ready text with an estimated
// token cost. Index is the turn's position in the original transcript slice.
type NormalizedTurn struct {
	Role   transcript.Role
	Text   string
	Tokens int
	Index  int
	SentAt time.Time
}

// Normalizer converts heterogeneous stored turns into NormalizedTurns.
type Normalizer struct {
	tokensPerChar float64
}

func NewNormalizer(tokensPerChar float64) *Normalizer {
	if tokensPerChar <= 0 {
		tokensPerChar = DefaultTokensPerChar
	}
	return &Normalizer{tokensPerChar: tokensPerChar}
}

// Normalize maps each turn to its rendered text. UI prompts and turns that
// render to empty text are dropped. Pure and deterministic: the same input
// always yields the same output.
func (n *Normalizer) Normalize(turns []transcript.Turn) []NormalizedTurn {
	result := make([]NormalizedTurn, 0, len(turns))
	for i, t := range turns {
		text := renderTurn(t)
		if text == "" {
			continue
		}
		result = append(result, NormalizedTurn{
			Role:   t.Role,
			Text:   text,
			Tokens: n.EstimateTokens(text),
			Index:  i,
			SentAt: t.SentAt,
		})
	}
	return result
}

// EstimateTokens returns ceil(len(text) * tokensPerChar).
func (n *Normalizer) EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) * n.tokensPerChar))
}

// renderTurn produces the prompt text for a single turn, switching on the
// payload variant selected by Kind. File and action payloads become short
// bracketed descriptions; raw file content never enters the prompt.
func renderTurn(t transcript.Turn) string {
	switch t.Kind {
	case transcript.KindText:
		return t.Content

	case transcript.KindFile:
		p, err := t.FilePayload()
		if err != nil {
			return malformedPayloadText
		}
		if p.Name == "" {
			return "[User uploaded a file]"
		}
		return fmt.Sprintf("[User uploaded a file: %s]", p.Name)

	case transcript.KindFileReference:
		p, err := t.FilePayload()
		if err != nil {
			return malformedPayloadText
		}
		if p.Name == "" {
			return "[User referenced a file]"
		}
		return fmt.Sprintf("[User referenced a file: %s]", p.Name)

	case transcript.KindAction:
		p, err := t.ActionPayload()
		if err != nil || p.Name == "" {
			return malformedPayloadText
		}
		if len(p.Values) == 0 {
			return fmt.Sprintf("[User selected: %s]", p.Name)
		}
		// Sort keys so rendering is deterministic.
		keys := make([]string, 0, len(p.Values))
		for k := range p.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+p.Values[k])
		}
		return fmt.Sprintf("[User selected: %s (%s)]", p.Name, strings.Join(parts, ", "))

	case transcript.KindUIPrompt:
		// UI-only artifact; nothing worth re-feeding to the model.
		return ""

	default:
		return ""
	}
}

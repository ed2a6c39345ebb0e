// Package provider defines the unified interface and shared types for
// generative-language backends. Each adapter (openai.go, anthropic.go)
// converts the unified request into its vendor's API format and normalizes
// the vendor's streaming response into a unified Event sequence.
package provider

import (
	"context"
	"encoding/json"
)

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry in the linear prompt. Conversation
// history is flattened to plain text before it reaches this layer, so a
// message carries no content blocks beyond its text.
type Message struct {
	Role Role
	Text string
}

// ── Tool schema ──────────────────────────────────────────────────────────────

// ToolSchema describes a tool offered to the model (JSON Schema format).
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema properties
}

// ── Request types ────────────────────────────────────────────────────────────

// ChatRequest is the unified request format sent to a backend.
type ChatRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolSchema
	SystemPrompt string
	MaxTokens    int
	Temperature  *float64
}

// ── Event types (streaming output) ───────────────────────────────────────────

type EventType int

const (
	// EventTextDelta: incremental text output from the model.
	EventTextDelta EventType = iota

	// EventToolCallDone: a complete tool call (emitted after internal JSON assembly).
	EventToolCallDone

	// EventDone: end of this response, includes token usage when reported.
	EventDone

	// EventError: an error occurred.
	EventError
)

// Event is the unified streaming event emitted by a backend adapter.
type Event struct {
	Type EventType

	// EventTextDelta
	TextDelta string

	// EventToolCallDone
	ToolCall *ToolCallRequest

	// EventDone
	Usage *Usage

	// EventError
	Error error
}

// ToolCallRequest represents a tool invocation requested by the model
// instead of free text.
type ToolCallRequest struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Usage records token consumption for an API call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ── Provider interface ───────────────────────────────────────────────────────

// Provider is the unified interface for all generative backends.
// Implementors are responsible for:
//  1. Converting the unified ChatRequest into the vendor's API request format
//  2. Converting the vendor's streaming response into a unified Event sequence
//  3. Internally assembling streaming tool-call JSON fragments
//  4. Observing context cancellation between events so an abandoned stream
//     releases the underlying connection
type Provider interface {
	// Chat initiates a streaming conversation.
	// The returned channel emits Events until EventDone or EventError, then
	// closes. The caller either drains the channel or cancels ctx.
	Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error)

	// Name returns the backend identifier, e.g. "openai", "gemini", "anthropic".
	Name() string

	// DefaultModel returns the default model.
	DefaultModel() string

	// ContextWindow returns the context window size for the current model.
	ContextWindow() int
}

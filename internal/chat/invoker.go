package chat

import (
	"context"
	"strings"

	"github.com/DavidBatoDev/wally-chat-bot/internal/provider"
)

// fallbackText is the safe, user-facing reply substituted for any backend
// failure. Raw errors never reach the caller from this boundary down.
const fallbackText = "I'm sorry, I encountered an error while processing your request. Please try again."

// Options are per-invocation generation settings.
type Options struct {
	Temperature       *float64
	MaxOutputTokens   int
	IncludeTimestamps bool
}

// Result is the outcome of an invocation: either free text or exactly one
// tool call, never both.
type Result struct {
	Text     string
	ToolCall *provider.ToolCallRequest
}

// StreamEvent is one item in a streaming invocation. Text events arrive in
// order; ToolCall and Err are terminal and arrive at most once.
type StreamEvent struct {
	Text     string                    `json:"text,omitempty"`
	ToolCall *provider.ToolCallRequest `json:"-"`
	Err      error                     `json:"-"`
}

// Invoker calls the generative backend. The backend client is injected at
// construction; there is no package-level client state.
type Invoker struct {
	backend         provider.Provider
	tools           []provider.ToolSchema
	maxOutputTokens int
}

func NewInvoker(backend provider.Provider, maxOutputTokens int) *Invoker {
	if maxOutputTokens <= 0 {
		maxOutputTokens = 2048
	}
	return &Invoker{
		backend:         backend,
		tools:           ToolSchemas(),
		maxOutputTokens: maxOutputTokens,
	}
}

func (inv *Invoker) request(prompt Prompt, opts Options) *provider.ChatRequest {
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = inv.maxOutputTokens
	}
	return &provider.ChatRequest{
		Messages:     prompt.Messages,
		SystemPrompt: prompt.System,
		Tools:        inv.tools,
		MaxTokens:    maxTokens,
		Temperature:  opts.Temperature,
	}
}

// Invoke sends the prompt once and waits for the complete response. A tool
// call wins over any accompanying text. Backend errors degrade to the
// fallback text; Invoke never returns an error.
func (inv *Invoker) Invoke(ctx context.Context, prompt Prompt, opts Options) Result {
	events, err := inv.backend.Chat(ctx, inv.request(prompt, opts))
	if err != nil {
		return Result{Text: fallbackText}
	}

	var text strings.Builder
	var toolCall *provider.ToolCallRequest
	var failed bool

	for event := range events {
		switch event.Type {
		case provider.EventTextDelta:
			text.WriteString(event.TextDelta)
		case provider.EventToolCallDone:
			if toolCall == nil {
				toolCall = event.ToolCall
			}
		case provider.EventError:
			failed = true
		}
	}

	if toolCall != nil {
		return Result{ToolCall: toolCall}
	}
	if failed || text.Len() == 0 {
		return Result{Text: fallbackText}
	}
	return Result{Text: text.String()}
}

// Stream opens an incremental invocation and returns a lazy, finite sequence
// of events. Text deltas are forwarded in arrival order. Tool-call fragments
// are assembled by the backend adapter and surface here as a single terminal
// ToolCall event: a tool call is atomic and is never partially streamed.
// A backend failure surfaces as one terminal Err event. The channel always
// closes; cancelling ctx stops delivery and releases the backend stream.
func (inv *Invoker) Stream(ctx context.Context, prompt Prompt, opts Options) <-chan StreamEvent {
	out := make(chan StreamEvent)

	go func() {
		defer close(out)

		events, err := inv.backend.Chat(ctx, inv.request(prompt, opts))
		if err != nil {
			out <- StreamEvent{Err: err}
			return
		}

		var toolCall *provider.ToolCallRequest

		for event := range events {
			if ctx.Err() != nil {
				return
			}
			switch event.Type {
			case provider.EventTextDelta:
				// Once a tool call is pending the response is the tool
				// call; stray text around it is not forwarded.
				if toolCall != nil {
					continue
				}
				select {
				case out <- StreamEvent{Text: event.TextDelta}:
				case <-ctx.Done():
					return
				}
			case provider.EventToolCallDone:
				if toolCall == nil {
					toolCall = event.ToolCall
				}
			case provider.EventError:
				select {
				case out <- StreamEvent{Err: event.Error}:
				case <-ctx.Done():
				}
				return
			}
		}

		if toolCall != nil {
			select {
			case out <- StreamEvent{ToolCall: toolCall}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

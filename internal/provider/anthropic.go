package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicProvider implements Provider using the Anthropic native API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) Name() string         { return "anthropic" }
func (p *AnthropicProvider) DefaultModel() string { return p.model }

func (p *AnthropicProvider) ContextWindow() int {
	// All current Claude models share a 200k window.
	return 200000
}

func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	msgs := p.buildMessages(req.Messages)
	tools := p.buildTools(req.Tools)

	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	ch := make(chan Event, 16)
	go p.processStream(ctx, stream, ch)
	return ch, nil
}

// processStream reads the Anthropic SSE stream and emits unified events.
//
// Anthropic streaming event sequence:
//   - ContentBlockStartEvent (tool_use) -> record tool call id/name
//   - ContentBlockDeltaEvent (InputJSONDelta) -> accumulate JSON arguments
//   - ContentBlockStopEvent -> tool call arguments complete, emit EventToolCallDone
//   - ContentBlockDeltaEvent (TextDelta) -> emit EventTextDelta
//   - MessageDeltaEvent -> emit EventDone with usage
func (p *AnthropicProvider) processStream(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], ch chan<- Event) {
	defer close(ch)
	defer stream.Close()

	type pendingCall struct {
		id      string
		name    string
		jsonBuf strings.Builder
	}
	// Track pending tool calls by content block index.
	pending := make(map[int64]*pendingCall)

	emit := func(ev Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for stream.Next() {
		select {
		case <-ctx.Done():
			emit(Event{Type: EventError, Error: ctx.Err()})
			return
		default:
		}

		event := stream.Current()

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			cb := variant.ContentBlock
			if cb.Type == "tool_use" {
				toolUse := cb.AsToolUse()
				pending[variant.Index] = &pendingCall{
					id:   toolUse.ID,
					name: toolUse.Name,
				}
			}

		case anthropic.ContentBlockDeltaEvent:
			delta := variant.Delta
			switch d := delta.AsAny().(type) {
			case anthropic.TextDelta:
				if !emit(Event{Type: EventTextDelta, TextDelta: d.Text}) {
					return
				}
			case anthropic.InputJSONDelta:
				if pc, ok := pending[variant.Index]; ok {
					pc.jsonBuf.WriteString(d.PartialJSON)
				}
			}

		case anthropic.ContentBlockStopEvent:
			if pc, ok := pending[variant.Index]; ok {
				inputJSON := pc.jsonBuf.String()
				if inputJSON == "" {
					inputJSON = "{}"
				}
				if !emit(Event{
					Type: EventToolCallDone,
					ToolCall: &ToolCallRequest{
						ID:    pc.id,
						Name:  pc.name,
						Input: json.RawMessage(inputJSON),
					},
				}) {
					return
				}
				delete(pending, variant.Index)
			}

		case anthropic.MessageDeltaEvent:
			emit(Event{
				Type: EventDone,
				Usage: &Usage{
					InputTokens:  int(variant.Usage.InputTokens),
					OutputTokens: int(variant.Usage.OutputTokens),
				},
			})
			return
		}
	}

	if err := stream.Err(); err != nil {
		emit(Event{Type: EventError, Error: fmt.Errorf("anthropic streaming error: %w", err)})
		return
	}

	emit(Event{Type: EventDone, Usage: &Usage{}})
}

// buildMessages converts unified Message types to Anthropic API params.
func (p *AnthropicProvider) buildMessages(msgs []Message) []anthropic.MessageParam {
	var params []anthropic.MessageParam
	for _, msg := range msgs {
		block := anthropic.NewTextBlock(msg.Text)
		switch msg.Role {
		case RoleUser:
			params = append(params, anthropic.NewUserMessage(block))
		case RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(block))
		}
	}
	return params
}

// buildTools converts unified ToolSchema to Anthropic tool params.
func (p *AnthropicProvider) buildTools(tools []ToolSchema) []anthropic.ToolUnionParam {
	var result []anthropic.ToolUnionParam
	for _, t := range tools {
		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Parameters,
				},
			},
		})
	}
	return result
}

package provider

import (
	"encoding/json"
	"testing"
)

// --- ContextWindow tests ---

func TestOpenAIProvider_ContextWindow(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{"gpt-4o-mini", 128000},
		{"gpt-4o", 128000},
		{"gemini-2.0-flash", 1000000},
		{"o1-preview", 200000},
		{"o3-mini", 200000},
		{"deepseek-chat", 64000},
		{"some-unknown-model", 128000},
	}
	for _, tt := range tests {
		p := &OpenAIProvider{model: tt.model}
		if got := p.ContextWindow(); got != tt.expected {
			t.Errorf("OpenAI ContextWindow(%q) = %d, want %d", tt.model, got, tt.expected)
		}
	}
}

func TestAnthropicProvider_ContextWindow(t *testing.T) {
	p := &AnthropicProvider{model: "claude-sonnet-4-20250514"}
	if got := p.ContextWindow(); got != 200000 {
		t.Errorf("Anthropic ContextWindow() = %d, want 200000", got)
	}
}

// --- Provider metadata tests ---

func TestOpenAIProvider_Metadata(t *testing.T) {
	p := &OpenAIProvider{model: "gpt-4o", name: "openai"}
	if p.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", p.Name())
	}
	if p.DefaultModel() != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %q", p.DefaultModel())
	}
}

func TestAnthropicProvider_Metadata(t *testing.T) {
	p := &AnthropicProvider{model: "claude-sonnet-4-20250514"}
	if p.Name() != "anthropic" {
		t.Errorf("expected name 'anthropic', got %q", p.Name())
	}
	if p.DefaultModel() != "claude-sonnet-4-20250514" {
		t.Errorf("expected model 'claude-sonnet-4-20250514', got %q", p.DefaultModel())
	}
}

// --- OpenAI provider name detection ---

func TestOpenAIProvider_NameDetection(t *testing.T) {
	tests := []struct {
		baseURL  string
		expected string
	}{
		{"", "openai"},
		{"https://generativelanguage.googleapis.com/v1beta/openai/", "gemini"},
		{"https://api.deepseek.com/v1", "deepseek"},
		{"https://api.groq.com/openai/v1", "groq"},
		{"https://custom.api.com/v1", "openai"},
	}
	for _, tt := range tests {
		p := NewOpenAIProvider("test-key", tt.baseURL, "test-model")
		if p.Name() != tt.expected {
			t.Errorf("baseURL=%q: expected name %q, got %q", tt.baseURL, tt.expected, p.Name())
		}
	}
}

// --- Message / event types ---

func TestMessage_Roles(t *testing.T) {
	if RoleUser != "user" {
		t.Errorf("expected 'user', got %q", RoleUser)
	}
	if RoleAssistant != "assistant" {
		t.Errorf("expected 'assistant', got %q", RoleAssistant)
	}
}

func TestToolCallRequest_Input(t *testing.T) {
	tc := ToolCallRequest{
		ID:    "call_123",
		Name:  "ui.buttons",
		Input: json.RawMessage(`{"prompt":"Pick one"}`),
	}
	var parsed map[string]string
	if err := json.Unmarshal(tc.Input, &parsed); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if parsed["prompt"] != "Pick one" {
		t.Errorf("expected prompt 'Pick one', got %q", parsed["prompt"])
	}
}

func TestEventTypes(t *testing.T) {
	if EventTextDelta != 0 {
		t.Error("EventTextDelta should be 0")
	}
	if EventToolCallDone != 1 {
		t.Error("EventToolCallDone should be 1")
	}
	if EventDone != 2 {
		t.Error("EventDone should be 2")
	}
	if EventError != 3 {
		t.Error("EventError should be 3")
	}
}

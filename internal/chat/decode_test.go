package chat

import (
	"encoding/json"
	"testing"

	"github.com/DavidBatoDev/wally-chat-bot/internal/provider"
)

func toolResult(name, input string) Result {
	return Result{ToolCall: &provider.ToolCallRequest{
		ID:    "call_1",
		Name:  name,
		Input: json.RawMessage(input),
	}}
}

func TestDecode_PlainText(t *testing.T) {
	actions := Decode(Result{Text: "Hello there."})
	if len(actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(actions))
	}
	if actions[0].Kind != ActionText || actions[0].Text != "Hello there." {
		t.Errorf("action = %+v", actions[0])
	}
}

func TestDecode_Buttons(t *testing.T) {
	actions := Decode(toolResult(ToolButtons,
		`{"prompt":"Pick one","buttons":["French","Spanish"]}`))
	if len(actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(actions))
	}
	a := actions[0]
	if a.Kind != ActionButtons {
		t.Errorf("Kind = %q", a.Kind)
	}
	if a.Prompt != "Pick one" {
		t.Errorf("Prompt = %q", a.Prompt)
	}
	if len(a.Buttons) != 2 || a.Buttons[0] != "French" || a.Buttons[1] != "Spanish" {
		t.Errorf("Buttons = %v", a.Buttons)
	}
}

func TestDecode_Inputs(t *testing.T) {
	actions := Decode(toolResult(ToolInputs,
		`{"prompt":"Tell me more","fields":[{"name":"target_language","label":"Target language","type":"text"}]}`))
	if len(actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(actions))
	}
	a := actions[0]
	if a.Kind != ActionInputs {
		t.Errorf("Kind = %q", a.Kind)
	}
	if len(a.Fields) != 1 {
		t.Fatalf("Fields = %v", a.Fields)
	}
	f := a.Fields[0]
	if f.Name != "target_language" || f.Label != "Target language" || f.Type != "text" {
		t.Errorf("field = %+v", f)
	}
}

func TestDecode_TranslateJob(t *testing.T) {
	actions := Decode(toolResult(ToolTranslate,
		`{"project_id":"p-42","page_id":"pg-1","target_language":"fr"}`))
	if len(actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(actions))
	}
	a := actions[0]
	if a.Kind != ActionJob {
		t.Errorf("Kind = %q", a.Kind)
	}
	if a.Job == nil {
		t.Fatal("Job is nil")
	}
	if a.Job.ProjectID != "p-42" || a.Job.PageID != "pg-1" || a.Job.TargetLanguage != "fr" {
		t.Errorf("job = %+v", a.Job)
	}
}

func TestDecode_UnknownToolAcks(t *testing.T) {
	actions := Decode(toolResult("ui.carousel", `{"items":[]}`))
	if len(actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(actions))
	}
	if actions[0].Kind != ActionAck {
		t.Errorf("Kind = %q, want %q", actions[0].Kind, ActionAck)
	}
	if actions[0].Text == "" {
		t.Error("ack must carry explanatory text")
	}
}

func TestDecode_MalformedArgsApologize(t *testing.T) {
	for _, tool := range []string{ToolButtons, ToolInputs, ToolTranslate} {
		actions := Decode(toolResult(tool, `{"prompt": truncated`))
		if len(actions) != 1 {
			t.Fatalf("%s: got %d actions, want 1", tool, len(actions))
		}
		if actions[0].Kind != ActionText {
			t.Errorf("%s: Kind = %q, want text apology", tool, actions[0].Kind)
		}
		if actions[0].Text != decodeApology {
			t.Errorf("%s: Text = %q", tool, actions[0].Text)
		}
	}
}

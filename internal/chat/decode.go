package chat

import "encoding/json"

// UIAction kinds.
const (
	ActionText    = "text"    // display assistant text
	ActionButtons = "buttons" // present choice buttons
	ActionInputs  = "inputs"  // request structured inputs
	ActionJob     = "job"     // trigger a backend document operation
	ActionAck     = "ack"     // tool acknowledged but not supported by this client
)

// UIAction is one instruction for the UI, tagged by Kind. Only the fields
// relevant to the kind are populated.
type UIAction struct {
	Kind    string          `json:"kind"`
	Text    string          `json:"text,omitempty"`
	Prompt  string          `json:"prompt,omitempty"`
	Buttons []string        `json:"buttons,omitempty"`
	Fields  []InputField    `json:"fields,omitempty"`
	Job     *TranslationJob `json:"job,omitempty"`
}

// InputField is one requested value in an ActionInputs action.
type InputField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
}

// TranslationJob is the backend operation requested by an ActionJob action.
type TranslationJob struct {
	ProjectID      string `json:"project_id"`
	PageID         string `json:"page_id,omitempty"`
	TargetLanguage string `json:"target_language"`
}

// decodeApology replaces a tool call whose arguments cannot be decoded.
// Failures here are always conversational, never technical.
const decodeApology = "I'm sorry, I had trouble processing your request. Could you try asking again?"

// ackText covers tool names this client does not recognize, so newer models
// can add tools without breaking older clients.
const ackText = "I've noted your request, but this version of the app can't display it yet."

// toolDecoders is the fixed registry of recognized tools. Each decoder maps
// the tool's argument payload to exactly one UI action.
var toolDecoders = map[string]func(json.RawMessage) (UIAction, error){
	ToolButtons:   decodeButtons,
	ToolInputs:    decodeInputs,
	ToolTranslate: decodeTranslate,
}

// Decode maps an invocation result to the UI actions the client must act on.
// Plain text yields one display action; a recognized tool call yields its
// mapped action; unknown tools and malformed arguments degrade to harmless
// actions. Decode never fails.
func Decode(res Result) []UIAction {
	if res.ToolCall == nil {
		return []UIAction{{Kind: ActionText, Text: res.Text}}
	}

	decode, ok := toolDecoders[res.ToolCall.Name]
	if !ok {
		return []UIAction{{Kind: ActionAck, Text: ackText}}
	}

	action, err := decode(res.ToolCall.Input)
	if err != nil {
		return []UIAction{{Kind: ActionText, Text: decodeApology}}
	}
	return []UIAction{action}
}

func decodeButtons(input json.RawMessage) (UIAction, error) {
	var args struct {
		Prompt  string   `json:"prompt"`
		Buttons []string `json:"buttons"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return UIAction{}, err
	}
	return UIAction{Kind: ActionButtons, Prompt: args.Prompt, Buttons: args.Buttons}, nil
}

func decodeInputs(input json.RawMessage) (UIAction, error) {
	var args struct {
		Prompt string       `json:"prompt"`
		Fields []InputField `json:"fields"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return UIAction{}, err
	}
	return UIAction{Kind: ActionInputs, Prompt: args.Prompt, Fields: args.Fields}, nil
}

func decodeTranslate(input json.RawMessage) (UIAction, error) {
	var args TranslationJob
	if err := json.Unmarshal(input, &args); err != nil {
		return UIAction{}, err
	}
	return UIAction{Kind: ActionJob, Job: &args}, nil
}

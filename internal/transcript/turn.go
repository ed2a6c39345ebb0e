// Package transcript defines the stored conversation model and its
// persistence. A transcript is an append-only sequence of turns per
// conversation; the chat pipeline reads turns and never mutates them.
package transcript

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind discriminates the payload shape of a turn. Only text turns carry
// their content inline; the other kinds describe structured payloads.
type Kind string

const (
	// KindText is a plain chat message; Content holds the text.
	KindText Kind = "text"

	// KindFile is a file the user uploaded; Payload holds a FilePayload.
	KindFile Kind = "file"

	// KindFileReference points at an existing stored file; Payload holds a FilePayload.
	KindFileReference Kind = "file_reference"

	// KindAction is an option the user picked from offered buttons/inputs;
	// Payload holds an ActionPayload.
	KindAction Kind = "action"

	// KindUIPrompt is a button/input prompt the assistant offered to the
	// user. UI-only; it never re-enters the model prompt.
	KindUIPrompt Kind = "ui_prompt"
)

// Turn is one message unit in a conversation transcript.
type Turn struct {
	ID      string          `json:"id"`
	Role    Role            `json:"role"`
	Kind    Kind            `json:"kind"`
	Content string          `json:"content,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

// FilePayload is the payload shape for KindFile and KindFileReference.
type FilePayload struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// ActionPayload is the payload shape for KindAction.
type ActionPayload struct {
	Name   string            `json:"name"`
	Values map[string]string `json:"values,omitempty"`
}

// FilePayload decodes the turn's payload as a FilePayload.
func (t Turn) FilePayload() (FilePayload, error) {
	var p FilePayload
	err := json.Unmarshal(t.Payload, &p)
	return p, err
}

// ActionPayload decodes the turn's payload as an ActionPayload.
func (t Turn) ActionPayload() (ActionPayload, error) {
	var p ActionPayload
	err := json.Unmarshal(t.Payload, &p)
	return p, err
}

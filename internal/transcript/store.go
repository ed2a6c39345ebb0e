package transcript

import (
	"context"
	"time"
)

// Store abstracts transcript persistence (SQLite, in-memory, etc.).
type Store interface {
	// Turns returns all turns of a conversation in chronological order.
	// An unknown conversation yields an empty slice, not an error.
	Turns(ctx context.Context, conversationID string) ([]Turn, error)

	// Append stores a turn at the end of a conversation and returns the
	// stored turn with its generated ID and timestamp filled in.
	Append(ctx context.Context, conversationID string, turn Turn) (Turn, error)

	// Conversations lists known conversations, most recently active first.
	Conversations(ctx context.Context) ([]ConversationInfo, error)

	Close() error
}

// ConversationInfo is a lightweight summary of a conversation (for listing).
type ConversationInfo struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     int       `json:"turns"`
}

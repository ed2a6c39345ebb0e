package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS turns (
    id              TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    seq             INTEGER NOT NULL,
    role            TEXT NOT NULL,
    kind            TEXT NOT NULL,
    content         TEXT NOT NULL DEFAULT '',
    payload         TEXT,
    sent_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, seq);
`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path (~/.local/share/wally/transcripts.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "wally", "transcripts.db"), nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Turns(ctx context.Context, conversationID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, kind, content, payload, sent_at
		 FROM turns WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var payload sql.NullString
		var sentAt string
		if err := rows.Scan(&t.ID, &t.Role, &t.Kind, &t.Content, &payload, &sentAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if payload.Valid && payload.String != "" {
			t.Payload = json.RawMessage(payload.String)
		}
		if ts, err := time.Parse(time.RFC3339Nano, sentAt); err == nil {
			t.SentAt = ts
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, conversationID string, turn Turn) (Turn, error) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.SentAt.IsZero() {
		turn.SentAt = time.Now().UTC()
	}

	var payload any
	if len(turn.Payload) > 0 {
		payload = string(turn.Payload)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, conversation_id, seq, role, kind, content, payload, sent_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE conversation_id = ?), ?, ?, ?, ?, ?)`,
		turn.ID, conversationID, conversationID,
		turn.Role, turn.Kind, turn.Content, payload, turn.SentAt.Format(time.RFC3339Nano))
	if err != nil {
		return Turn{}, fmt.Errorf("insert turn: %w", err)
	}
	return turn, nil
}

func (s *SQLiteStore) Conversations(ctx context.Context) ([]ConversationInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, MAX(sent_at), COUNT(*)
		 FROM turns GROUP BY conversation_id ORDER BY MAX(sent_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var infos []ConversationInfo
	for rows.Next() {
		var info ConversationInfo
		var updatedAt string
		var count int
		if err := rows.Scan(&info.ID, &updatedAt, &count); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			info.UpdatedAt = ts
		}
		info.Turns = count
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/DavidBatoDev/wally-chat-bot/internal/chat"
	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

// ChatRequest is the body of POST /api/v1/chat and /api/v1/chat/stream.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`

	IncludeTimestamps *bool    `json:"include_timestamps,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
}

// ChatResponse is the body of a successful POST /api/v1/chat.
type ChatResponse struct {
	ConversationID string          `json:"conversation_id"`
	Messages       []chat.UIAction `json:"messages"`
}

// TurnsResponse is the body of GET /api/v1/conversations/{id}/turns.
type TurnsResponse struct {
	ConversationID string            `json:"conversation_id"`
	Turns          []transcript.Turn `json:"turns"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) options(req ChatRequest) chat.Options {
	opts := chat.Options{
		IncludeTimestamps: s.cfg.IncludeTimestamps,
		Temperature:       req.Temperature,
	}
	if req.IncludeTimestamps != nil {
		opts.IncludeTimestamps = *req.IncludeTimestamps
	}
	return opts
}

// accept validates the request, persists the user's message, and returns
// the full conversation transcript ready for the pipeline.
func (s *Server) accept(w http.ResponseWriter, r *http.Request) (ChatRequest, []transcript.Turn, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return req, nil, false
	}
	if strings.TrimSpace(req.Message) == "" {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "message is required")
		return req, nil, false
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	ctx := r.Context()
	_, err := s.store.Append(ctx, req.ConversationID, transcript.Turn{
		Role:    transcript.RoleUser,
		Kind:    transcript.KindText,
		Content: req.Message,
	})
	if err != nil {
		s.log.Error().Err(err).Str("conversation", req.ConversationID).Msg("append user turn")
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to store message")
		return req, nil, false
	}

	turns, err := s.store.Turns(ctx, req.ConversationID)
	if err != nil {
		s.log.Error().Err(err).Str("conversation", req.ConversationID).Msg("load transcript")
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to load conversation")
		return req, nil, false
	}
	return req, turns, true
}

// persistActions appends the assistant's reply to the transcript. Display
// text is stored as a text turn; interactive prompts are stored as ui_prompt
// turns so a later request renders history without replaying them.
func (s *Server) persistActions(r *http.Request, conversationID string, actions []chat.UIAction) {
	for _, a := range actions {
		turn := transcript.Turn{Role: transcript.RoleAssistant}
		switch a.Kind {
		case chat.ActionText, chat.ActionAck:
			turn.Kind = transcript.KindText
			turn.Content = a.Text
		default:
			payload, err := json.Marshal(a)
			if err != nil {
				continue
			}
			turn.Kind = transcript.KindUIPrompt
			turn.Content = a.Prompt
			turn.Payload = payload
		}
		if _, err := s.store.Append(r.Context(), conversationID, turn); err != nil {
			s.log.Error().Err(err).Str("conversation", conversationID).Msg("append assistant turn")
			return
		}
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, turns, ok := s.accept(w, r)
	if !ok {
		return
	}

	actions, err := s.chat.Respond(r.Context(), turns, s.options(req))
	if err != nil {
		if errors.Is(err, chat.ErrEmptyTranscript) {
			SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "conversation has no content")
			return
		}
		s.log.Error().Err(err).Str("conversation", req.ConversationID).Msg("chat pipeline")
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to generate a reply")
		return
	}

	s.persistActions(r, req.ConversationID, actions)
	SendJSON(w, http.StatusOK, ChatResponse{
		ConversationID: req.ConversationID,
		Messages:       actions,
	})
}

// sseFrame writes one SSE data frame and flushes it.
func sseFrame(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, turns, ok := s.accept(w, r)
	if !ok {
		return
	}

	events, err := s.chat.Stream(r.Context(), turns, s.options(req))
	if err != nil {
		if errors.Is(err, chat.ErrEmptyTranscript) {
			SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "conversation has no content")
			return
		}
		s.log.Error().Err(err).Str("conversation", req.ConversationID).Msg("open stream")
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to start streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok2 := w.(http.Flusher)
	if !ok2 {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "streaming not supported")
		return
	}
	flusher.Flush()

	var text strings.Builder
	var actions []chat.UIAction

	for ev := range events {
		switch {
		case ev.Err != nil:
			s.log.Error().Err(ev.Err).Str("conversation", req.ConversationID).Msg("stream failed")
			sseFrame(w, flusher, map[string]string{"error": "failed to generate a reply"})
			return
		case ev.ToolCall != nil:
			actions = chat.Decode(chat.Result{ToolCall: ev.ToolCall})
			sseFrame(w, flusher, map[string]any{"actions": actions})
		default:
			text.WriteString(ev.Text)
			sseFrame(w, flusher, map[string]string{"text": ev.Text})
		}
	}

	// Client disconnect cancels r.Context(); nothing to persist then.
	if r.Context().Err() != nil {
		return
	}

	if actions == nil && text.Len() > 0 {
		actions = []chat.UIAction{{Kind: chat.ActionText, Text: text.String()}}
	}
	s.persistActions(r, req.ConversationID, actions)

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// ConversationsResponse is the body of GET /api/v1/conversations.
type ConversationsResponse struct {
	Conversations []transcript.ConversationInfo `json:"conversations"`
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.Conversations(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list conversations")
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to list conversations")
		return
	}
	if infos == nil {
		infos = []transcript.ConversationInfo{}
	}
	SendJSON(w, http.StatusOK, ConversationsResponse{Conversations: infos})
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	turns, err := s.store.Turns(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("conversation", id).Msg("load transcript")
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to load conversation")
		return
	}
	if len(turns) == 0 {
		SendError(w, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	SendJSON(w, http.StatusOK, TurnsResponse{ConversationID: id, Turns: turns})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	SendJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.cfg.Version})
}

// Package server exposes the chat pipeline over HTTP: JSON endpoints for
// one-shot requests and transcript readback, plus an SSE endpoint for
// streamed replies.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/DavidBatoDev/wally-chat-bot/internal/chat"
	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

// Responder runs the chat pipeline. Implemented by *chat.Service;
// handler tests substitute a stub.
type Responder interface {
	Respond(ctx context.Context, turns []transcript.Turn, opts chat.Options) ([]chat.UIAction, error)
	Stream(ctx context.Context, turns []transcript.Turn, opts chat.Options) (<-chan chat.StreamEvent, error)
}

// Config holds server settings.
type Config struct {
	Addr    string
	Version string

	// IncludeTimestamps annotates prompt entries with send times by default.
	// Individual requests may override it.
	IncludeTimestamps bool
}

// Server is the HTTP transport around the pipeline and transcript store.
type Server struct {
	cfg    Config
	chat   Responder
	store  transcript.Store
	log    zerolog.Logger
	router *mux.Router
	http   *http.Server
}

// New wires the router. The store and responder are injected so handlers
// stay testable without a live backend.
func New(cfg Config, responder Responder, store transcript.Store, log zerolog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		chat:  responder,
		store: store,
		log:   log,
	}

	r := mux.NewRouter()
	r.Use(s.logging)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/chat/stream", s.handleChatStream).Methods(http.MethodPost)
	api.HandleFunc("/conversations", s.handleConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/turns", s.handleTurns).Methods(http.MethodGet)

	s.router = r
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
// It forwards Flush so SSE streaming works through the middleware.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// Health checks are noise.
		if r.URL.Path == "/healthz" {
			return
		}

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	})
}

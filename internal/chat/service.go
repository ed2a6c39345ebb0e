package chat

import (
	"context"
	"errors"

	"github.com/DavidBatoDev/wally-chat-bot/internal/provider"
	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

// ErrEmptyTranscript is returned when the input has no turns, or when every
// turn normalizes to empty text. The caller rejects such requests before the
// backend is ever invoked.
var ErrEmptyTranscript = errors.New("chat: transcript has no renderable turns")

// Config holds the pipeline's tuning knobs. The token-estimate constant and
// scoring weights are empirical; treat them as parameters, not guarantees.
type Config struct {
	TokensPerChar   float64
	Weights         SelectorWeights
	ResponseReserve int

	// ContextTokens overrides the backend's context window. 0 = use the
	// backend's default.
	ContextTokens int

	// Persona overrides the embedded system instruction. Empty = default.
	Persona string

	MaxOutputTokens int
}

func DefaultConfig() Config {
	return Config{
		TokensPerChar:   DefaultTokensPerChar,
		Weights:         DefaultSelectorWeights(),
		ResponseReserve: 1024,
		MaxOutputTokens: 2048,
	}
}

// Service runs the full pipeline for one request:
// normalize → select → assemble → invoke → decode.
type Service struct {
	normalizer    *Normalizer
	selector      *Selector
	invoker       *Invoker
	backend       provider.Provider
	persona       string
	contextTokens int
}

// NewService wires the pipeline around an injected backend client.
func NewService(backend provider.Provider, cfg Config) *Service {
	persona := cfg.Persona
	if persona == "" {
		persona = DefaultPersona()
	}
	reserve := cfg.ResponseReserve
	if reserve <= 0 {
		reserve = DefaultConfig().ResponseReserve
	}
	return &Service{
		normalizer:    NewNormalizer(cfg.TokensPerChar),
		selector:      NewSelector(cfg.Weights, reserve),
		invoker:       NewInvoker(backend, cfg.MaxOutputTokens),
		backend:       backend,
		persona:       persona,
		contextTokens: cfg.ContextTokens,
	}
}

// budget returns the total token budget for one request.
func (s *Service) budget() int {
	if s.contextTokens > 0 {
		return s.contextTokens
	}
	return s.backend.ContextWindow()
}

// prepare runs the synchronous half of the pipeline and returns the
// assembled prompt, or ErrEmptyTranscript when there is nothing to send.
func (s *Service) prepare(turns []transcript.Turn, opts Options) (Prompt, error) {
	normalized := s.normalizer.Normalize(turns)
	if len(normalized) == 0 {
		return Prompt{}, ErrEmptyTranscript
	}
	systemTokens := s.normalizer.EstimateTokens(s.persona)
	plan := s.selector.Select(normalized, s.budget(), systemTokens)
	return Assemble(s.persona, plan, opts.IncludeTimestamps), nil
}

// Respond handles a one-shot request: it returns the UI actions the client
// must act on. The only error it returns is ErrEmptyTranscript; every
// downstream failure degrades to a harmless action instead.
func (s *Service) Respond(ctx context.Context, turns []transcript.Turn, opts Options) ([]UIAction, error) {
	prompt, err := s.prepare(turns, opts)
	if err != nil {
		return nil, err
	}
	return Decode(s.invoker.Invoke(ctx, prompt, opts)), nil
}

// Stream handles a streaming request. Validation errors are returned
// immediately; after that the returned channel delivers text chunks in
// order, then at most one terminal tool call or error, then closes.
func (s *Service) Stream(ctx context.Context, turns []transcript.Turn, opts Options) (<-chan StreamEvent, error) {
	prompt, err := s.prepare(turns, opts)
	if err != nil {
		return nil, err
	}
	return s.invoker.Stream(ctx, prompt, opts), nil
}

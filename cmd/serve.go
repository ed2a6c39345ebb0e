package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DavidBatoDev/wally-chat-bot/internal/chat"
	"github.com/DavidBatoDev/wally-chat-bot/internal/config"
	"github.com/DavidBatoDev/wally-chat-bot/internal/provider"
	"github.com/DavidBatoDev/wally-chat-bot/internal/server"
	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

func newServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(version)
		},
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if addrFlag != "" {
		host, port, err := net.SplitHostPort(addrFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --addr %q: %w", addrFlag, err)
		}
		cfg.Server.Host = host
		cfg.Server.Port, err = strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid --addr port %q: %w", port, err)
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if cfg.Log.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// knownBaseURLs maps OpenAI-compatible provider names to their endpoints.
var knownBaseURLs = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"gemini":   "https://generativelanguage.googleapis.com/v1beta/openai/",
	"deepseek": "https://api.deepseek.com/v1",
	"groq":     "https://api.groq.com/openai/v1",
}

// buildProvider creates the backend client based on configuration.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	name := cfg.Provider
	pc := cfg.GetProviderConfig(name)

	apiKey := pc.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf(
			"API key not configured for provider %q.\n"+
				"Set it via:\n"+
				"  - config file: providers.%s.api_key\n"+
				"  - environment: LLM_API_KEY",
			name, name,
		)
	}

	model := cfg.Model
	if model == "" {
		model = pc.Model
	}

	switch name {
	case "anthropic":
		return provider.NewAnthropicProvider(apiKey, model), nil
	default:
		// All other providers use an OpenAI-compatible API.
		baseURL := pc.BaseURL
		if baseURL == "" {
			if u, ok := knownBaseURLs[name]; ok {
				baseURL = u
			} else {
				return nil, fmt.Errorf("unknown provider %q; set providers.%s.base_url in config", name, name)
			}
		}
		return provider.NewOpenAIProvider(apiKey, baseURL, model), nil
	}
}

func runServe(version string) error {
	cfg, err := initConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	backend, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = transcript.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
	}
	store, err := transcript.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open transcript store: %w", err)
	}
	defer store.Close()

	service := chat.NewService(backend, chat.Config{
		TokensPerChar: cfg.Pipeline.TokensPerChar,
		Weights: chat.SelectorWeights{
			Recency: cfg.Pipeline.RecencyWeight,
			Size:    cfg.Pipeline.SizeWeight,
			Role:    cfg.Pipeline.RoleWeight,
		},
		ResponseReserve: cfg.Pipeline.ResponseReserve,
		ContextTokens:   cfg.ContextWindow,
		Persona:         cfg.Persona,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})

	srv := server.New(server.Config{
		Addr:              cfg.Addr(),
		Version:           version,
		IncludeTimestamps: cfg.Pipeline.IncludeTimestamps,
	}, service, store, log)

	log.Info().
		Str("provider", backend.Name()).
		Str("model", backend.DefaultModel()).
		Str("db", dbPath).
		Msg("starting wally")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// Chatd is the portfolio chatbot backend.
//
// This binary starts the HTTP server with full service initialization,
// including the conversation store, the upstream completion client, and the
// optional tracing integration.
//
// Configuration is loaded from ~/.config/chatd/config.yaml and overridden by
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	OPENAI_API_KEY=sk-... chatd
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9000 CHAT_MAX_HISTORY=20 chatd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/config"
	chatdhttp "github.com/fyrsmithlabs/chatd/internal/http"
	"github.com/fyrsmithlabs/chatd/internal/knowledge"
	"github.com/fyrsmithlabs/chatd/internal/llm"
	"github.com/fyrsmithlabs/chatd/internal/logging"
	"github.com/fyrsmithlabs/chatd/internal/store"
	"github.com/fyrsmithlabs/chatd/internal/telemetry"
	"github.com/fyrsmithlabs/chatd/internal/tracing"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/chatd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  chatd           Start the chatbot backend\n")
			fmt.Fprintf(os.Stderr, "  chatd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("chatd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the chatd server and blocks until the context is cancelled.
//
// Initialization order: configuration, logger, telemetry, conversation
// store, completion client, tracing client, chat service, HTTP server.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger) // Best-effort sync on shutdown
	}()

	logger.Info("starting chatd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.OpenAI.DefaultModel))

	tel := telemetry.New(ctx, cfg.Observability, logger)
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info("dependencies initialized",
		zap.String("database", cfg.Database.Path),
		zap.Bool("tracing_enabled", deps.tracer.Enabled()))

	srv, err := chatdhttp.NewServer(deps.chatSvc, logger, chatdhttp.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		MaxHistory:     cfg.Chat.MaxHistory,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}

// dependencies holds the service graph behind the HTTP server.
type dependencies struct {
	store   *store.Store
	tracer  *tracing.Client
	chatSvc *chat.Service
	logger  *zap.Logger
}

// Close releases resources in reverse initialization order. The chat service
// closes first so its persistence queue drains into a live store.
func (d *dependencies) Close() {
	if d.chatSvc != nil {
		d.chatSvc.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("closing store failed", zap.Error(err))
		}
	}
}

func initDependencies(cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening conversation store: %w", err)
	}

	client, err := llm.NewOpenAI(llm.Config{
		APIKey:        cfg.OpenAI.APIKey.Value(),
		BaseURL:       cfg.OpenAI.BaseURL,
		Model:         cfg.OpenAI.DefaultModel,
		MaxTokens:     cfg.OpenAI.MaxTokens,
		ModelCacheTTL: cfg.OpenAI.ModelCacheTTL.Duration(),
	}, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	tracer := tracing.New(tracing.Config{
		Enabled:  cfg.Tracing.Enabled,
		Endpoint: cfg.Tracing.Endpoint,
		APIKey:   cfg.Tracing.APIKey.Value(),
		Project:  cfg.Tracing.Project,
	}, logger)

	chatSvc := chat.New(chat.Config{
		DefaultModel:     cfg.OpenAI.DefaultModel,
		Temperature:      cfg.OpenAI.Temperature,
		MaxHistory:       cfg.Chat.MaxHistory,
		PersistQueueSize: cfg.Chat.PersistQueueSize,
		RequestTimeout:   cfg.OpenAI.RequestTimeout.Duration(),
	}, client, st, tracer, knowledge.Base(), logger)

	return &dependencies{
		store:   st,
		tracer:  tracer,
		chatSvc: chatSvc,
		logger:  logger,
	}, nil
}

// Assistantd is a multi-tenant assistant backend with retrieval-augmented
// chat, document ingestion, and per-tenant customization over HTTP.
//
// Configuration is loaded from an optional YAML file with environment
// variable overrides. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	assistantd
//
//	# Start with a config file
//	assistantd -config /etc/assistantd/config.yaml
//
//	# Configure via environment
//	SERVER_PORT=9090 OLLAMA_BASE_URL=http://localhost:11434 assistantd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/assistantd/internal/chat"
	"github.com/fyrsmithlabs/assistantd/internal/config"
	"github.com/fyrsmithlabs/assistantd/internal/embeddings"
	"github.com/fyrsmithlabs/assistantd/internal/escalation"
	"github.com/fyrsmithlabs/assistantd/internal/files"
	"github.com/fyrsmithlabs/assistantd/internal/httpapi"
	"github.com/fyrsmithlabs/assistantd/internal/ingest"
	"github.com/fyrsmithlabs/assistantd/internal/llm"
	"github.com/fyrsmithlabs/assistantd/internal/logging"
	"github.com/fyrsmithlabs/assistantd/internal/permission"
	"github.com/fyrsmithlabs/assistantd/internal/telemetry"
	"github.com/fyrsmithlabs/assistantd/internal/theme"
	"github.com/fyrsmithlabs/assistantd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
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
			fmt.Fprintf(os.Stderr, "  assistantd           Start the assistantd server\n")
			fmt.Fprintf(os.Stderr, "  assistantd version   Show version information\n")
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

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("assistantd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the assistantd server and blocks until the context is
// cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Creates the embedder and vector store
//  4. Creates the chat model client
//  5. Initializes tenant stores (escalations, themes, permissions, uploads)
//  6. Wires the chat orchestrator and ingestion pipeline
//  7. Starts the HTTP server
//  8. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting assistantd",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("ollama", cfg.Ollama.BaseURL))

	tracing, err := telemetry.NewTracing(ctx, telemetry.TracingConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	embedder, err := embeddings.NewOllamaEmbedder(embeddings.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.EmbeddingModel,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       cfg.VectorStore.Path,
		Compress:   cfg.VectorStore.Compress,
		VectorSize: cfg.VectorStore.VectorSize,
	}, embedder, logger)
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}

	model, err := llm.NewOllamaClient(llm.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.Model,
		Timeout: cfg.Ollama.Timeout.Duration(),
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing model client: %w", err)
	}

	escalations, err := escalation.NewLog(filepath.Join(cfg.Storage.DataDir, "escalations"), logger)
	if err != nil {
		return fmt.Errorf("initializing escalation log: %w", err)
	}
	themes, err := theme.NewStore(filepath.Join(cfg.Storage.DataDir, "themes"), logger)
	if err != nil {
		return fmt.Errorf("initializing theme store: %w", err)
	}
	permissions, err := permission.NewStore(filepath.Join(cfg.Storage.DataDir, "permissions"), logger)
	if err != nil {
		return fmt.Errorf("initializing permission store: %w", err)
	}
	uploads, err := files.NewStore(filepath.Join(cfg.Storage.DataDir, "uploads"), logger)
	if err != nil {
		return fmt.Errorf("initializing file store: %w", err)
	}

	retriever, err := chat.NewRetriever(store, cfg.Retrieval.TopK, logger)
	if err != nil {
		return fmt.Errorf("initializing retriever: %w", err)
	}
	orchestrator, err := chat.NewOrchestrator(retriever, model, escalations, logger)
	if err != nil {
		return fmt.Errorf("initializing chat orchestrator: %w", err)
	}

	pipeline, err := ingest.NewPipeline(store, uploads, ingest.Config{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing ingestion pipeline: %w", err)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	server, err := httpapi.NewServer(httpapi.Services{
		Chat:        orchestrator,
		Ingest:      pipeline,
		Uploads:     uploads,
		Escalations: escalations,
		Themes:      themes,
		Permissions: permissions,
	}, metrics, logger, &httpapi.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		OrgsFile: cfg.Storage.OrgsFile,
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s/health", server.Addr())),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}

// Package embeddings provides embedding generation via langchaingo.
//
// The Ollama provider wraps langchaingo's embedding support so chunks
// and queries are embedded by a local Ollama server. The provider
// satisfies vectorstore.Embedder for use with any Store implementation.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds configuration for the Ollama embedding provider.
type Config struct {
	// BaseURL is the Ollama server URL, e.g. http://localhost:11434.
	BaseURL string

	// Model is the embedding model, e.g. nomic-embed-text.
	Model string
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// OllamaEmbedder generates embeddings via an Ollama server.
type OllamaEmbedder struct {
	embedder *embeddings.EmbedderImpl
	logger   *zap.Logger
}

// NewOllamaEmbedder creates an embedder backed by Ollama.
func NewOllamaEmbedder(cfg Config, logger *zap.Logger) (*OllamaEmbedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &OllamaEmbedder{
		embedder: embedder,
		logger:   logger.Named("embeddings"),
	}, nil
}

// EmbedDocuments generates embeddings for multiple texts in one batch.
func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings",
			zap.Int("count", len(texts)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("embedding %d documents: %w", len(texts), err)
	}

	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to embed query", zap.Error(err))
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return vector, nil
}

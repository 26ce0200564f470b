// Package llm provides a client for an Ollama-compatible model-serving
// endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrGenerateFailed indicates the model endpoint could not produce a
// response (transport failure or non-success status).
var ErrGenerateFailed = errors.New("model generation failed")

// Client is the interface for model generation, allowing test
// substitution of the external endpoint.
type Client interface {
	// Generate sends a prompt to the model and returns its full
	// response text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the Ollama client.
type Config struct {
	// BaseURL is the Ollama server URL, e.g. http://localhost:11434.
	BaseURL string

	// Model is the generation model name, e.g. llama3.
	Model string

	// Timeout bounds a single generate call. Zero means 2 minutes.
	Timeout time.Duration
}

// OllamaClient calls the Ollama generate API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// generateRequest is the request body for the generate endpoint.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the non-streaming response body.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a client for an Ollama server.
func NewOllamaClient(cfg Config, logger *zap.Logger) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	return &OllamaClient{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("llm"),
	}, nil
}

// Generate sends a prompt to the Ollama generate endpoint and returns
// the model's response text. Stream is disabled, so the endpoint
// replies with a single JSON object.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("model request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("model returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", fmt.Errorf("%w: status %d", ErrGenerateFailed, resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrGenerateFailed, err)
	}

	c.logger.Debug("model generation complete",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_len", len(genResp.Response)),
	)

	return genResp.Response, nil
}

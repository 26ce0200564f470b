// Package config provides configuration loading for assistantd.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for assistantd.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Ollama      OllamaConfig      `koanf:"ollama"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Storage     StorageConfig     `koanf:"storage"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// OllamaConfig holds model-serving endpoint settings.
type OllamaConfig struct {
	BaseURL        string   `koanf:"base_url"`
	Model          string   `koanf:"model"`
	EmbeddingModel string   `koanf:"embedding_model"`
	Timeout        Duration `koanf:"timeout"`
}

// VectorStoreConfig holds embedded vector database settings.
type VectorStoreConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	VectorSize int    `koanf:"vector_size"`
}

// StorageConfig holds flat-file persistence settings.
type StorageConfig struct {
	// DataDir is the root for per-tenant data: escalations, themes,
	// permissions, and uploaded files live in subdirectories.
	DataDir string `koanf:"data_dir"`

	// OrgsFile is the static organization list served by /list-orgs.
	OrgsFile string `koanf:"orgs_file"`
}

// RetrievalConfig holds context retrieval settings.
type RetrievalConfig struct {
	TopK int `koanf:"top_k"`
}

// IngestConfig holds document chunking settings.
type IngestConfig struct {
	ChunkSize    int `koanf:"chunk_size"`
	ChunkOverlap int `koanf:"chunk_overlap"`
}

// TelemetryConfig holds OTLP trace export settings. Tracing is
// disabled by default; enable it when an OTLP collector is available.
type TelemetryConfig struct {
	Enabled        bool    `koanf:"enabled"`
	Endpoint       string  `koanf:"endpoint"`
	ServiceName    string  `koanf:"service_name"`
	ServiceVersion string  `koanf:"service_version"`
	Insecure       bool    `koanf:"insecure"`
	SampleRate     float64 `koanf:"sample_rate"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Ollama: OllamaConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "llama3",
			EmbeddingModel: "nomic-embed-text",
			Timeout:        Duration(2 * time.Minute),
		},
		VectorStore: VectorStoreConfig{
			Path:       "~/.local/share/assistantd/vectorstore",
			Compress:   false,
			VectorSize: 768,
		},
		Storage: StorageConfig{
			DataDir:  "~/.local/share/assistantd/data",
			OrgsFile: "~/.local/share/assistantd/orgs.json",
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Endpoint:       "localhost:4317",
			ServiceName:    "assistantd",
			ServiceVersion: "0.1.0",
			Insecure:       true,
			SampleRate:     1.0,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in range 1-65535, got %d", c.Server.Port)
	}
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama.base_url is required")
	}
	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama.model is required")
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("vectorstore.vector_size must be positive, got %d", c.VectorStore.VectorSize)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be non-negative and smaller than chunk_size, got %d", c.Ingest.ChunkOverlap)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry.sample_rate must be in range 0-1, got %g", c.Telemetry.SampleRate)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// configSections are the top-level config keys used to map environment
// variables onto nested fields (SERVER_PORT -> server.port).
var configSections = []string{
	"server",
	"logging",
	"ollama",
	"vectorstore",
	"storage",
	"retrieval",
	"ingest",
	"telemetry",
}

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, OLLAMA_BASE_URL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// If configPath is empty, ~/.config/assistantd/config.yaml is used.
// A missing config file is not an error; defaults and environment
// apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "assistantd", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables are uppercased with underscore separators.
	// The transformer maps the leading section name to a dot:
	//   SERVER_PORT -> server.port
	//   OLLAMA_BASE_URL -> ollama.base_url
	//   INGEST_CHUNK_SIZE -> ingest.chunk_size
	if err := k.Load(env.Provider("", ".", transformEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := expandPaths(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// transformEnvKey maps an environment variable name to a config key.
// Variables that do not start with a known section name are dropped.
func transformEnvKey(s string) string {
	lower := strings.ToLower(s)
	for _, section := range configSections {
		if strings.HasPrefix(lower, section+"_") {
			return section + "." + strings.TrimPrefix(lower, section+"_")
		}
	}
	return ""
}

// expandPaths expands ~ in filesystem paths.
func expandPaths(cfg *Config) error {
	var err error
	if cfg.VectorStore.Path, err = expandHome(cfg.VectorStore.Path); err != nil {
		return err
	}
	if cfg.Storage.DataDir, err = expandHome(cfg.Storage.DataDir); err != nil {
		return err
	}
	if cfg.Storage.OrgsFile, err = expandHome(cfg.Storage.OrgsFile); err != nil {
		return err
	}
	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

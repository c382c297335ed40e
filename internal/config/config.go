// Package config loads assetscan's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Extraction contains configuration for the extraction providers.
type Extraction struct {
	Provider     string `toml:"provider"`
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`
	GLMAPIKey    string `toml:"glm_api_key"`
	GLMModel     string `toml:"glm_model"`
}

// Queue contains the ingestion pacing and retry tunables.
type Queue struct {
	MaxFiles      int `toml:"max_files"`
	PacingMillis  int `toml:"pacing_millis"`
	BackoffMillis int `toml:"backoff_base_millis"`
	MaxRetries    int `toml:"max_retries"`
}

// Config is the root configuration.
type Config struct {
	DBPath     string     `toml:"db_path"`
	ListenAddr string     `toml:"listen_addr"`
	PageSize   int        `toml:"page_size"`
	Extraction Extraction `toml:"extraction"`
	Queue      Queue      `toml:"queue"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DBPath:     filepath.Join(home, ".assetscan", "assetscan.db"),
		ListenAddr: "127.0.0.1:7519",
		PageSize:   10,
		Extraction: Extraction{
			Provider:    "gemini",
			GeminiModel: "gemini-2.5-flash",
			GLMModel:    "glm-4.5-flash",
		},
		Queue: Queue{
			MaxFiles:      50,
			PacingMillis:  2000,
			BackoffMillis: 2500,
			MaxRetries:    3,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".assetscan", "config.toml")
}

// Load reads the config file at path, layering it over the defaults. A
// missing file is not an error: the defaults are returned as-is. API keys
// may also come from the environment (ASSETSCAN_GEMINI_API_KEY,
// ASSETSCAN_GLM_API_KEY), which wins over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if key := os.Getenv("ASSETSCAN_GEMINI_API_KEY"); key != "" {
		cfg.Extraction.GeminiAPIKey = key
	}
	if key := os.Getenv("ASSETSCAN_GLM_API_KEY"); key != "" {
		cfg.Extraction.GLMAPIKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Queue.MaxFiles <= 0 {
		return fmt.Errorf("queue.max_files must be positive, got %d", c.Queue.MaxFiles)
	}
	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("queue.max_retries must not be negative, got %d", c.Queue.MaxRetries)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	switch c.Extraction.Provider {
	case "gemini", "glm":
	default:
		return fmt.Errorf("extraction.provider must be gemini or glm, got %q", c.Extraction.Provider)
	}
	return nil
}

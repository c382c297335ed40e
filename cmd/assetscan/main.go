package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"assetscan/internal/config"
	"assetscan/internal/extract"
	"assetscan/internal/queue"
	"assetscan/internal/session"
	"assetscan/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "assetscan",
	Short: "assetscan - IT asset report extraction",
	Long:  `assetscan ingests HTML asset reports, extracts structured inventory records with an AI provider, and lets you browse, edit, and export them.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to TOML config file")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// providers builds the extraction providers from configuration. Providers
// with no API key are still registered; they fail at call time with a
// clear error from the remote endpoint.
func providers(cfg *config.Config) map[string]extract.Provider {
	return map[string]extract.Provider{
		"gemini": extract.NewGemini(cfg.Extraction.GeminiAPIKey, cfg.Extraction.GeminiModel),
		"glm":    extract.NewGLM(cfg.Extraction.GLMAPIKey, cfg.Extraction.GLMModel),
	}
}

func queueOptions(cfg *config.Config) queue.Options {
	opts := queue.DefaultOptions()
	if cfg.Queue.MaxFiles > 0 {
		opts.MaxFiles = cfg.Queue.MaxFiles
	}
	if cfg.Queue.PacingMillis > 0 {
		opts.Pacing = time.Duration(cfg.Queue.PacingMillis) * time.Millisecond
	}
	if cfg.Queue.BackoffMillis > 0 {
		opts.BackoffBase = time.Duration(cfg.Queue.BackoffMillis) * time.Millisecond
	}
	if cfg.Queue.MaxRetries > 0 {
		opts.MaxRetries = cfg.Queue.MaxRetries
	}
	return opts
}

// openStore opens the SQLite store at the configured path.
func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func newSession(cfg *config.Config) *session.Session {
	return session.New(cfg.Extraction.Provider)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

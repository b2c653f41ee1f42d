package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/parley/internal/config"
	"github.com/user/parley/pkg/llm"

	// Register the built-in providers.
	_ "github.com/user/parley/pkg/llm/anthropic"
	_ "github.com/user/parley/pkg/llm/openai"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a conversational LLM daemon with tools, schedules, and chat adapters",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath,
		"config",
		filepath.Join(os.Getenv("HOME"), ".parley", "config.json"),
		"config file path",
	)
}

// loadConfig loads the config file, exiting on failure. Commands call this
// instead of handling load errors individually.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newClient builds an LLM client from the configured model reference.
func newClient(cfg *config.Config) (*llm.Client, error) {
	var opts []llm.Option
	if cfg.LLM.APIKey != "" {
		opts = append(opts, llm.WithAPIKey(cfg.LLM.APIKey))
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.TimeoutSeconds > 0 {
		opts = append(opts, llm.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second))
	}

	client, err := llm.New(cfg.LLM.Model, opts...)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	if cfg.LLM.MaxTokens > 0 {
		client.SetMaxTokens(cfg.LLM.MaxTokens)
	}
	client.SetTemperature(cfg.LLM.Temperature)
	return client, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package main is the entry point for olasisctl, the OLASIS operator CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/olasis/olasis-service/internal/config"
	"github.com/olasis/olasis-service/internal/llm"
	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/sources/openalex"
	"github.com/olasis/olasis-service/internal/sources/orcid"
)

// cfg and logger are populated by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "olasisctl",
	Short: "Operator tools for the OLASIS service",
	Long: `olasisctl runs OLASIS components from the command line: it diagnoses the
configuration, searches OpenAlex and ORCID, talks to OLABOT, lists chat
suggestions and tails the activity event stream.

Configuration is read the same way the server reads it: .env, OLASIS_*
environment variables and an optional config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		verbose, _ := cmd.Flags().GetBool("verbose")
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = observability.NewLogger(observability.LoggingConfig{
			Level:      level,
			Format:     "console",
			Output:     "stderr",
			TimeFormat: time.Kitchen,
		}).With().Str("component", "olasisctl").Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newOpenAlex() *openalex.Client {
	return openalex.New(openalex.Config{
		BaseURL:    cfg.Sources.OpenAlex.BaseURL,
		Mailto:     cfg.Sources.OpenAlex.Mailto,
		Timeout:    cfg.Sources.Timeout,
		RateLimit:  cfg.Sources.RateLimit,
		MaxRetries: cfg.Sources.MaxRetries,
		UserAgent:  cfg.Sources.UserAgent,
	}, logger, nil)
}

func newORCID() *orcid.Client {
	return orcid.New(orcid.Config{
		BaseURL:       cfg.Sources.ORCID.BaseURL,
		DetailLimit:   cfg.Sources.ORCID.DetailLimit,
		FallbackLabel: cfg.Sources.ORCID.FallbackLabel,
		Timeout:       cfg.Sources.Timeout,
		RateLimit:     cfg.Sources.RateLimit,
		MaxRetries:    cfg.Sources.MaxRetries,
		UserAgent:     cfg.Sources.UserAgent,
	}, logger, nil)
}

func factoryConfig() llm.FactoryConfig {
	return llm.FactoryConfig{
		Provider:   cfg.Assistant.Provider,
		Timeout:    cfg.Assistant.Timeout,
		MaxRetries: cfg.Sources.MaxRetries,
		Gemini: llm.GeminiConfig{
			APIKey: cfg.Assistant.Gemini.APIKey,
			Model:  cfg.Assistant.Gemini.Model,
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.Assistant.OpenAI.APIKey,
			Model:   cfg.Assistant.OpenAI.Model,
			BaseURL: cfg.Assistant.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.Assistant.Anthropic.APIKey,
			Model:   cfg.Assistant.Anthropic.Model,
			BaseURL: cfg.Assistant.Anthropic.BaseURL,
		},
	}
}

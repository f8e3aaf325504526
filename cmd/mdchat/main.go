package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/mdchat/internal/chat"
	"github.com/ajitpratap0/mdchat/internal/config"
	"github.com/ajitpratap0/mdchat/internal/llm"
	"github.com/ajitpratap0/mdchat/internal/secret"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var configFile string
	rootCmd := &cobra.Command{
		Use:          "mdchat",
		Short:        "Chat with a language model inside a Markdown file",
		Long:         "Every top-level heading starts a conversation, every second-level heading starts a turn named after its role. mdchat sends the conversation around a line and writes the reply below it.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.mdchat/config.yaml or ./config.yaml)")

	rootCmd.AddCommand(
		sendCmd(),
		turnsCmd(),
		headingsCmd(),
		keyCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newSecretStore() *secret.FileStore {
	return secret.NewFileStore(cfg.Secrets.Dir)
}

// resolveAPIKey finds the key for the configured provider. Only interactive
// commands may prompt; the MCP and HTTP servers own stdin or run unattended.
func resolveAPIKey(llmCfg config.LLMConfig, logger *slog.Logger, interactive bool) (string, error) {
	var prompt secret.Prompter
	if interactive {
		prompt = secret.TerminalPrompter(os.Stdin, os.Stderr)
	}
	key, err := secret.Resolve(newSecretStore(), secret.APIKeyName(llmCfg.Provider), llmCfg.APIKey, prompt, logger)
	if errors.Is(err, secret.ErrNotFound) {
		return "", config.ErrAPIKeyNotSet
	}
	return key, err
}

func newCompleter(llmCfg config.LLMConfig, logger *slog.Logger, interactive bool) (llm.Completer, error) {
	if err := llmCfg.Ready(); err != nil {
		return nil, err
	}
	key, err := resolveAPIKey(llmCfg, logger, interactive)
	if err != nil {
		return nil, err
	}
	return llm.New(llm.Options{
		Provider:  llmCfg.Provider,
		APIKey:    key,
		BaseURL:   llmCfg.BaseURL,
		MaxTokens: llmCfg.MaxTokens,
	}, logger)
}

func chatOptions() chat.Options {
	return chat.Options{
		AssistantRole: cfg.Chat.AssistantRole,
		DemoteLevels:  cfg.Chat.DemoteLevels,
	}
}

// toCoreLine converts a 1-based --line flag to the 0-based line used inside.
func toCoreLine(line int) (int, error) {
	if line < 1 {
		return 0, fmt.Errorf("--line must be >= 1, got %d", line)
	}
	return line - 1, nil
}

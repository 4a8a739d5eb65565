// Package cmd provides the swimbench CLI commands.
//
// Commands:
//   - serve: HTTP API server (chat, sessions, knowledge reload)
//   - mcp: Model Context Protocol server on stdio for IDE integration
//   - load: one-shot knowledge base reload
//   - version: build information
//
// Long-running commands shut down gracefully on SIGINT/SIGTERM via
// context cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/swimbench/swimbench/internal/config"
	"github.com/swimbench/swimbench/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "swimbench",
	Short: "SwimBench AI - swimming benchmark assistant",
	Long: `SwimBench AI answers questions about swimming time standards using an
LLM agent backed by a PostgreSQL benchmark database and a pgvector
knowledge base.

Run 'swimbench serve' to start the HTTP API.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger and installs it as the slog default so
// library code logging via slog.Default() is captured too. DEBUG (any
// non-empty value) lowers the level; production environments log JSON.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, JSON: cfg.IsProduction()})
	slog.SetDefault(logger)
	return logger
}

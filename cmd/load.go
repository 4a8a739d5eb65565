package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swimbench/swimbench/internal/app"
	"github.com/swimbench/swimbench/internal/config"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Reload the knowledge base from configured sources",
	Long: `Clear the knowledge base, then fetch, chunk and index every configured
source. Equivalent to POST /loadknowledge without a running server.

There is no rollback: if a source fails mid-load the knowledge base is
left empty or partially loaded. Re-run to retry.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLoad(cmd)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

// runLoad performs a one-shot clear-and-reload and prints a per-source
// summary of what was indexed.
func runLoad(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	logger.Info("reloading knowledge base", "sources", len(a.Sources))

	if err := a.Knowledge.Clear(ctx); err != nil {
		return fmt.Errorf("clearing knowledge base: %w", err)
	}
	loaded, err := a.Knowledge.Load(ctx, a.Sources)
	if err != nil {
		return fmt.Errorf("loading knowledge base: %w", err)
	}

	contents, err := a.Knowledge.List(ctx)
	if err != nil {
		return fmt.Errorf("listing loaded contents: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d document chunks from %d sources\n", loaded, len(contents))
	for _, c := range contents {
		fmt.Fprintf(out, "  %-45s %5d chunks  %s\n", c.Name, c.ChunkCount, c.SourceURL)
	}
	return nil
}

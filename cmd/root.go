// Package cmd defines the CLI surface of the crawler binary.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/config"
	"github.com/jobradar/crawler/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawler",
		Short: "Job-listing crawler for Taiwanese job boards",
		Long: `crawler discovers job-listing URLs across the supported job boards,
fetches and normalizes the detail pages into a relational store, and serves
the result through a small query API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")

	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newScheduleCmd())

	return cmd
}

// setup loads configuration and builds the process logger. Every subcommand
// calls it first.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// flushLogger is the deferred best-effort sync at command exit.
func flushLogger(logger *zap.Logger) {
	_ = logger.Sync()
}

// ExecuteContext runs the CLI under ctx; commands observe cancellation
// through cmd.Context().
func ExecuteContext(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Package main is the entry point of the guest list server.
//
// The binary has two jobs, each a cobra subcommand:
//
//	guestlist serve              run the HTTP API (also the default)
//	guestlist migrate up|down|status
//
// All actual logic lives in internal/; main only reads configuration,
// builds the logger and hands over.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/guestlist/internal/config"
	"github.com/sakif/guestlist/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the guest list HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile)
		},
	}

	rootCmd := &cobra.Command{
		Use:          "guestlist",
		Short:        "Guest list and door check-in service",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	rootCmd.AddCommand(serveCmd, newMigrateCmd(&envFile))
	return rootCmd
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func runServe(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	// 0755 = owner can read/write/execute, others can read/execute.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("failed to create data directory", slog.String("error", err.Error()))
		return fmt.Errorf("creating data directory: %w", err)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

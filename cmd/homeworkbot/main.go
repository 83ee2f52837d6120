package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/homeworkbot/internal/config"
	"github.com/ericfisherdev/homeworkbot/internal/logging"
)

// Process exit codes.
const (
	exitFailure       = 1
	exitMissingSecret = 2
)

// exitError is an error that signals a specific exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d: %v", e.code, e.err)
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	// Replaced once the configured level and format are known.
	slog.SetDefault(logging.New(os.Stderr, slog.LevelInfo, logging.FormatText))

	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		slog.Error("fatal error", "error", err)
		os.Exit(exitFailure)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "homeworkbot",
		Short:         "Report homework review status changes to Telegram",
		Long:          "homeworkbot polls the homework review API and sends a Telegram message whenever the review status of the latest submission changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context())
		},
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(deliveriesCmd())

	return rootCmd
}

// loadConfig reads .env (when present) and the environment, then installs the
// configured logger as the slog default. Missing secrets map to exit code 2.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingEnvError
		if errors.As(err, &missing) {
			logging.Critical(context.Background(), "required environment variables are missing", "keys", missing.Keys)
			return nil, &exitError{code: exitMissingSecret, err: err}
		}
		return nil, err
	}

	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	return cfg, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/homeworkbot/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/homeworkbot/internal/adapter/driving/web"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the review API until interrupted (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context())
		},
	}
}

// runBot runs the poll loop and the status server until SIGINT or SIGTERM.
func runBot(parent context.Context) error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"backoff_initial", cfg.BackoffInitial,
		"backoff_max", cfg.BackoffMax,
		"report_errors", cfg.ReportErrors,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire adapters and services.
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Start the poll loop.
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		a.poll.Start(ctx)
	}()

	// 5. Start the status server unless disabled.
	var srv *http.Server
	if cfg.ListenAddr != "" {
		mux := http.NewServeMux()
		httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(a.poll, a.journal, slog.Default()))
		webhandler.RegisterRoutes(mux, webhandler.NewHandler(a.poll, a.journal, slog.Default()))

		srv = &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           httphandler.ApplyMiddleware(mux, slog.Default()),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Manual polls wait for a full iteration, including the API timeout.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("http server starting", "addr", cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "error", err)
			}
		}()
	}

	slog.Info("homeworkbot started", "cursor", a.poll.Status().Cursor)

	// 6. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 7. Graceful shutdown with 10s timeout for the HTTP server drain.
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}
	<-loopDone

	slog.Info("shutdown complete")
	return nil
}

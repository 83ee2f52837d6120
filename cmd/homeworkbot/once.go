package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func onceCmd() *cobra.Command {
	var since int64

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single poll iteration and exit",
		Long: "once fetches status changes, notifies about the most recent one and prints " +
			"the cursor for the next run. A failed iteration exits non-zero without backing off.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("since") {
				cfg.InitialCursor = fmt.Sprint(since)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.poll.RunOnce(ctx); err != nil {
				return err
			}

			slog.Info("poll complete", "next_cursor", a.poll.Cursor())
			fmt.Fprintln(cmd.OutOrStdout(), a.poll.Cursor())
			return nil
		},
	}

	cmd.Flags().Int64Var(&since, "since", 0, "Unix timestamp to fetch changes from (overrides HOMEWORKBOT_INITIAL_CURSOR)")

	return cmd
}

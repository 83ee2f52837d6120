package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/homeworkbot/internal/adapter/driven/sqlite"
)

func deliveriesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "List recent delivery attempts from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openJournal(cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("delivery journal is disabled (HOMEWORKBOT_DB_PATH is empty)")
			}
			defer db.Close()

			deliveries, err := sqliteadapter.NewDeliveryRepo(db).ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(deliveries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No deliveries recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tKIND\tRESULT\tTEXT")
			for _, d := range deliveries {
				result := "delivered"
				if !d.Delivered {
					result = "failed: " + d.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					d.CreatedAt.Local().Format(time.DateTime), d.Kind, result, d.Text)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of deliveries to show")

	return cmd
}

package stats

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calz1/rushroster-cloud/internal/conf"
	"github.com/calz1/rushroster-cloud/internal/datastore"
	"github.com/calz1/rushroster-cloud/internal/logging"
	"github.com/calz1/rushroster-cloud/internal/stats"
)

// Command creates the stats command, which recomputes aggregated summaries.
// It is intended to run from cron, typically hourly.
func Command(settings *conf.Settings) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Recompute aggregated speed statistics",
		Long:  "Recompute per-device daily summaries and the global summary from stored events. Safe to re-run; unchanged days produce identical rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
				}
				day = parsed
			}

			ds := datastore.New(settings)
			if ds == nil {
				return fmt.Errorf("no database output is enabled")
			}
			if err := ds.Open(); err != nil {
				return fmt.Errorf("opening datastore: %w", err)
			}
			defer func() {
				if err := ds.Close(); err != nil {
					logging.Error("Failed to close datastore", "error", err)
				}
			}()

			return stats.New(ds).Run(cmd.Context(), day)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to summarize as YYYY-MM-DD (default today, UTC)")

	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeboard/app"
	"github.com/kilianp07/chargeboard/core/journal"
)

var (
	historyKind    string
	historyOutcome string
	historySince   time.Duration
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled operator actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := journal.Query{Kind: historyKind, Outcome: historyOutcome, Limit: historyLimit}
		if historySince > 0 {
			q.Start = time.Now().Add(-historySince)
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			recs, err := svc.Session.History(ctx, q)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range recs {
				detail := r.Message
				switch {
				case r.Error != "":
					detail = r.Error
				case r.Warning != "":
					detail = r.Warning
				}
				fmt.Fprintf(w, "%s %-9s %-8s %6dms %s\n", r.Timestamp.Format(time.RFC3339), r.Kind, r.Outcome, r.Duration.Milliseconds(), detail)
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "status, optimize, compare, site_peak or blackout")
	historyCmd.Flags().StringVar(&historyOutcome, "outcome", "", "success, warning or failure")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only records newer than this")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "most recent records to show, 0 for all")
	rootCmd.AddCommand(historyCmd)
}

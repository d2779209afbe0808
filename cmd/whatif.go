package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeboard/app"
)

var (
	depotFlag string
	kwFlag    string
	startFlag string
	endFlag   string
)

var whatifCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Apply what-if overrides on the agent",
}

var sitePeakCmd = &cobra.Command{
	Use:   "site-peak",
	Short: "Cap the power drawn at a depot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			out := svc.Session.ApplySitePeak(ctx, depotFlag, kwFlag).Wait()
			if err := report(cmd.ErrOrStderr(), out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Value)
			return nil
		})
	},
}

var blackoutCmd = &cobra.Command{
	Use:   "blackout",
	Short: "Forbid charging at a depot between two hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			out := svc.Session.AddBlackout(ctx, depotFlag, startFlag, endFlag).Wait()
			if err := report(cmd.ErrOrStderr(), out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Value)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{sitePeakCmd, blackoutCmd} {
		c.Flags().StringVar(&depotFlag, "depot", "", "depot id, configured default when empty")
	}
	sitePeakCmd.Flags().StringVar(&kwFlag, "kw", "", "power cap in kW")
	blackoutCmd.Flags().StringVar(&startFlag, "start", "", "first hour of the window")
	blackoutCmd.Flags().StringVar(&endFlag, "end", "", "last hour of the window")
	whatifCmd.AddCommand(sitePeakCmd, blackoutCmd)
	rootCmd.AddCommand(whatifCmd)
}

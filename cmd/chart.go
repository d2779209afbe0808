package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeboard/app"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/infra/render"
)

var (
	outFlag   string
	scaleFlag float64
)

var chartCmd = &cobra.Command{
	Use:       "chart depots|vehicles|comparison",
	Short:     "Render a chart to an HTML file",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"depots", "vehicles", "comparison"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			c, err := buildChart(ctx, cmd, svc, args[0])
			if err != nil {
				return err
			}
			html, err := render.HTML(c)
			if err != nil {
				return err
			}
			path := outFlag
			if path == "" {
				path = args[0] + ".html"
			}
			if err := os.WriteFile(path, html, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

func buildChart(ctx context.Context, cmd *cobra.Command, svc *app.Service, name string) (render.Chart, error) {
	if name == "comparison" {
		horizon, err := optionalHorizon(horizonFlag)
		if err != nil {
			return nil, err
		}
		out := svc.Session.Compare(ctx, horizon).Wait()
		if err := report(cmd.ErrOrStderr(), out); err != nil {
			return nil, err
		}
		if out.Value == nil {
			return nil, fmt.Errorf("comparison report contained no data")
		}
		return render.ComparisonBars(*out.Value), nil
	}

	cfg, err := model.ParseOptimizeConfig(horizonFlag, objectiveFlag, backendFlag)
	if err != nil {
		return nil, err
	}
	out := svc.Session.Optimize(ctx, cfg).Wait()
	if err := report(cmd.ErrOrStderr(), out); err != nil {
		return nil, err
	}
	snap, _ := svc.Session.Run()
	if name == "depots" {
		return render.DepotLines(snap.Schedule.DepotSeries()), nil
	}
	scale := scaleFlag
	if scale <= 0 {
		scale = svc.Config().Dashboard.HeatmapScale
	}
	hm, ok := snap.Schedule.Heatmap(scale)
	if !ok {
		return nil, fmt.Errorf("result has no vehicle schedule to render")
	}
	return render.VehicleHeatmap(hm), nil
}

func init() {
	chartCmd.Flags().StringVarP(&outFlag, "out", "o", "", "output file, <chart>.html when empty")
	chartCmd.Flags().Float64Var(&scaleFlag, "scale", 0, "kW at full heatmap intensity")
	rootCmd.AddCommand(chartCmd)
}

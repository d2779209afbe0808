package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeboard/app"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/internal/task"
	"github.com/kilianp07/chargeboard/pkg/export"
)

var (
	horizonFlag   string
	objectiveFlag string
	backendFlag   string
	exportFlag    string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the agent status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			out := svc.Session.RefreshStatus(ctx).Wait()
			if err := report(cmd.ErrOrStderr(), out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out.Value.Status)
		})
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run an optimization and print its KPIs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := model.ParseOptimizeConfig(horizonFlag, objectiveFlag, backendFlag)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			out := svc.Session.Optimize(ctx, cfg).Wait()
			if err := report(cmd.ErrOrStderr(), out); err != nil {
				return err
			}
			r := out.Value
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "horizon %dh, objective %s, backend %s\n", r.Horizon, r.Objective, r.Backend)
			fmt.Fprintf(w, "total cost $%.2f, peak %.1fkW, on-time %.1f%%\n", r.KPIs.TotalCost, r.KPIs.PeakKW, r.KPIs.OnTimePct)
			if snap, ok := svc.Session.Run(); ok {
				for _, line := range snap.Schedule.Preview(svc.Config().Dashboard.PreviewVehicles, svc.Config().Dashboard.PreviewHours) {
					fmt.Fprintln(w, line)
				}
			}
			for _, e := range r.Explanations {
				fmt.Fprintln(w, e)
			}
			if exportFlag != "" {
				return exportSchedule(svc, exportFlag)
			}
			return nil
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the cost and peak strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		horizon, err := optionalHorizon(horizonFlag)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			out := svc.Session.Compare(ctx, horizon).Wait()
			if err := report(cmd.ErrOrStderr(), out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out.Value == nil {
				if rep, ok := svc.Session.Comparison(); ok {
					fmt.Fprintln(w, rep.Text)
				}
				return nil
			}
			fmt.Fprintf(w, "%-9s %10s %10s %10s\n", "strategy", "cost", "peak_kw", "on_time")
			for _, row := range out.Value.Rows() {
				fmt.Fprintf(w, "%-9s %10.2f %10.1f %9.1f%%\n", row.Strategy, row.Cost, row.Peak, row.OnTime)
			}
			d := out.Value.Deltas()
			fmt.Fprintf(w, "%-9s %+10.2f %+10.1f %+9.1f%%\n", "delta", d.Cost, d.Peak, d.OnTime)
			return nil
		})
	},
}

func optionalHorizon(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	h, err := strconv.Atoi(v)
	if err != nil {
		return nil, &model.ValidationError{Field: "horizon", Reason: "must be a whole number of hours"}
	}
	return &h, nil
}

// exportSchedule writes the latest run as CSV when path ends in .csv and as
// JSON otherwise.
func exportSchedule(svc *app.Service, path string) error {
	snap, ok := svc.Session.Run()
	if !ok {
		return fmt.Errorf("no schedule to export")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	entries := export.Entries(snap.Schedule)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = export.WriteCSV(f, entries)
	} else {
		err = export.WriteJSON(f, entries)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// report prints warnings to w and turns failures into errors.
func report[T any](w io.Writer, out task.Outcome[T]) error {
	switch out.Kind {
	case task.Failure:
		return out.Err
	case task.Warning:
		fmt.Fprintf(w, "warning: %s\n", out.Warning)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{optimizeCmd, compareCmd, chartCmd} {
		c.Flags().StringVar(&horizonFlag, "horizon", "", "planning horizon in hours, agent default when empty")
	}
	for _, c := range []*cobra.Command{optimizeCmd, chartCmd} {
		c.Flags().StringVar(&objectiveFlag, "objective", "", "cost or peak")
		c.Flags().StringVar(&backendFlag, "backend", "", "greedy or milp")
	}
	optimizeCmd.Flags().StringVar(&exportFlag, "export", "", "write the vehicle schedule to this .csv or .json file")
	rootCmd.AddCommand(statusCmd, optimizeCmd, compareCmd)
}

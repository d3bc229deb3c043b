package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsSnapshot bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print barn and feed statistics and the barns needing attention",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, baseLogger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = baseLogger.Sync() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := buildApp(ctx, cfg, baseLogger)
		if err != nil {
			return err
		}
		defer a.close()
		ctx = a.backgroundContext(ctx)

		barnStats, err := a.barns.Statistics(ctx)
		if err != nil {
			return err
		}
		feedStats, err := a.feed.Statistics(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Total Barns\t%d\n", barnStats.TotalBarns)
		fmt.Fprintf(w, "Total Chickens\t%d\n", barnStats.TotalChickens)
		fmt.Fprintf(w, "Daily Egg Production\t%d\n", barnStats.DailyEggs)
		fmt.Fprintf(w, "Alerts\t%d\n", barnStats.Alerts)
		fmt.Fprintf(w, "Warnings\t%d\n", barnStats.Warnings)
		fmt.Fprintf(w, "OK Status\t%d\n", barnStats.OK)
		fmt.Fprintf(w, "Feed Records\t%d\n", feedStats.TotalRecords)
		fmt.Fprintf(w, "Feed Amount\t%.1f\n", feedStats.TotalAmount)
		fmt.Fprintf(w, "Avg Consumption Rate\t%.2f\n", feedStats.AverageConsumptionRate)
		fmt.Fprintf(w, "Low Stock Alerts\t%d\n", feedStats.LowStockAlerts)
		if err := w.Flush(); err != nil {
			return err
		}

		n, ok, err := a.alerts.Check(ctx)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %s\n", n.Title, n.Message)
		}

		if statsSnapshot {
			snap, err := a.reporting.TakeSnapshot(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot archived for %s\n", snap.Date.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsSnapshot, "snapshot", false, "Also archive today's snapshot (requires MONGODB_URI)")
}

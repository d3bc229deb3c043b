package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/telurku/internal/service/reporting"
)

var (
	exportRange  string
	exportOutput string
	exportSheet  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dashboard statistics and barns as CSV or to Google Sheets",
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

		rng := reporting.ParseDateRange(exportRange)
		if exportSheet {
			rows, err := a.reporting.ExportToSheet(ctx, rng)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to Google Sheets\n", rows)
			return nil
		}

		if exportOutput == "-" {
			_, err := a.reporting.WriteCSV(ctx, rng, cmd.OutOrStdout())
			return err
		}

		tmp, err := os.CreateTemp(exportOutput, ".export-*.csv")
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer os.Remove(tmp.Name())

		name, err := a.reporting.WriteCSV(ctx, rng, tmp)
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		dest := filepath.Join(exportOutput, name)
		if err := os.Rename(tmp.Name(), dest); err != nil {
			return fmt.Errorf("write export file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportRange, "range", "month", "Date range label: today, week, month, year")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", ".", "Directory for the CSV file, or - for stdout")
	exportCmd.Flags().BoolVar(&exportSheet, "sheet", false, "Append to the configured Google Sheet instead of writing CSV")
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/config"
	"github.com/mamadbah2/telurku/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "telurku",
	Short:         "Telurku poultry farm dashboard",
	Long:          "telurku serves the barn and feed dashboard API and runs its reporting jobs.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to a .env file (default ./.env when present)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the base logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	baseLogger, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(baseLogger)
	return cfg, baseLogger, nil
}

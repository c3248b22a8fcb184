package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "collector-cli",
	Short: "Bus schedule collection pipeline",
	Long:  "Discovers bus routes on aggregator sites, scrapes schedule listings, validates them, and ingests the records into a database with a per-route audit log.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

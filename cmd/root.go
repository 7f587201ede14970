package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/icp-discovery/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "icpctl",
	Short: "Ideal customer profile discovery from closed deal history",
	Long:  "Mines a workspace's closed-won and closed-lost deals for buyer personas, buying committees, and firmographic win patterns, then synthesizes versioned scoring weights.",
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

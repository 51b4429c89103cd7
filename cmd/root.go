package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "merchant-ops",
	Short: "Merchant onboarding and lead tracking dashboard",
	Long:  "Imports sales lead workbooks, classifies leads, tracks merchant onboarding progress, and serves the internal dashboard API.",
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

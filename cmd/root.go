package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/subtrack-labs/pricewatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pricewatch",
	Short: "Subscription price tracking backend",
	Long:  "Tracks subscription plan prices: discovers current prices from official sources via web search and LLM extraction, caches them, and flags subscriptions whose recorded amount has drifted.",
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

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

var (
	discoverService string
	discoverPlan    string
	discoverLocale  string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the current price for a single service plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := initPipeline()
		if err != nil {
			return err
		}

		out := pipeline.Discover(cmd.Context(), model.PriceQuery{
			ServiceName: discoverService,
			PlanName:    discoverPlan,
			Locale:      discoverLocale,
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverService, "service", "", "service name (e.g. Netflix)")
	discoverCmd.Flags().StringVar(&discoverPlan, "plan", "", "plan name (e.g. Premium)")
	discoverCmd.Flags().StringVar(&discoverLocale, "locale", "", "BCP 47 locale override (e.g. tr-TR)")
	_ = discoverCmd.MarkFlagRequired("service")
	_ = discoverCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(discoverCmd)
}

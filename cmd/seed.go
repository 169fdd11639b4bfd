package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/subtrack-labs/pricewatch/internal/model"
	"github.com/subtrack-labs/pricewatch/internal/store"
)

// catalogEntry is one service with its plans in a seed catalog file.
type catalogEntry struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Plans       []string `yaml:"plans"`
}

// defaultCatalog covers the streaming services tracked out of the box.
var defaultCatalog = []catalogEntry{
	{Name: "netflix", DisplayName: "Netflix", Plans: []string{"Basic", "Standard", "Premium"}},
	{Name: "spotify", DisplayName: "Spotify", Plans: []string{"Individual", "Duo", "Family"}},
	{Name: "exxen", DisplayName: "Exxen", Plans: []string{"Standard", "Reklamsız"}},
	{Name: "disneyplus", DisplayName: "Disney+", Plans: []string{"Standard", "Premium"}},
	{Name: "amazonprimevideo", DisplayName: "Amazon Prime Video", Plans: []string{"Monthly"}},
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the service and plan catalog",
	Long:  "Upserts the tracked services and plans. With --file, reads the catalog from a YAML file instead of the built-in defaults. Seeding is idempotent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		catalog := defaultCatalog
		if seedFile != "" {
			catalog, err = loadCatalog(seedFile)
			if err != nil {
				return err
			}
		}

		return seedCatalog(ctx, st, catalog)
	},
}

func loadCatalog(path string) ([]catalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read catalog file %s", path)
	}
	var catalog []catalogEntry
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, eris.Wrapf(err, "parse catalog file %s", path)
	}
	return catalog, nil
}

func seedCatalog(ctx context.Context, st store.Store, catalog []catalogEntry) error {
	services, plans := 0, 0
	for _, entry := range catalog {
		svc, err := st.UpsertService(ctx, model.Service{Name: entry.Name, DisplayName: entry.DisplayName})
		if err != nil {
			return err
		}
		services++
		for _, planName := range entry.Plans {
			if _, err := st.UpsertPlan(ctx, svc.ID, planName); err != nil {
				return err
			}
			plans++
		}
	}
	zap.L().Info("catalog seeded", zap.Int("services", services), zap.Int("plans", plans))
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML catalog file to seed from")
	rootCmd.AddCommand(seedCmd)
}

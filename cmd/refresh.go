package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var refreshEvery time.Duration

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh cached plan prices",
	Long:  "Runs price discovery over every plan in the catalog and persists high-confidence results. With --every, keeps running on the given cadence until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		refresher, err := initRefresher(st)
		if err != nil {
			return err
		}

		if refreshEvery > 0 {
			return refresher.RunEvery(ctx, refreshEvery)
		}

		summary, err := refresher.RefreshAll(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(summary)
	},
}

func init() {
	refreshCmd.Flags().DurationVar(&refreshEvery, "every", 0, "run continuously on this cadence (e.g. 168h); 0 runs once")
	rootCmd.AddCommand(refreshCmd)
}

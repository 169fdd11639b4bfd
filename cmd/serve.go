package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/subtrack-labs/pricewatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
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

		pipeline, err := initPipeline()
		if err != nil {
			return err
		}
		refresher, err := initRefresher(st)
		if err != nil {
			return err
		}

		srv := server.New(st, pipeline, refresher, cfg.Server, cfg.Pricing.Currency)
		return srv.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

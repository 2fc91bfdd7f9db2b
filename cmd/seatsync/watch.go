package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/seatapi"
	"github.com/spf13/cobra"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <event-id>",
		Short: "Print the seat availability of an event on every change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			// keep stdout for the tables
			cfg.Logger.OutputPaths = []string{"stderr"}
			log, err := logger.New(cfg.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			api, err := seatapi.New(log, cfg.API)
			if err != nil {
				return err
			}
			sc, err := cache.New(log, cfg.Cache, api)
			if err != nil {
				return err
			}
			defer sc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			for snap := range sc.Watch(ctx, args[0], cache.WithRefreshInterval(interval)) {
				if err := renderSnapshot(out, snap, time.Now()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 10*time.Second, "Polling interval, 0 disables polling")
	return cmd
}

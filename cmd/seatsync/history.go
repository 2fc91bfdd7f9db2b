package main

import (
	"errors"

	"github.com/dailyyoga/seatsync/ch"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <event-id>",
		Short: "Show the latest seat fetches of an event from the ClickHouse fetch log.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cfg.CH == nil {
				return errors.New("clickhouse is not configured")
			}
			cfg.Logger.OutputPaths = []string{"stderr"}
			log, err := logger.New(cfg.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			client, err := ch.NewClient(cfg.CH, log)
			if err != nil {
				return err
			}
			defer client.Close()

			rows, err := client.RecentFetches(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return renderHistory(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of fetches to show")
	return cmd
}

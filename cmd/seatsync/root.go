package main

import (
	"runtime"

	"github.com/dailyyoga/seatsync/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// set by the release build
var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configPath string
	noColor    bool
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.noColor {
		color.NoColor = true
	}
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "seatsync",
		Short:         "Seat availability sync for live events.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./seatsync.yaml)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newServeCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of seatsync.",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("seatsync\n")
			cmd.Printf("  Version: %s\n", version)
			cmd.Printf("  Commit:  %s\n", commit)
			cmd.Printf("  Runtime: %s\n", runtime.Version())
		},
	}
}

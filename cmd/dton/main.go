// Command dton converts between JSON and SmDton buffers and inspects them.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		theLog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "dton",
		Short:         "SmDton buffer tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				logLevel.Set(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCodec().Commands...)
	root.AddCommand(newOverlay().Commands...)
	return root
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/karvell/temurin-updater/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update detected Temurin components to their streams' latest releases",
	Long: `Scan the machine for installed Eclipse Temurin components, resolve each
one's newest upstream release, and update those that are behind. Streams
stay self-contained: an installed 17 is only ever moved to a newer 17.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		streams, err := parseStreams(streamFlags)
		if err != nil {
			return err
		}

		o := newOrchestrator()
		result, err := o.RunUpdatePass(context.Background(), updater.UpdateOptions{
			Streams: streams,
			DryRun:  dryRun,
		})
		if err != nil {
			return err
		}

		// Per-component failures are already counted and logged; only a
		// fault of the pass itself reaches the exit status.
		if result.Failed > 0 {
			logger.Warnf("%d component(s) failed to update, see the log above", result.Failed)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().StringSliceVar(&streamFlags, "stream", nil, "Only update the named streams (e.g. 8,17; default: all detected)")
	updateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and compare but do not download or install anything")
	rootCmd.AddCommand(updateCmd)
}

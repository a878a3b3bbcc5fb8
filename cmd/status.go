package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/karvell/temurin-updater/internal/updater"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed components and whether newer releases exist",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		streams, err := parseStreams(streamFlags)
		if err != nil {
			return err
		}

		// A status report is an update pass that stops after comparing.
		o := newOrchestrator()
		result, err := o.RunUpdatePass(context.Background(), updater.UpdateOptions{
			Streams: streams,
			DryRun:  true,
		})
		if err != nil {
			return err
		}

		switch {
		case result.Updated > 0:
			logger.Infof("%d update(s) available; run \"temurin-updater update\" to apply", result.Updated)
		case len(result.Outcomes) > 0:
			logger.Infof("everything is up to date")
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringSliceVar(&streamFlags, "stream", nil, "Only report on the named streams (default: all detected)")
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karvell/temurin-updater/internal/dist"
	"github.com/karvell/temurin-updater/internal/updater"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the latest release of the named streams",
	Long: `Fresh-install the newest release of each requested stream, independent of
anything already on the machine. A stream whose architecture and package
type are already installed is left to the installer's own duplicate
detection.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(streamFlags) == 0 {
			return wrapUsageError(fmt.Errorf("at least one --stream is required"))
		}
		streams, err := parseStreams(streamFlags)
		if err != nil {
			return err
		}
		arch, err := dist.ParseArch(archFlag)
		if err != nil {
			return wrapUsageError(err)
		}
		pkgType, err := dist.ParsePackageType(typeFlag)
		if err != nil {
			return wrapUsageError(err)
		}

		requests := make([]updater.InstallRequest, 0, len(streams))
		for _, s := range streams {
			requests = append(requests, updater.InstallRequest{Stream: s, Type: pkgType, Arch: arch})
		}

		o := newOrchestrator()
		result, err := o.RunInstallPass(context.Background(), requests)
		if err != nil {
			return err
		}
		if result.Failed > 0 {
			logger.Warnf("%d install(s) failed, see the log above", result.Failed)
		}
		return nil
	},
}

func init() {
	installCmd.Flags().StringSliceVar(&streamFlags, "stream", nil, "Streams to install (e.g. 8,17)")
	installCmd.Flags().StringVar(&archFlag, "arch", "x64", "Architecture: x64 or x86")
	installCmd.Flags().StringVar(&typeFlag, "type", "jre", "Package type: jre or jdk")
	rootCmd.AddCommand(installCmd)
}

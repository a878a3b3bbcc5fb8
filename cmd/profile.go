package cmd

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/karvell/temurin-updater/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved option profiles",
}

// Flags for profile save
var (
	profStreams []string
	profArch    *string
	profType    *string
	profDryRun  *bool
	profVerbose *bool
)

var profileSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a new profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &profile.Profile{}

		if cmd.Flags().Changed("stream") {
			p.Streams = profStreams
		}
		if cmd.Flags().Changed("arch") {
			p.Arch = profArch
		}
		if cmd.Flags().Changed("type") {
			p.Type = profType
		}
		if cmd.Flags().Changed("dry-run") {
			p.DryRun = profDryRun
		}
		if cmd.Flags().Changed("verbose") {
			p.Verbose = profVerbose
		}
		if cmd.Flags().Changed("log-file") {
			p.LogFile = &logFile
		}

		if err := profile.Save(args[0], p); err != nil {
			return err
		}
		logger.Infof("profile %q saved to %s", args[0], profile.Dir())
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := profile.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logger.Infof("no profiles saved")
			return nil
		}
		for _, n := range names {
			logger.Infof("%s", n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's contents",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return err
		}
		logger.Infof("%s", buf.String())
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profile.Delete(args[0]); err != nil {
			return err
		}
		logger.Infof("profile %q deleted", args[0])
		return nil
	},
}

func init() {
	// Wire up flags for save. We use local variables so they only apply to
	// this subcommand and don't collide with the root/update flags.
	profileSaveCmd.Flags().StringSliceVar(&profStreams, "stream", nil, "Streams the profile targets")
	profArch = profileSaveCmd.Flags().String("arch", "x64", "Architecture: x64 or x86")
	profType = profileSaveCmd.Flags().String("type", "jre", "Package type: jre or jdk")
	profDryRun = profileSaveCmd.Flags().Bool("dry-run", false, "Resolve and compare without installing")
	profVerbose = profileSaveCmd.Flags().Bool("verbose", false, "Enable verbose logging")

	profileCmd.AddCommand(profileSaveCmd, profileListCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}

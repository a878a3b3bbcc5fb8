package cmd

import (
	"github.com/spf13/cobra"

	"github.com/karvell/temurin-updater/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and bootstrap the machine-level settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings after file and environment overrides",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Infof("api_base_url:                 %s", cfg.APIBaseURL)
		logger.Infof("staging_dir:                  %s", cfg.StagingDir)
		logger.Infof("install_root:                 %s", cfg.InstallRoot)
		logger.Infof("log_dir:                      %s", cfg.LogDir)
		logger.Infof("max_attempts:                 %d", cfg.MaxAttempts)
		logger.Infof("initial_delay_seconds:        %d", cfg.InitialDelaySeconds)
		logger.Infof("download_timeout_seconds:     %d", cfg.DownloadTimeoutSeconds)
		logger.Infof("process_poll_seconds:         %d", cfg.ProcessPollSeconds)
		logger.Infof("process_wait_timeout_minutes: %d", cfg.ProcessWaitTimeoutMinutes)
		logger.Infof("publisher:                    %s", cfg.Publisher)
		logger.Infof("log_file:                     %s", cfg.LogFile)
		logger.Infof("keep_staging:                 %t", cfg.KeepStaging)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current effective settings to the settings file",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.SaveTo(cfg, path); err != nil {
			return err
		}
		logger.Successf("settings written to %s", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

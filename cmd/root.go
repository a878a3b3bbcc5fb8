package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karvell/temurin-updater/internal/adoptium"
	"github.com/karvell/temurin-updater/internal/config"
	"github.com/karvell/temurin-updater/internal/discovery"
	"github.com/karvell/temurin-updater/internal/dist"
	"github.com/karvell/temurin-updater/internal/downloader"
	"github.com/karvell/temurin-updater/internal/installer"
	"github.com/karvell/temurin-updater/internal/logging"
	"github.com/karvell/temurin-updater/internal/procs"
	"github.com/karvell/temurin-updater/internal/profile"
	"github.com/karvell/temurin-updater/internal/updater"
)

var (
	cfgFile     string
	profileName string
	verbose     bool
	logFile     string

	// Shared between the update/install/status subcommands.
	streamFlags []string
	archFlag    string
	typeFlag    string
	dryRun      bool

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "temurin-updater",
	Short:         "Unattended updater for Eclipse Temurin installations",
	Long:          "Keep installed Eclipse Temurin runtimes and JDKs on this machine at the newest release of their own major stream, without user interaction.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Apply profile defaults for flags not explicitly set by the user.
		if profileName != "" {
			p, err := profile.Load(profileName)
			if err != nil {
				return err
			}
			if len(p.Streams) > 0 && flagUnchanged(cmd, "stream") {
				streamFlags = p.Streams
			}
			if p.Arch != nil && flagUnchanged(cmd, "arch") {
				archFlag = *p.Arch
			}
			if p.Type != nil && flagUnchanged(cmd, "type") {
				typeFlag = *p.Type
			}
			if p.DryRun != nil && flagUnchanged(cmd, "dry-run") {
				dryRun = *p.DryRun
			}
			if p.Verbose != nil && !cmd.Flags().Changed("verbose") {
				verbose = *p.Verbose
			}
			if p.LogFile != nil && !cmd.Flags().Changed("log-file") {
				logFile = *p.LogFile
			}
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}

		if logFile == "" {
			logFile = cfg.LogFile
		}
		logger, err = logging.New(logging.Options{Verbose: verbose, FilePath: logFile})
		if err != nil {
			return fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	closeErr := logger.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", closeErr)
		if err == nil {
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			if cmd, _, findErr := rootCmd.Find(os.Args[1:]); findErr == nil && cmd != nil {
				_ = cmd.Usage()
			} else {
				_ = rootCmd.Usage()
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapUsageError(err)
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Settings file (default: the per-OS data directory)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Load a saved option profile by name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write command output to a log file")
}

// newOrchestrator wires a pass from the loaded settings. Called only after
// PersistentPreRunE has populated cfg and logger.
func newOrchestrator() *updater.Orchestrator {
	httpClient := &http.Client{Timeout: cfg.DownloadTimeout()}
	return &updater.Orchestrator{
		Resolver: &adoptium.Client{
			BaseURL:    cfg.APIBaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		},
		Fetcher: &downloader.Fetcher{
			StagingDir:   cfg.StagingDir,
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.InitialDelay(),
			HTTPClient:   httpClient,
			Logger:       logger,
			Progress:     !verbose,
		},
		Supervisor: &installer.Supervisor{
			Runner:       installer.ExecRunner{},
			Procs:        procs.System{},
			Logger:       logger,
			PollInterval: cfg.PollInterval(),
			WaitTimeout:  cfg.ProcessWaitTimeout(),
			LogDir:       cfg.LogDir,
			InstallRoot:  cfg.InstallRoot,
		},
		Scanner:     discovery.Registry{},
		Logger:      logger,
		Publisher:   cfg.Publisher,
		KeepStaging: cfg.KeepStaging,
	}
}

// parseStreams validates the --stream values against the known set.
func parseStreams(raw []string) ([]dist.Stream, error) {
	var streams []dist.Stream
	for _, r := range raw {
		s, err := dist.ParseStream(r)
		if err != nil {
			return nil, wrapUsageError(err)
		}
		streams = append(streams, s)
	}
	return streams, nil
}

// flagUnchanged reports whether the running command has the named flag and
// the user left it at its default. Profiles only fill in unset flags.
func flagUnchanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && !f.Changed
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func wrapUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if validate == nil {
			return nil
		}
		if err := validate(cmd, args); err != nil {
			return wrapUsageError(err)
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}

	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command ")
}

// Package config loads the machine-level updater settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the updater reads at startup. Values come
// from defaults, then the YAML settings file, then TEMURINUP_* environment
// variables.
type Config struct {
	APIBaseURL                string `mapstructure:"api_base_url"`
	StagingDir                string `mapstructure:"staging_dir"`
	InstallRoot               string `mapstructure:"install_root"`
	LogDir                    string `mapstructure:"log_dir"`
	MaxAttempts               int    `mapstructure:"max_attempts"`
	InitialDelaySeconds       int    `mapstructure:"initial_delay_seconds"`
	DownloadTimeoutSeconds    int    `mapstructure:"download_timeout_seconds"`
	ProcessPollSeconds        int    `mapstructure:"process_poll_seconds"`
	ProcessWaitTimeoutMinutes int    `mapstructure:"process_wait_timeout_minutes"`
	Publisher                 string `mapstructure:"publisher"`
	LogFile                   string `mapstructure:"log_file"`
	KeepStaging               bool   `mapstructure:"keep_staging"`
}

func Default() *Config {
	return &Config{
		APIBaseURL:             "https://api.github.com",
		StagingDir:             filepath.Join(os.TempDir(), "temurin-updater"),
		InstallRoot:            defaultInstallRoot(),
		LogDir:                 filepath.Join(dataDir(), "logs"),
		MaxAttempts:            5,
		InitialDelaySeconds:    10,
		DownloadTimeoutSeconds: 600,
		ProcessPollSeconds:     10,
		Publisher:              "Eclipse Adoptium",
	}
}

// Load reads settings from cfgFile, or searches the standard locations
// when cfgFile is empty. A missing file in the search path is not an
// error; an explicitly named missing file is.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("temurin-updater")
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TEMURINUP")
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to the default settings path.
func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

// SaveTo writes cfg as YAML to cfgFile, or to the default settings path
// when cfgFile is empty.
func SaveTo(cfg *Config, cfgFile string) error {
	v := viper.New()
	setDefaults(v, cfg)

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = DefaultPath()
	}
	if dir := filepath.Dir(cfgPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating settings directory: %w", err)
		}
	}

	if err := v.WriteConfigAs(cfgPath); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// DefaultPath returns where the settings file lives when no --config flag
// is given.
func DefaultPath() string {
	return filepath.Join(dataDir(), "temurin-updater.yaml")
}

// Validate rejects values no run could work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if strings.TrimSpace(c.StagingDir) == "" {
		return fmt.Errorf("staging_dir must not be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialDelaySeconds < 0 {
		return fmt.Errorf("initial_delay_seconds must not be negative, got %d", c.InitialDelaySeconds)
	}
	if c.DownloadTimeoutSeconds < 1 {
		return fmt.Errorf("download_timeout_seconds must be at least 1, got %d", c.DownloadTimeoutSeconds)
	}
	if c.ProcessPollSeconds < 1 {
		return fmt.Errorf("process_poll_seconds must be at least 1, got %d", c.ProcessPollSeconds)
	}
	if c.ProcessWaitTimeoutMinutes < 0 {
		return fmt.Errorf("process_wait_timeout_minutes must not be negative, got %d", c.ProcessWaitTimeoutMinutes)
	}
	if strings.TrimSpace(c.Publisher) == "" {
		return fmt.Errorf("publisher must not be empty")
	}
	return nil
}

// InitialDelay returns the base delay for download retry backoff.
func (c *Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySeconds) * time.Second
}

// DownloadTimeout returns the per-request HTTP timeout for downloads.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// PollInterval returns how often blocking processes are re-checked.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.ProcessPollSeconds) * time.Second
}

// ProcessWaitTimeout returns the cap on the blocking-process wait.
// Zero means wait forever.
func (c *Config) ProcessWaitTimeout() time.Duration {
	return time.Duration(c.ProcessWaitTimeoutMinutes) * time.Minute
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api_base_url", cfg.APIBaseURL)
	v.SetDefault("staging_dir", cfg.StagingDir)
	v.SetDefault("install_root", cfg.InstallRoot)
	v.SetDefault("log_dir", cfg.LogDir)
	v.SetDefault("max_attempts", cfg.MaxAttempts)
	v.SetDefault("initial_delay_seconds", cfg.InitialDelaySeconds)
	v.SetDefault("download_timeout_seconds", cfg.DownloadTimeoutSeconds)
	v.SetDefault("process_poll_seconds", cfg.ProcessPollSeconds)
	v.SetDefault("process_wait_timeout_minutes", cfg.ProcessWaitTimeoutMinutes)
	v.SetDefault("publisher", cfg.Publisher)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("keep_staging", cfg.KeepStaging)
}

func defaultInstallRoot() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	pf := os.Getenv("ProgramFiles")
	if pf == "" {
		pf = `C:\Program Files`
	}
	return filepath.Join(pf, "Eclipse Adoptium")
}

func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "TemurinUpdater")
	case "darwin":
		return "/Library/Application Support/TemurinUpdater"
	default:
		return "/etc/temurin-updater"
	}
}

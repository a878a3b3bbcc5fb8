// Package installer supervises msiexec transactions: waiting out live
// java processes, removing same-update revisions first, and classifying
// installer exit codes.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karvell/temurin-updater/internal/adoptium"
	"github.com/karvell/temurin-updater/internal/dist"
	"github.com/karvell/temurin-updater/internal/javaver"
	"github.com/karvell/temurin-updater/internal/logging"
	"github.com/karvell/temurin-updater/internal/procs"
)

// BlockingProcesses are the executables whose presence holds back an
// installer transaction against a live runtime.
var BlockingProcesses = []string{"java.exe", "javaw.exe"}

// Exit codes the Windows installer service uses for "done, restart later".
var restartPendingCodes = map[int]bool{3010: true, 1641: true, 3011: true}

// Existing describes the installed copy an update replaces.
type Existing struct {
	DisplayName string
	ProductCode string
	Version     javaver.Version
}

// Outcome reports a completed install.
type Outcome struct {
	RestartPending bool
	Uninstalled    bool   // a same-update revision was removed first
	LogPath        string // verbose MSI log of the install step
}

// ExitError reports a non-success msiexec exit, with any diagnostic
// lines scraped from the verbose log tail.
type ExitError struct {
	Op       string // "install" or "uninstall"
	Code     int
	LogPath  string
	LogHints []string
}

func (e *ExitError) Error() string {
	if len(e.LogHints) == 0 {
		return fmt.Sprintf("msiexec %s exited with code %d (log: %s)", e.Op, e.Code, e.LogPath)
	}
	return fmt.Sprintf("msiexec %s exited with code %d: %s (log: %s)",
		e.Op, e.Code, strings.Join(e.LogHints, "; "), e.LogPath)
}

// Supervisor drives one msiexec operation at a time.
type Supervisor struct {
	Runner Runner
	Procs  procs.Inspector
	Logger *logging.Logger
	// PollInterval is the wait between blocking-process checks.
	// Defaults to 10s.
	PollInterval time.Duration
	// WaitTimeout caps the blocking-process wait. Zero waits forever.
	WaitTimeout time.Duration
	LogDir      string
	InstallRoot string

	// Test seams.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Install runs the full state machine for one staged installer: wait for
// java processes to exit, uninstall a same-update revision when the
// stream requires it, run msiexec, classify the exit code. existing is
// nil on a fresh install.
func (s *Supervisor) Install(ctx context.Context, existing *Existing, asset *adoptium.ReleaseAsset, msiPath string) (*Outcome, error) {
	if err := os.MkdirAll(s.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating MSI log directory: %w", err)
	}

	if err := s.waitForBlockingProcesses(ctx); err != nil {
		return nil, err
	}

	outcome := &Outcome{}

	if existing != nil && needsRevisionUninstall(existing.Version, asset.Version) {
		s.Logger.Infof("removing %s before installing revision %s", existing.DisplayName, asset.RawVersion)
		if err := s.uninstall(ctx, existing, asset); err != nil {
			return nil, err
		}
		outcome.Uninstalled = true
	}

	restart, logPath, err := s.runInstall(ctx, existing, asset, msiPath)
	if err != nil {
		return nil, err
	}
	outcome.RestartPending = restart
	outcome.LogPath = logPath
	return outcome, nil
}

// needsRevisionUninstall reports whether the installed copy must be
// removed before the new build goes on. The 8uNNN installers cannot
// replace a build of the same update in place.
func needsRevisionUninstall(installed, available javaver.Version) bool {
	in, ok := installed.(javaver.Legacy)
	if !ok {
		return false
	}
	av, ok := available.(javaver.Legacy)
	return ok && in.Update == av.Update
}

func (s *Supervisor) waitForBlockingProcesses(ctx context.Context) error {
	poll := s.PollInterval
	if poll <= 0 {
		poll = 10 * time.Second
	}

	var waited time.Duration
	nextNotice := time.Minute
	announced := false
	for {
		pids, err := s.Procs.FindRunning(BlockingProcesses)
		if err != nil {
			return fmt.Errorf("checking for running java processes: %w", err)
		}
		if len(pids) == 0 {
			if announced {
				s.Logger.Infof("java processes exited after %s, proceeding", waited.Round(time.Second))
			}
			return nil
		}

		if !announced {
			s.Logger.Warnf("%d java process(es) running, waiting for them to exit", len(pids))
			announced = true
		}
		if waited >= nextNotice {
			s.Logger.Infof("still waiting on %d java process(es) after %s", len(pids), waited.Round(time.Second))
			nextNotice += time.Minute
		}
		if s.WaitTimeout > 0 && waited >= s.WaitTimeout {
			return fmt.Errorf("%d java process(es) still running after %s", len(pids), waited.Round(time.Second))
		}

		if err := s.wait(ctx, poll); err != nil {
			return err
		}
		waited += poll
	}
}

func (s *Supervisor) uninstall(ctx context.Context, existing *Existing, asset *adoptium.ReleaseAsset) error {
	logPath := s.logPath(asset.Name, "uninstall")
	args := []string{"/x", existing.ProductCode, "/qn", "/norestart", "/L*v", logPath}

	code, err := s.run(ctx, args)
	if err != nil {
		return fmt.Errorf("uninstalling %s: %w", existing.DisplayName, err)
	}
	switch {
	case code == 0:
		s.Logger.Debugf("uninstalled %s", existing.DisplayName)
	case restartPendingCodes[code]:
		s.Logger.Warnf("uninstall of %s wants a restart (exit %d), continuing", existing.DisplayName, code)
	default:
		return &ExitError{Op: "uninstall", Code: code, LogPath: logPath, LogHints: tailErrors(logPath)}
	}
	return nil
}

func (s *Supervisor) runInstall(ctx context.Context, existing *Existing, asset *adoptium.ReleaseAsset, msiPath string) (bool, string, error) {
	logPath := s.logPath(asset.Name, "install")
	args := []string{"/i", msiPath, "/qn", "/norestart", "/L*v", logPath}
	// Feature selection and the install root are pinned only on fresh
	// installs; updates inherit whatever the existing copy chose.
	if existing == nil {
		args = append(args, "ADDLOCAL="+strings.Join(featuresFor(asset.Type), ","))
		if s.InstallRoot != "" {
			dir := asset.Type.AssetToken() + "-" + asset.RawVersion
			args = append(args, "INSTALLDIR="+filepath.Join(s.InstallRoot, dir))
		}
	}

	code, err := s.run(ctx, args)
	if err != nil {
		return false, logPath, fmt.Errorf("installing %s: %w", asset.Name, err)
	}
	switch {
	case code == 0:
		return false, logPath, nil
	case restartPendingCodes[code]:
		return true, logPath, nil
	default:
		return false, logPath, &ExitError{Op: "install", Code: code, LogPath: logPath, LogHints: tailErrors(logPath)}
	}
}

// featuresFor selects the MSI features a fresh install enables: the
// runtime itself plus PATH/registry integration and JAVA_HOME, with the
// development tools added for JDK packages.
func featuresFor(t dist.PackageType) []string {
	features := []string{"FeatureMain", "FeatureEnvironment", "FeatureJarFileRunWith", "FeatureJavaHome"}
	if t == dist.Development {
		features = append(features, "FeatureDevTools")
	}
	return features
}

func (s *Supervisor) run(ctx context.Context, args []string) (int, error) {
	s.Logger.Debugf("msiexec %s", strings.Join(args, " "))
	return s.Runner.Run(ctx, "msiexec", args)
}

func (s *Supervisor) logPath(assetName, op string) string {
	now := s.now
	if now == nil {
		now = time.Now
	}
	stamp := now().Format("20060102-150405")
	return filepath.Join(s.LogDir, fmt.Sprintf("%s.%s.%s.log", assetName, op, stamp))
}

func (s *Supervisor) wait(ctx context.Context, d time.Duration) error {
	if s.sleep != nil {
		return s.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

package updater

import (
	"context"
	"fmt"
	"os"

	"github.com/karvell/temurin-updater/internal/downloader"
	"github.com/karvell/temurin-updater/internal/installer"
	"github.com/karvell/temurin-updater/internal/javaver"
)

// updateOne takes a single component through resolve → compare →
// fetch → install. Every failure is absorbed into the returned Outcome.
func (o *Orchestrator) updateOne(ctx context.Context, c Component, dryRun bool, staged *[]string) Outcome {
	target := c.DisplayName

	asset, err := o.Resolver.Resolve(ctx, c.Stream, c.Type, c.Arch)
	if err != nil {
		o.Logger.Errorf("%s: resolving latest release: %v", target, err)
		return Outcome{Target: target, Status: StatusFailed, Err: err}
	}

	order, err := javaver.Compare(c.Version, asset.Version, c.Stream)
	if err != nil {
		o.Logger.Warnf("%s: no update decision possible: %v", target, err)
		return Outcome{Target: target, Status: StatusSkipped, Err: err}
	}
	if order != javaver.Newer {
		o.Logger.Infof("%s is up to date (installed %s, upstream %s)", target, c.Version, asset.RawVersion)
		return Outcome{Target: target, Status: StatusUpToDate}
	}

	if dryRun {
		o.Logger.Infof("%s: would update %s to %s (release %s)", target, c.Version, asset.RawVersion, asset.Tag)
		return Outcome{Target: target, Status: StatusUpdateAvailable, NewVersion: asset.RawVersion}
	}

	o.Logger.Infof("%s: updating %s to %s (release %s)", target, c.Version, asset.RawVersion, asset.Tag)

	fetched, err := o.fetchAsset(ctx, asset.URL, asset.ChecksumURL, asset.Name, staged)
	if err != nil {
		o.Logger.Errorf("%s: %v", target, err)
		return Outcome{Target: target, Status: StatusFailed, Err: err}
	}

	existing := &installer.Existing{
		DisplayName: c.DisplayName,
		ProductCode: c.ProductCode,
		Version:     c.Version,
	}
	out, err := o.Supervisor.Install(ctx, existing, asset, fetched.Path)
	if err != nil {
		o.Logger.Errorf("%s: %v", target, err)
		return Outcome{Target: target, Status: StatusFailed, Err: err}
	}

	o.logApplied(target, asset.RawVersion, out)
	return Outcome{Target: target, Status: StatusUpdated, NewVersion: asset.RawVersion, RestartPending: out.RestartPending}
}

// installOne performs one fresh install from an explicit request.
func (o *Orchestrator) installOne(ctx context.Context, req InstallRequest, staged *[]string) Outcome {
	target := fmt.Sprintf("Temurin %s %s (%s)", req.Type, req.Stream, req.Arch)

	asset, err := o.Resolver.Resolve(ctx, req.Stream, req.Type, req.Arch)
	if err != nil {
		o.Logger.Errorf("%s: resolving latest release: %v", target, err)
		return Outcome{Target: target, Status: StatusFailed, Err: err}
	}

	o.Logger.Infof("%s: installing %s (release %s)", target, asset.RawVersion, asset.Tag)

	fetched, err := o.fetchAsset(ctx, asset.URL, asset.ChecksumURL, asset.Name, staged)
	if err != nil {
		o.Logger.Errorf("%s: %v", target, err)
		return Outcome{Target: target, Status: StatusFailed, Err: err}
	}

	out, err := o.Supervisor.Install(ctx, nil, asset, fetched.Path)
	if err != nil {
		o.Logger.Errorf("%s: %v", target, err)
		return Outcome{Target: target, Status: StatusFailed, Err: err}
	}

	o.logApplied(target, asset.RawVersion, out)
	return Outcome{Target: target, Status: StatusInstalled, NewVersion: asset.RawVersion, RestartPending: out.RestartPending}
}

// fetchAsset stages a verified installer and records its files for the
// end-of-run cleanup. On failure the fetcher has already removed its
// partials, so there is nothing to track.
func (o *Orchestrator) fetchAsset(ctx context.Context, installerURL, checksumURL, name string, staged *[]string) (*downloader.Result, error) {
	fetched, err := o.Fetcher.FetchVerified(ctx, installerURL, checksumURL, name)
	if err != nil {
		return nil, err
	}
	*staged = append(*staged, fetched.Path, fetched.ChecksumPath)
	return fetched, nil
}

func (o *Orchestrator) logApplied(target, version string, out *installer.Outcome) {
	if out.Uninstalled {
		o.Logger.Debugf("%s: previous revision was removed first", target)
	}
	if out.RestartPending {
		o.Logger.Warnf("%s: now at %s, but a restart is required to finish", target, version)
		return
	}
	o.Logger.Successf("%s: now at %s", target, version)
}

// cleanupStaging removes the verified installers and checksum files the
// pass staged. MSI verbose logs are always kept; only downloads go.
func (o *Orchestrator) cleanupStaging(staged *[]string) {
	if len(*staged) == 0 {
		return
	}
	if o.KeepStaging {
		o.Logger.Debugf("keeping %d staged file(s) in %s", len(*staged), o.Fetcher.StagingDir)
		return
	}
	for _, path := range *staged {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			o.Logger.Warnf("cleaning staging file %s: %v", path, err)
		}
	}
	o.Logger.Debugf("removed %d staged file(s)", len(*staged))
}

func (o *Orchestrator) logSummary(pass string, result *PassResult) {
	o.Logger.Infof("%s pass finished: %d updated/installed, %d up to date, %d skipped, %d failed",
		pass, result.Updated, result.UpToDate, result.Skipped, result.Failed)
}

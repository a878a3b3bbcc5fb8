package updater

import (
	"context"
	"fmt"

	"github.com/karvell/temurin-updater/internal/dist"
)

// RunUpdatePass scans for installed components and brings each one up to
// the newest release of its own stream. Targets are processed strictly one
// at a time; msiexec serializes installation state machine-wide, so there
// is nothing to gain from overlap. A failed target is counted and the pass
// moves on; only a failure of the scan itself aborts the run.
func (o *Orchestrator) RunUpdatePass(ctx context.Context, opts UpdateOptions) (*PassResult, error) {
	records, err := o.Scanner.ListInstalled(o.Publisher)
	if err != nil {
		return nil, fmt.Errorf("listing installed programs: %w", err)
	}

	comps := DeriveComponents(records, o.Logger)
	if len(comps) == 0 {
		o.Logger.Infof("no Temurin components detected")
		return &PassResult{}, nil
	}
	o.Logger.Infof("detected %d Temurin component(s)", len(comps))

	result := &PassResult{}
	var staged []string
	defer o.cleanupStaging(&staged)

	for _, c := range comps {
		if !streamSelected(opts.Streams, c.Stream) {
			o.Logger.Debugf("%s: stream %s not selected, skipping", c.DisplayName, c.Stream)
			continue
		}
		result.add(o.updateOne(ctx, c, opts.DryRun, &staged))
	}

	o.logSummary("update", result)
	return result, nil
}

// RunInstallPass performs fresh installs for the requested streams,
// independent of anything already on the machine. A duplicate of an
// existing stream/arch pair is left to the installer's own detection.
func (o *Orchestrator) RunInstallPass(ctx context.Context, requests []InstallRequest) (*PassResult, error) {
	result := &PassResult{}
	var staged []string
	defer o.cleanupStaging(&staged)

	for _, req := range requests {
		result.add(o.installOne(ctx, req, &staged))
	}

	o.logSummary("install", result)
	return result, nil
}

// streamSelected reports whether an empty selection (meaning "all") or an
// explicit one covers the stream.
func streamSelected(selected []dist.Stream, stream dist.Stream) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == stream {
			return true
		}
	}
	return false
}

// Package updater drives one update or install pass over the machine's
// Temurin components, one target at a time.
package updater

import (
	"github.com/karvell/temurin-updater/internal/adoptium"
	"github.com/karvell/temurin-updater/internal/discovery"
	"github.com/karvell/temurin-updater/internal/dist"
	"github.com/karvell/temurin-updater/internal/downloader"
	"github.com/karvell/temurin-updater/internal/installer"
	"github.com/karvell/temurin-updater/internal/javaver"
	"github.com/karvell/temurin-updater/internal/logging"
)

// Orchestrator wires the collaborators one pass needs. Every dependency is
// injected; the orchestrator owns no state beyond the pass it is running.
type Orchestrator struct {
	Resolver   *adoptium.Client
	Fetcher    *downloader.Fetcher
	Supervisor *installer.Supervisor
	Scanner    discovery.Scanner
	Logger     *logging.Logger
	// Publisher filters the installed-program scan.
	Publisher string
	// KeepStaging leaves verified installers in the staging directory
	// after the pass, for diagnostics.
	KeepStaging bool
}

// UpdateOptions tunes one update pass.
type UpdateOptions struct {
	// Streams restricts the pass to the named streams. Empty means every
	// detected component.
	Streams []dist.Stream
	// DryRun resolves and compares but neither downloads nor installs.
	DryRun bool
}

// InstallRequest names one fresh install to perform.
type InstallRequest struct {
	Stream dist.Stream
	Type   dist.PackageType
	Arch   dist.Arch
}

// Component is one installed Temurin instance derived from a discovery
// record. Immutable for the lifetime of a pass.
type Component struct {
	Stream      dist.Stream
	Type        dist.PackageType
	Arch        dist.Arch
	Version     javaver.Version
	DisplayName string
	ProductCode string
}

// Status classifies what a pass did to one target.
type Status int

const (
	StatusUpToDate        Status = iota
	StatusUpdateAvailable        // dry run found a newer release
	StatusUpdated
	StatusInstalled
	StatusSkipped // no update decision possible
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up-to-date"
	case StatusUpdateAvailable:
		return "update-available"
	case StatusUpdated:
		return "updated"
	case StatusInstalled:
		return "installed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the per-target result folded into a PassResult.
type Outcome struct {
	Target         string
	Status         Status
	NewVersion     string
	RestartPending bool
	Err            error
}

// PassResult aggregates one pass. Updated also counts fresh installs and,
// on dry runs, updates that would have happened.
type PassResult struct {
	Updated  int
	Failed   int
	UpToDate int
	Skipped  int
	Outcomes []Outcome
}

func (r *PassResult) add(out Outcome) {
	r.Outcomes = append(r.Outcomes, out)
	switch out.Status {
	case StatusUpToDate:
		r.UpToDate++
	case StatusUpdateAvailable, StatusUpdated, StatusInstalled:
		r.Updated++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

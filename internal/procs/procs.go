// Package procs answers whether named executables are currently running.
package procs

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Inspector reports the PIDs of running processes matching a set of
// executable names.
type Inspector interface {
	FindRunning(names []string) ([]int32, error)
}

// System inspects the live process table.
type System struct{}

// FindRunning returns the PIDs of processes whose executable name matches
// any of names, compared case-insensitively. Processes that vanish or deny
// access mid-scan are skipped.
func (System) FindRunning(names []string) ([]int32, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var pids []int32
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		if wanted[strings.ToLower(name)] {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

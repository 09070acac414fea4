// Package proclist enumerates and names live processes for whole-system
// scans.
package proclist

import (
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// PIDs returns all live process IDs, sorted ascending.
func PIDs() ([]int32, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}
	slices.Sort(pids)
	return pids, nil
}

// Name returns the short process name, or "unknown" when the process is
// gone or unreadable.
func Name(pid int32) string {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "unknown"
	}
	name, err := p.Name()
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

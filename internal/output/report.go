package output

import (
	"memc/internal/region"
)

// SystemReport aggregates one snapshot per scanned process, plus the
// processes that could not be read (typically due to permissions).
type SystemReport struct {
	TimestampMS int64
	Processes   []ProcessEntry
	Skipped     []ProcessRef
}

// ProcessEntry pairs a process identity with its snapshot.
type ProcessEntry struct {
	PID      int32
	Name     string
	Snapshot *region.Snapshot
}

// ProcessRef identifies a process without snapshot data.
type ProcessRef struct {
	PID  int32  `json:"pid"`
	Name string `json:"name"`
}

type processEntryJSON struct {
	PID      int32        `json:"pid"`
	Name     string       `json:"name"`
	Snapshot snapshotJSON `json:"snapshot"`
}

type systemReportJSON struct {
	TimestampMS  int64              `json:"timestamp_ms"`
	ProcessCount int                `json:"process_count"`
	Processes    []processEntryJSON `json:"processes"`
	SkippedCount int                `json:"skipped_count"`
	Skipped      []ProcessRef       `json:"skipped_processes"`
}

// RenderSystemReport serializes a whole-system scan result.
func RenderSystemReport(rep *SystemReport, pretty bool) (string, error) {
	processes := make([]processEntryJSON, 0, len(rep.Processes))
	for _, p := range rep.Processes {
		processes = append(processes, processEntryJSON{
			PID:      p.PID,
			Name:     p.Name,
			Snapshot: snapshotDoc(p.Snapshot),
		})
	}

	doc := systemReportJSON{
		TimestampMS:  rep.TimestampMS,
		ProcessCount: len(rep.Processes),
		Processes:    processes,
		SkippedCount: len(rep.Skipped),
		Skipped:      rep.Skipped,
	}
	return marshal(doc, pretty)
}

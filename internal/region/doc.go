// Package region defines the memory-mapping data model shared by all of
// memc: Region, RegionType, and Snapshot.
//
// A Region is one virtual memory area parsed from a /proc/<pid>/maps line,
// optionally enriched with per-page residency statistics from smaps. A
// Snapshot is one timestamped capture of a process's full region list, in
// kernel-reported order.
//
// Classification (Classify) is a pure function of the mapping's pathname
// and permission string, so it can be tested exhaustively without touching
// the OS.
package region

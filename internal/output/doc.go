// Package output renders snapshots into their canonical JSON form and
// writes results to a file or stdout.
//
// The JSON layout is the collector's wire format: per region an ordered
// object with hexadecimal start/end strings, classification, permissions,
// size in kilobytes, the pathname when present, and the seven residency
// fields only when the region carries smaps detail; per snapshot a record
// with pid, timestamp, aggregate totals, region count, and the ordered
// region array. SystemReport aggregates one entry per process for
// whole-system scans.
package output

// Package procmaps parses the kernel's per-process memory-map listings.
//
// Two sources are supported:
//
//   - /proc/<pid>/maps: one line per mapping with address range,
//     permissions, offset, device, inode, and pathname (Parse, ParseString).
//   - /proc/<pid>/smaps: the same header lines interleaved with
//     "Key: value kB" residency detail lines (ParseSmaps, ParseSmapsString).
//
// Both sources can be permission-restricted independently, so Enrich treats
// a missing smaps as its own failure rather than invalidating a maps parse
// that already succeeded.
//
// Parsing is deliberately lenient at the line level: blank lines are
// skipped and structurally malformed lines are dropped without failing the
// whole listing, since kernel listings may contain transient or unusual
// entries. Only an unreadable source file is an error.
package procmaps

package procmaps

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"memc/internal/region"
)

// Scanner buffer large enough for mappings with very long pathnames.
const maxLineSize = 1024 * 1024

// Parse reads /proc/<pid>/maps and returns the regions in kernel order.
// It fails only when the maps file itself cannot be read (process gone or
// access denied); an empty result is valid, since kernel threads have no
// user-space mappings.
func Parse(pid int32) ([]region.Region, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, fmt.Errorf("failed to read maps for pid %d: %w", pid, err)
	}
	return ParseString(string(data)), nil
}

// ParseString parses maps-format text. Blank lines are skipped and
// malformed lines are silently dropped.
func ParseString(content string) []region.Region {
	var regions []region.Region

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if r, ok := ParseLine(line); ok {
			regions = append(regions, r)
		}
	}

	return regions
}

// ParseLine parses a single maps line, e.g.
//
//	7f2c5c000000-7f2c5c021000 rw-p 00000000 00:00 0  [heap]
//
// The six leading fields (hex start, hex end, permissions, hex offset,
// device, decimal inode) are mandatory; everything after the inode, with
// surrounding whitespace trimmed, is the pathname and may be empty.
// Returns ok=false when any of the six fields is missing or unparseable.
func ParseLine(line string) (region.Region, bool) {
	var r region.Region

	fields := strings.Fields(line)
	if len(fields) < 5 {
		return r, false
	}

	startStr, endStr, found := strings.Cut(fields[0], "-")
	if !found {
		return r, false
	}

	start, err := strconv.ParseUint(startStr, 16, 64)
	if err != nil {
		return r, false
	}
	end, err := strconv.ParseUint(endStr, 16, 64)
	if err != nil {
		return r, false
	}
	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return r, false
	}
	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return r, false
	}

	r.StartAddr = start
	r.EndAddr = end
	r.Permissions = fields[1]
	r.Offset = offset
	r.Device = fields[3]
	r.Inode = inode
	r.Pathname = pathnameAfterFields(line)

	r.Type = region.Classify(r.Pathname, r.Permissions)
	r.SizeKB = r.SizeBytes() / 1024

	return r, true
}

// pathnameAfterFields returns the trimmed remainder of a maps line after
// its five whitespace-separated leading fields. The pathname is kept as a
// single token even when it contains spaces (e.g. deleted-file markers).
func pathnameAfterFields(line string) string {
	rest := line
	for i := 0; i < 5; i++ {
		rest = strings.TrimLeft(rest, " \t")
		cut := strings.IndexAny(rest, " \t")
		if cut < 0 {
			return ""
		}
		rest = rest[cut:]
	}
	return strings.TrimSpace(rest)
}

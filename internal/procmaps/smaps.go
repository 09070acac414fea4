package procmaps

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"memc/internal/region"
)

// ParseSmaps reads /proc/<pid>/smaps and returns detail-enriched regions.
// It fails only when the smaps file itself cannot be read.
func ParseSmaps(pid int32) ([]region.Region, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/smaps", pid))
	if err != nil {
		return nil, fmt.Errorf("failed to read smaps for pid %d: %w", pid, err)
	}
	return ParseSmapsString(string(data)), nil
}

// ParseSmapsString parses smaps-format text. Each block starts with a
// header line in maps format (recognized by its leading hex digit) and is
// followed by "Key: value kB" detail lines until the next header.
// Unrecognized keys are ignored, as are detail lines that appear before
// any header.
func ParseSmapsString(content string) []region.Region {
	var regions []region.Region

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if isHexDigit(line[0]) {
			if r, ok := ParseLine(line); ok {
				r.HasDetail = true
				regions = append(regions, r)
			}
			continue
		}

		if len(regions) == 0 {
			// Detail line with no current region to attach to.
			continue
		}
		applyDetailLine(line, &regions[len(regions)-1])
	}

	return regions
}

// Enrich merges freshly read smaps data into regions parsed from maps,
// matching entries by start address. Regions with no smaps counterpart are
// left untouched. Fails only when smaps itself cannot be read; partial or
// zero matches are not failures.
func Enrich(pid int32, regions []region.Region) error {
	detailed, err := ParseSmaps(pid)
	if err != nil {
		return err
	}
	EnrichFrom(detailed, regions)
	return nil
}

// EnrichFrom copies the residency fields of each detailed region into the
// region of regions with the same start address, and marks it
// detail-present. The maps-derived SizeKB is kept as-is.
func EnrichFrom(detailed, regions []region.Region) {
	byStart := make(map[uint64]*region.Region, len(detailed))
	for i := range detailed {
		byStart[detailed[i].StartAddr] = &detailed[i]
	}

	for i := range regions {
		d, ok := byStart[regions[i].StartAddr]
		if !ok {
			continue
		}
		r := &regions[i]
		r.RSSKB = d.RSSKB
		r.PSSKB = d.PSSKB
		r.SharedCleanKB = d.SharedCleanKB
		r.SharedDirtyKB = d.SharedDirtyKB
		r.PrivateCleanKB = d.PrivateCleanKB
		r.PrivateDirtyKB = d.PrivateDirtyKB
		r.SwapKB = d.SwapKB
		r.HasDetail = true
	}
}

// applyDetailLine parses one "Key: value kB" line and sets the matching
// kilobyte field. Keys are matched case-sensitively; unknown keys are
// ignored so newer kernels with extra fields keep working.
func applyDetailLine(line string, r *region.Region) {
	key, rest, found := strings.Cut(line, ":")
	if !found {
		return
	}

	var value uint64
	if tokens := strings.Fields(rest); len(tokens) > 0 {
		value, _ = strconv.ParseUint(tokens[0], 10, 64)
	}

	switch key {
	case "Size":
		r.SizeKB = value
	case "Rss":
		r.RSSKB = value
	case "Pss":
		r.PSSKB = value
	case "Shared_Clean":
		r.SharedCleanKB = value
	case "Shared_Dirty":
		r.SharedDirtyKB = value
	case "Private_Clean":
		r.PrivateCleanKB = value
	case "Private_Dirty":
		r.PrivateDirtyKB = value
	case "Swap":
		r.SwapKB = value
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

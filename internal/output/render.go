package output

import (
	"encoding/json"
	"fmt"

	"memc/internal/region"
)

// regionJSON is the canonical per-region representation. Field order is
// the output key order.
type regionJSON struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Type     string `json:"type"`
	Perm     string `json:"perm"`
	SizeKB   uint64 `json:"size_kb"`
	Pathname string `json:"pathname,omitempty"`

	// nil unless the region carries smaps detail; a nil embedded struct
	// omits all seven fields at once.
	*residencyJSON
}

type residencyJSON struct {
	RSSKB          uint64 `json:"rss_kb"`
	PSSKB          uint64 `json:"pss_kb"`
	SharedCleanKB  uint64 `json:"shared_clean_kb"`
	SharedDirtyKB  uint64 `json:"shared_dirty_kb"`
	PrivateCleanKB uint64 `json:"private_clean_kb"`
	PrivateDirtyKB uint64 `json:"private_dirty_kb"`
	SwapKB         uint64 `json:"swap_kb"`
}

type snapshotJSON struct {
	PID          int32        `json:"pid"`
	TimestampMS  int64        `json:"timestamp_ms"`
	TotalRSSKB   uint64       `json:"total_rss_kb"`
	TotalVSizeKB uint64       `json:"total_vsize_kb"`
	RegionCount  int          `json:"region_count"`
	Regions      []regionJSON `json:"regions"`
}

func regionDoc(r *region.Region) regionJSON {
	doc := regionJSON{
		Start:    fmt.Sprintf("0x%x", r.StartAddr),
		End:      fmt.Sprintf("0x%x", r.EndAddr),
		Type:     r.Type.String(),
		Perm:     r.Permissions,
		SizeKB:   r.SizeBytes() / 1024,
		Pathname: r.Pathname,
	}
	if r.HasDetail {
		doc.residencyJSON = &residencyJSON{
			RSSKB:          r.RSSKB,
			PSSKB:          r.PSSKB,
			SharedCleanKB:  r.SharedCleanKB,
			SharedDirtyKB:  r.SharedDirtyKB,
			PrivateCleanKB: r.PrivateCleanKB,
			PrivateDirtyKB: r.PrivateDirtyKB,
			SwapKB:         r.SwapKB,
		}
	}
	return doc
}

func snapshotDoc(s *region.Snapshot) snapshotJSON {
	regions := make([]regionJSON, 0, len(s.Regions))
	for i := range s.Regions {
		regions = append(regions, regionDoc(&s.Regions[i]))
	}
	return snapshotJSON{
		PID:          s.PID,
		TimestampMS:  s.TimestampMS,
		TotalRSSKB:   s.TotalRSSKB(),
		TotalVSizeKB: s.TotalVSizeKB(),
		RegionCount:  len(s.Regions),
		Regions:      regions,
	}
}

// RenderSnapshot serializes one snapshot, pretty-printed or compact.
func RenderSnapshot(s *region.Snapshot, pretty bool) (string, error) {
	return marshal(snapshotDoc(s), pretty)
}

func marshal(v any, pretty bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal output: %w", err)
	}
	return string(data), nil
}

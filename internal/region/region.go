package region

// RegionType classifies a memory mapping by its role in the process.
type RegionType int

// The closed set of region categories. Unknown is the zero value.
const (
	Unknown RegionType = iota
	Heap
	Stack
	Code
	SharedLib
	VDSO
	VVar
	VSyscall
	MappedFile
	Anonymous
)

// String returns the canonical lowercase name used in JSON output.
func (t RegionType) String() string {
	switch t {
	case Heap:
		return "heap"
	case Stack:
		return "stack"
	case Code:
		return "code"
	case SharedLib:
		return "shared_lib"
	case VDSO:
		return "vdso"
	case VVar:
		return "vvar"
	case VSyscall:
		return "vsyscall"
	case MappedFile:
		return "mapped_file"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Region is a single virtual memory area reported for a process.
//
// The first block of fields comes from /proc/<pid>/maps and is set once at
// parse time. The kilobyte fields below it come from /proc/<pid>/smaps and
// are meaningful only when HasDetail is true; consumers must ignore them
// otherwise.
type Region struct {
	StartAddr   uint64
	EndAddr     uint64
	Permissions string
	Offset      uint64
	Device      string
	Inode       uint64
	Pathname    string

	Type RegionType

	SizeKB         uint64
	RSSKB          uint64
	PSSKB          uint64
	SharedCleanKB  uint64
	SharedDirtyKB  uint64
	PrivateCleanKB uint64
	PrivateDirtyKB uint64
	SwapKB         uint64

	HasDetail bool
}

// SizeBytes returns the virtual extent of the mapping (EndAddr - StartAddr).
func (r *Region) SizeBytes() uint64 {
	return r.EndAddr - r.StartAddr
}

// Snapshot is one observation of a process's full mapping list.
// Regions preserve kernel-reported order. A Snapshot is immutable once
// assembled.
type Snapshot struct {
	PID         int32
	TimestampMS int64
	Regions     []Region
}

// TotalRSSKB sums resident sizes across all regions. The result is only
// meaningful when the snapshot was collected with residency detail.
func (s *Snapshot) TotalRSSKB() uint64 {
	var total uint64
	for i := range s.Regions {
		total += s.Regions[i].RSSKB
	}
	return total
}

// TotalVSizeKB sums the virtual extent of all regions, in kilobytes.
func (s *Snapshot) TotalVSizeKB() uint64 {
	var total uint64
	for i := range s.Regions {
		total += s.Regions[i].SizeBytes()
	}
	return total / 1024
}

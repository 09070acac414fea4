// Package config parses command-line options and environment defaults for
// the memc CLI.
package config

import (
	"fmt"
	"strconv"
	"time"

	"memc/internal/collector"
)

// Options holds the parsed command-line configuration.
type Options struct {
	// PID is the target process (0 in --all mode).
	PID int32
	// AllMode snapshots every process on the system.
	AllMode bool
	// SkipKernel drops kernel threads (no user-space mappings) in --all mode.
	SkipKernel bool
	// Count is the number of samples to take (1 = single, 0 = continuous).
	Count int
	// OutputFile receives the JSON output (empty = stdout).
	OutputFile string
	// FilterExpr keeps only regions matching this expression (empty = all).
	FilterExpr string
	// Collector is forwarded to collector.New.
	Collector collector.Config

	ShowHelp    bool
	ShowVersion bool
}

// ParseArgs parses command-line arguments into Options. args is the full
// argv including the program name. Defaults come from the environment
// (see EnvDefaults); flags override them.
func ParseArgs(args []string) (*Options, error) {
	defaults, err := EnvDefaults()
	if err != nil {
		return nil, err
	}

	opts := &Options{
		Count: 1,
		Collector: collector.Config{
			UseSmaps:     defaults.UseSmaps,
			Interval:     time.Duration(defaults.IntervalMS) * time.Millisecond,
			MaxSnapshots: defaults.MaxSnapshots,
			PrettyJSON:   !defaults.Compact,
		},
	}

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			opts.ShowHelp = true
			return opts, nil
		case "--version", "-v":
			opts.ShowVersion = true
			return opts, nil
		case "--all":
			opts.AllMode = true
		case "--smaps":
			opts.Collector.UseSmaps = true
		case "--skip-kernel":
			opts.SkipKernel = true
		case "--compact":
			opts.Collector.PrettyJSON = false
		case "--output", "-o":
			value, err := flagValue(args, &i)
			if err != nil {
				return nil, err
			}
			opts.OutputFile = value
		case "--filter":
			value, err := flagValue(args, &i)
			if err != nil {
				return nil, err
			}
			opts.FilterExpr = value
		case "--interval":
			value, err := flagValue(args, &i)
			if err != nil {
				return nil, err
			}
			ms, err := strconv.Atoi(value)
			if err != nil || ms <= 0 {
				return nil, fmt.Errorf("interval must be a positive number of milliseconds, got %q", value)
			}
			opts.Collector.Interval = time.Duration(ms) * time.Millisecond
		case "--count":
			value, err := flagValue(args, &i)
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("count must be a non-negative number, got %q", value)
			}
			opts.Count = n
		default:
			if opts.PID == 0 && !opts.AllMode {
				pid, err := strconv.ParseInt(args[i], 10, 32)
				if err != nil || pid <= 0 {
					return nil, fmt.Errorf("invalid PID %q", args[i])
				}
				opts.PID = int32(pid)
				continue
			}
			return nil, fmt.Errorf("unknown argument %q", args[i])
		}
	}

	if !opts.AllMode && opts.PID == 0 {
		return nil, fmt.Errorf("PID is required (or use --all)")
	}

	return opts, nil
}

// flagValue returns the value following the flag at *i, advancing the
// index past it.
func flagValue(args []string, i *int) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("%s requires a value", args[*i])
	}
	*i++
	return args[*i], nil
}

// Usage returns the help text for the given program name.
func Usage(prog string) string {
	return fmt.Sprintf(`Usage: %[1]s <pid> [options]
       %[1]s --all [options]

Memory region data collector for Linux processes.
Reads /proc/<pid>/maps (and optionally smaps) and outputs JSON.

Options:
  --all            Snapshot ALL processes on the system
  --smaps          Enable detailed smaps data (RSS, PSS, swap, etc.)
  --interval <ms>  Sampling interval in milliseconds (default: 1000)
  --count <n>      Number of samples to take (default: 1, 0 = continuous)
  --filter <expr>  Keep only regions matching an expression,
                   e.g. 'type == "heap" || rss_kb > 1024'
  --compact        Output compact JSON (default: pretty-printed)
  --output <file>  Write JSON to a file instead of stdout
  --skip-kernel    Skip kernel threads with no user-space memory
  --version        Show version information
  --help           Show this help message

Examples:
  %[1]s 1234                           # Single snapshot of PID 1234
  %[1]s 1234 --smaps                   # With detailed memory info
  %[1]s --all --smaps                  # All processes with smaps
  %[1]s --all --output system.json     # Save to file
  %[1]s 1234 --count 0 --interval 500  # Continuous, every 500ms
  %[1]s $$                             # Monitor the current shell
`, prog)
}

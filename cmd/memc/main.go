// memc is a memory-map collector for Linux processes. It reads
// /proc/<pid>/maps (and optionally smaps), classifies each mapping, and
// outputs JSON snapshots: once, periodically, or for every process on the
// system.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memc/internal/collector"
	"memc/internal/config"
	"memc/internal/filter"
	"memc/internal/otel"
	"memc/internal/output"
	"memc/internal/proclist"
	"memc/internal/region"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(args []string) error {
	opts, err := config.ParseArgs(args)
	if err != nil {
		fmt.Fprint(os.Stderr, config.Usage(args[0]))
		return err
	}
	if opts.ShowHelp {
		fmt.Fprint(os.Stderr, config.Usage(args[0]))
		return nil
	}
	if opts.ShowVersion {
		fmt.Printf("memc %s (%s, %s)\n", version, commit, date)
		return nil
	}

	var regionFilter *filter.Filter
	if opts.FilterExpr != "" {
		regionFilter, err = filter.New(opts.FilterExpr)
		if err != nil {
			return err
		}
	}

	cleanup, err := setupTracing()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.AllMode {
		return runAllMode(ctx, opts, regionFilter)
	}
	return runSinglePID(ctx, opts, regionFilter)
}

// setupTracing installs the OTLP tracer provider when an endpoint is
// configured, and returns a cleanup function. Without an endpoint the
// global noop tracer stays in place.
func setupTracing() (func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, err
	}
	if !otelCfg.Enabled() {
		return func() {}, nil
	}

	tp, err := otel.InitProvider(otelCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			log.Printf("Error shutting down OTEL provider: %v", err)
		}
	}, nil
}

// runSinglePID handles one-shot and periodic collection of a single
// process.
func runSinglePID(ctx context.Context, opts *config.Options, regionFilter *filter.Filter) error {
	c := collector.New(opts.PID, opts.Collector)

	if opts.Count == 1 {
		snap, err := c.CollectOnce(ctx)
		if err != nil {
			return fmt.Errorf("failed to read /proc/%d/maps (check that the process exists and you have permission): %w",
				opts.PID, err)
		}
		jsonStr, err := c.ToJSON(applyFilter(regionFilter, snap))
		if err != nil {
			return err
		}
		return output.Write(jsonStr, opts.OutputFile)
	}

	continuous := opts.Count == 0
	hint := ""
	if continuous {
		hint = " (Ctrl+C to stop)"
	}
	log.Printf("Sampling PID %d every %s%s%s...", opts.PID, opts.Collector.Interval, smapsSuffix(opts), hint)

	samplesTaken := 0
	for ctx.Err() == nil {
		snap, err := c.CollectOnce(ctx)
		if err != nil {
			log.Printf("Warning: failed to read process %d, it may have exited.", opts.PID)
			break
		}

		jsonStr, err := c.ToJSON(applyFilter(regionFilter, snap))
		if err != nil {
			return err
		}
		fmt.Println(jsonStr)
		samplesTaken++

		if !continuous && samplesTaken >= opts.Count {
			break
		}

		select {
		case <-ctx.Done():
		case <-time.After(opts.Collector.Interval):
		}
	}

	log.Printf("Collected %d snapshot(s).", samplesTaken)
	return nil
}

// runAllMode snapshots every process on the system into one report.
func runAllMode(ctx context.Context, opts *config.Options, regionFilter *filter.Filter) error {
	pids, err := proclist.PIDs()
	if err != nil {
		return err
	}
	log.Printf("Scanning %d processes%s...", len(pids), smapsSuffix(opts))

	report := &output.SystemReport{TimestampMS: time.Now().UnixMilli()}
	for _, pid := range pids {
		if ctx.Err() != nil {
			break
		}

		c := collector.New(pid, opts.Collector)
		snap, err := c.CollectOnce(ctx)
		if err != nil {
			report.Skipped = append(report.Skipped, output.ProcessRef{PID: pid, Name: proclist.Name(pid)})
			continue
		}
		if opts.SkipKernel && len(snap.Regions) == 0 {
			continue
		}

		report.Processes = append(report.Processes, output.ProcessEntry{
			PID:      pid,
			Name:     proclist.Name(pid),
			Snapshot: applyFilter(regionFilter, snap),
		})
	}

	log.Printf("Collected %d process snapshots (%d skipped due to permissions).",
		len(report.Processes), len(report.Skipped))

	jsonStr, err := output.RenderSystemReport(report, opts.Collector.PrettyJSON)
	if err != nil {
		return err
	}
	return output.Write(jsonStr, opts.OutputFile)
}

func applyFilter(f *filter.Filter, snap *region.Snapshot) *region.Snapshot {
	if f == nil {
		return snap
	}
	return f.Apply(snap)
}

func smapsSuffix(opts *config.Options) string {
	if opts.Collector.UseSmaps {
		return " (with smaps)"
	}
	return ""
}

// Package collector assembles point-in-time memory snapshots for one
// process and fronts the periodic sampling session.
package collector

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"memc/internal/output"
	"memc/internal/procmaps"
	"memc/internal/region"
	"memc/internal/sampler"
)

// Config controls snapshot collection.
type Config struct {
	// UseSmaps enables per-page residency detail (more overhead, and
	// smaps may be restricted independently of maps).
	UseSmaps bool
	// Interval between periodic samples.
	Interval time.Duration
	// MaxSnapshots bounds the sampling history; 0 = unbounded.
	MaxSnapshots int
	// PrettyJSON selects indented output from ToJSON.
	PrettyJSON bool
}

// Collector ties together parsing, sampling, and output for one process.
//
// Usage:
//
//	c := collector.New(pid, collector.Config{UseSmaps: true})
//	snap, err := c.CollectOnce(ctx)
//
// or, for a periodic session:
//
//	c.StartSampling()
//	defer c.StopSampling()
type Collector struct {
	pid     int32
	cfg     Config
	sampler *sampler.Sampler
	tracer  trace.Tracer
}

// New creates a collector for the given process.
func New(pid int32, cfg Config) *Collector {
	return &Collector{
		pid:    pid,
		cfg:    cfg,
		tracer: otel.Tracer("memc/collector"),
	}
}

// PID returns the process ID being monitored.
func (c *Collector) PID() int32 { return c.pid }

// CollectOnce takes a single snapshot, stamped with the current wall-clock
// time. An unreadable maps listing fails the whole snapshot; that is the
// definitive "process unreachable" signal. An unreadable smaps listing
// does not: the snapshot is returned without residency detail, since smaps
// access can be restricted by kernel configuration independent of maps.
func (c *Collector) CollectOnce(ctx context.Context) (*region.Snapshot, error) {
	_, span := c.tracer.Start(ctx, "memc.collect",
		trace.WithAttributes(attribute.Int("memc.pid", int(c.pid))))
	defer span.End()

	snap := &region.Snapshot{
		PID:         c.pid,
		TimestampMS: time.Now().UnixMilli(),
	}

	regions, err := procmaps.Parse(c.pid)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	snap.Regions = regions

	if c.cfg.UseSmaps {
		if err := procmaps.Enrich(c.pid, snap.Regions); err != nil {
			span.AddEvent("smaps unavailable, snapshot kept without detail")
		}
	}

	span.SetAttributes(
		attribute.Int("memc.region_count", len(snap.Regions)),
		attribute.Int64("memc.total_rss_kb", int64(snap.TotalRSSKB())),
	)
	return snap, nil
}

// ToJSON serializes a snapshot according to the collector's output
// configuration.
func (c *Collector) ToJSON(snap *region.Snapshot) (string, error) {
	return output.RenderSnapshot(snap, c.cfg.PrettyJSON)
}

// StartSampling begins periodic background collection. Does nothing when a
// sampling session is already active.
func (c *Collector) StartSampling() {
	if c.sampler != nil && c.sampler.IsRunning() {
		return
	}
	c.sampler = sampler.New(sampler.Config{
		PID:          c.pid,
		Interval:     c.cfg.Interval,
		MaxSnapshots: c.cfg.MaxSnapshots,
	}, c)
	c.sampler.Start()
}

// StopSampling stops the background session, blocking until the loop has
// exited. Does nothing when no session is active.
func (c *Collector) StopSampling() {
	if c.sampler != nil {
		c.sampler.Stop()
	}
}

// IsSampling reports whether a periodic session is currently running.
func (c *Collector) IsSampling() bool {
	return c.sampler != nil && c.sampler.IsRunning()
}

// Snapshots returns a copy of the history collected by the current
// session, oldest first. Empty when no session was ever started.
func (c *Collector) Snapshots() []*region.Snapshot {
	if c.sampler == nil {
		return nil
	}
	return c.sampler.Snapshots()
}

// Latest returns the most recent snapshot of the current session, or nil.
func (c *Collector) Latest() *region.Snapshot {
	if c.sampler == nil {
		return nil
	}
	return c.sampler.Latest()
}

// OnSnapshot registers an observer on the active sampling session. The
// callback is dropped when no session exists yet.
func (c *Collector) OnSnapshot(cb sampler.SnapshotCallback) {
	if c.sampler != nil {
		c.sampler.OnSnapshot(cb)
	}
}

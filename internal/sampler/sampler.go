package sampler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"memc/internal/region"
)

// pollSlice bounds how long Stop can lag behind the running flag: the
// inter-tick sleep happens in slices of this length, re-checking the flag
// between slices.
const pollSlice = 50 * time.Millisecond

// Source produces point-in-time snapshots for the sampling loop.
type Source interface {
	CollectOnce(ctx context.Context) (*region.Snapshot, error)
}

// SnapshotCallback is invoked with each new snapshot. The snapshot is
// shared and must be treated as read-only.
type SnapshotCallback func(*region.Snapshot)

// Config for a Sampler.
type Config struct {
	// PID stamps best-effort placeholder snapshots when the source fails.
	PID int32
	// Interval between ticks. Non-positive values fall back to one second.
	Interval time.Duration
	// MaxSnapshots bounds the history buffer; 0 means unbounded. When the
	// buffer is full the oldest snapshot is evicted first.
	MaxSnapshots int
}

// Sampler periodically pulls snapshots from a Source and stores them in a
// bounded FIFO history.
type Sampler struct {
	cfg    Config
	source Source

	running atomic.Bool
	done    chan struct{}

	mu        sync.Mutex
	snapshots []*region.Snapshot
	callbacks []SnapshotCallback
}

// New creates an idle sampler.
func New(cfg Config, source Source) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &Sampler{cfg: cfg, source: source}
}

// Start spawns the background loop. Starting an already-running sampler is
// a no-op.
func (s *Sampler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.done = make(chan struct{})
	go s.loop()
}

// Stop clears the running flag and blocks until the loop has exited.
// After Stop returns, no callback fires and the history is no longer
// mutated. Stopping an idle sampler is a no-op.
func (s *Sampler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	<-s.done
}

// IsRunning reports whether the background loop is active.
func (s *Sampler) IsRunning() bool {
	return s.running.Load()
}

// OnSnapshot registers a callback invoked after each new snapshot, in
// registration order, while the history lock is held.
func (s *Sampler) OnSnapshot(cb SnapshotCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Count returns the number of snapshots currently held.
func (s *Sampler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// Snapshots returns a copy of the history, oldest first. Snapshots
// themselves are immutable once collected, so sharing them is safe.
func (s *Sampler) Snapshots() []*region.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*region.Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}

// Latest returns the most recent snapshot, or nil when none exist yet.
func (s *Sampler) Latest() *region.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snapshots) == 0 {
		return nil
	}
	return s.snapshots[len(s.snapshots)-1]
}

// loop is the sampling loop body. It runs until the running flag is
// cleared and signals full exit by closing done.
func (s *Sampler) loop() {
	defer close(s.done)

	for s.running.Load() {
		snap := s.takeSnapshot()

		s.mu.Lock()
		if s.cfg.MaxSnapshots > 0 && len(s.snapshots) >= s.cfg.MaxSnapshots {
			s.snapshots = s.snapshots[1:]
		}
		s.snapshots = append(s.snapshots, snap)
		for _, cb := range s.callbacks {
			s.invoke(cb, snap)
		}
		s.mu.Unlock()

		s.sleepInterval()
	}
}

// takeSnapshot pulls one snapshot from the source. A failing source (the
// process may have died mid-sample) yields an empty placeholder stamped
// with pid and time instead of aborting the loop; sampling continues
// through transient unreadability.
func (s *Sampler) takeSnapshot() *region.Snapshot {
	snap, err := s.source.CollectOnce(context.Background())
	if err != nil {
		return &region.Snapshot{PID: s.cfg.PID, TimestampMS: time.Now().UnixMilli()}
	}
	return snap
}

// invoke runs one callback, recovering panics so a faulty observer cannot
// kill the loop or corrupt the history.
func (s *Sampler) invoke(cb SnapshotCallback, snap *region.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("snapshot callback panicked: %v", r)
		}
	}()
	cb(snap)
}

// sleepInterval waits out the configured interval in pollSlice increments,
// returning early once the running flag is cleared.
func (s *Sampler) sleepInterval() {
	deadline := time.Now().Add(s.cfg.Interval)
	for s.running.Load() && time.Now().Before(deadline) {
		time.Sleep(pollSlice)
	}
}

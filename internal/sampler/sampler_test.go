package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memc/internal/region"
)

// fakeSource hands out numbered snapshots and can be switched into a
// failing mode.
type fakeSource struct {
	mu   sync.Mutex
	n    int
	fail bool
}

func (f *fakeSource) CollectOnce(_ context.Context) (*region.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("process gone")
	}
	f.n++
	return &region.Snapshot{
		PID:         1234,
		TimestampMS: int64(f.n),
		Regions:     []region.Region{{StartAddr: 0x1000, EndAddr: 0x2000}},
	}, nil
}

func (f *fakeSource) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func waitForCount(t *testing.T, s *Sampler, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Count() >= n },
		5*time.Second, 5*time.Millisecond)
}

func TestSampler_StartStop(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})

	assert.False(t, s.IsRunning())
	s.Start()
	assert.True(t, s.IsRunning())
	waitForCount(t, s, 1)
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestSampler_StartWhileRunningIsNoop(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	s.Start()
	defer s.Stop()

	s.Start() // must not spawn a second loop
	waitForCount(t, s, 2)

	snaps := s.Snapshots()
	for i := 1; i < len(snaps); i++ {
		assert.Less(t, snaps[i-1].TimestampMS, snaps[i].TimestampMS,
			"a second loop would interleave duplicate sequence numbers")
	}
}

func TestSampler_StopWhileIdleIsNoop(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	s.Stop()
	s.Start()
	waitForCount(t, s, 1)
	s.Stop()
	s.Stop()
}

func TestSampler_NoMutationAfterStop(t *testing.T) {
	var fired int
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	s.OnSnapshot(func(*region.Snapshot) { fired++ })

	s.Start()
	waitForCount(t, s, 2)
	s.Stop()

	count := s.Count()
	firedAtStop := fired
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, count, s.Count(), "history must not grow after Stop returns")
	assert.Equal(t, firedAtStop, fired, "no callback may fire after Stop returns")
}

func TestSampler_FIFOEviction(t *testing.T) {
	const maxSnapshots = 3
	s := New(Config{PID: 1234, Interval: time.Millisecond, MaxSnapshots: maxSnapshots}, &fakeSource{})

	s.Start()
	// Count is capped at capacity, so wait on the sequence stamp instead.
	require.Eventually(t, func() bool {
		latest := s.Latest()
		return latest != nil && latest.TimestampMS >= int64(maxSnapshots+3)
	}, 5*time.Second, 5*time.Millisecond)
	s.Stop()

	snaps := s.Snapshots()
	require.Len(t, snaps, maxSnapshots, "capacity must never be exceeded")
	for i := 1; i < len(snaps); i++ {
		assert.Equal(t, snaps[i-1].TimestampMS+1, snaps[i].TimestampMS,
			"eviction must drop the oldest snapshots first")
	}
}

func TestSampler_UnboundedHistory(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	s.Start()
	waitForCount(t, s, 5)
	s.Stop()
	assert.GreaterOrEqual(t, s.Count(), 5)
}

func TestSampler_CallbackOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	for _, name := range []string{"first", "second", "third"} {
		s.OnSnapshot(func(*region.Snapshot) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		})
	}

	s.Start()
	waitForCount(t, s, 1)
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(order), 3)
	assert.Equal(t, []string{"first", "second", "third"}, order[:3])
}

func TestSampler_CallbackPanicDoesNotKillLoop(t *testing.T) {
	var delivered int
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	s.OnSnapshot(func(*region.Snapshot) { panic("observer bug") })
	s.OnSnapshot(func(*region.Snapshot) { delivered++ })

	s.Start()
	waitForCount(t, s, 3)
	s.Stop()

	assert.GreaterOrEqual(t, delivered, 3,
		"later observers and later ticks must survive a panicking observer")
}

func TestSampler_PlaceholderOnSourceFailure(t *testing.T) {
	src := &fakeSource{}
	src.setFail(true)
	s := New(Config{PID: 1234, Interval: time.Millisecond}, src)

	s.Start()
	waitForCount(t, s, 2)
	s.Stop()

	for _, snap := range s.Snapshots() {
		assert.Equal(t, int32(1234), snap.PID)
		assert.Empty(t, snap.Regions, "failed samples degrade to empty placeholders")
		assert.NotZero(t, snap.TimestampMS)
	}
}

func TestSampler_RecoversAfterTransientFailure(t *testing.T) {
	src := &fakeSource{}
	src.setFail(true)
	s := New(Config{PID: 1234, Interval: time.Millisecond}, src)

	s.Start()
	waitForCount(t, s, 1)
	src.setFail(false)

	require.Eventually(t, func() bool {
		latest := s.Latest()
		return latest != nil && len(latest.Regions) > 0
	}, 5*time.Second, 5*time.Millisecond, "sampling must continue past transient unreadability")
	s.Stop()
}

func TestSampler_SnapshotsReturnsCopy(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	s.Start()
	waitForCount(t, s, 1)
	defer s.Stop()

	snaps := s.Snapshots()
	snaps[0] = nil
	assert.NotNil(t, s.Latest(), "mutating the returned slice must not affect history")
}

func TestSampler_LatestEmpty(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	assert.Nil(t, s.Latest())
	assert.Zero(t, s.Count())
	assert.Empty(t, s.Snapshots())
}

func TestSampler_Restart(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})

	s.Start()
	waitForCount(t, s, 1)
	s.Stop()
	first := s.Count()

	s.Start()
	waitForCount(t, s, first+1)
	s.Stop()
	assert.Greater(t, s.Count(), first)
}

func TestSampler_ConcurrentReaders(t *testing.T) {
	s := New(Config{PID: 1234, Interval: time.Millisecond}, &fakeSource{})
	s.Start()
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Snapshots()
				_ = s.Latest()
				_ = s.Count()
				_ = s.IsRunning()
			}
		}()
	}
	wg.Wait()
}

func TestSampler_DefaultInterval(t *testing.T) {
	s := New(Config{PID: 1}, &fakeSource{})
	assert.Equal(t, time.Second, s.cfg.Interval)
}

// Guards against the fake itself drifting: snapshots must carry increasing
// sequence stamps.
func TestFakeSource_Sequencing(t *testing.T) {
	src := &fakeSource{}
	for i := 1; i <= 3; i++ {
		snap, err := src.CollectOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(i), snap.TimestampMS, fmt.Sprintf("sample %d", i))
	}
}

package collector

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memc/internal/region"
)

func TestCollectOnce_OwnProcess(t *testing.T) {
	c := New(int32(os.Getpid()), Config{})

	snap, err := c.CollectOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(os.Getpid()), snap.PID)
	assert.NotEmpty(t, snap.Regions)
	assert.InDelta(t, time.Now().UnixMilli(), snap.TimestampMS, 5000)
	for i := range snap.Regions {
		assert.False(t, snap.Regions[i].HasDetail,
			"detail fields must stay flagged absent without UseSmaps")
	}
}

func TestCollectOnce_WithSmaps(t *testing.T) {
	c := New(int32(os.Getpid()), Config{UseSmaps: true})

	snap, err := c.CollectOnce(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, snap.Regions)

	var withDetail int
	for i := range snap.Regions {
		if snap.Regions[i].HasDetail {
			withDetail++
		}
	}
	assert.Positive(t, withDetail, "own smaps should be readable and enrich regions")
	assert.Positive(t, snap.TotalRSSKB(), "a live process has resident pages")
}

func TestCollectOnce_NonexistentProcess(t *testing.T) {
	c := New(-1, Config{})

	snap, err := c.CollectOnce(context.Background())
	assert.Error(t, err)
	assert.Nil(t, snap, "maps failure must not yield a partial snapshot")
}

func TestToJSON(t *testing.T) {
	c := New(int32(os.Getpid()), Config{PrettyJSON: true})
	snap, err := c.CollectOnce(context.Background())
	require.NoError(t, err)

	out, err := c.ToJSON(snap)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.EqualValues(t, os.Getpid(), doc["pid"])
}

func TestSampling_Session(t *testing.T) {
	c := New(int32(os.Getpid()), Config{Interval: 10 * time.Millisecond, MaxSnapshots: 4})

	assert.False(t, c.IsSampling())
	assert.Nil(t, c.Latest())
	assert.Empty(t, c.Snapshots())

	c.StartSampling()
	assert.True(t, c.IsSampling())

	var observed []*region.Snapshot
	c.OnSnapshot(func(s *region.Snapshot) { observed = append(observed, s) })

	require.Eventually(t, func() bool { return len(c.Snapshots()) >= 2 },
		5*time.Second, 5*time.Millisecond)

	c.StopSampling()
	assert.False(t, c.IsSampling())

	snaps := c.Snapshots()
	require.NotEmpty(t, snaps)
	assert.LessOrEqual(t, len(snaps), 4)
	assert.Equal(t, snaps[len(snaps)-1], c.Latest())
	assert.NotEmpty(t, observed)
}

func TestStartSampling_WhileActiveIsNoop(t *testing.T) {
	c := New(int32(os.Getpid()), Config{Interval: 10 * time.Millisecond})
	c.StartSampling()
	defer c.StopSampling()

	first := c.sampler
	c.StartSampling()
	assert.Same(t, first, c.sampler, "an active session must not be replaced")
}

func TestStopSampling_WithoutSessionIsNoop(t *testing.T) {
	c := New(1, Config{})
	c.StopSampling()
	assert.False(t, c.IsSampling())
}

func TestSampling_DeadProcessDegradesToPlaceholders(t *testing.T) {
	c := New(-1, Config{Interval: time.Millisecond})
	c.StartSampling()
	require.Eventually(t, func() bool { return len(c.Snapshots()) >= 2 },
		5*time.Second, 5*time.Millisecond)
	c.StopSampling()

	for _, snap := range c.Snapshots() {
		assert.Equal(t, int32(-1), snap.PID)
		assert.Empty(t, snap.Regions)
	}
}

package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calz1/rushroster-cloud/internal/conf"
	"github.com/calz1/rushroster-cloud/internal/datastore"
)

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func seedDevice(t *testing.T, store datastore.Interface, deviceID string) {
	t.Helper()
	ds := store.(*datastore.SQLiteStore)
	require.NoError(t, ds.DB.Create(&datastore.Device{
		DeviceID:   deviceID,
		APIKeyHash: "hash-" + deviceID,
	}).Error)
}

func seedEvent(t *testing.T, store datastore.Interface, deviceID, naturalKey string, capturedAt time.Time, speed, limit float64) {
	t.Helper()
	inserted, err := store.InsertSpeedEvent(&datastore.SpeedEvent{
		DeviceID:      deviceID,
		NaturalKey:    naturalKey,
		CapturedAt:    capturedAt,
		SpeedKPH:      speed,
		SpeedLimitKPH: limit,
		Speeding:      speed > limit,
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestAggregatorComputesDeviceSummary(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDevice(t, store, "d1")

	day := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	speeds := []float64{30, 35, 40, 45, 50, 55, 60, 65, 70, 75}
	for i, speed := range speeds {
		seedEvent(t, store, "d1", "e"+string(rune('a'+i)), day.Add(time.Duration(i)*time.Hour), speed, 50)
	}

	require.NoError(t, New(store).Run(context.Background(), day))

	summaries, err := store.GetDeviceDailySummaries("d1", 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "2025-05-10", s.Date)
	assert.Equal(t, 10, s.EventCount)
	assert.Equal(t, 5, s.SpeedingCount)
	assert.InDelta(t, 52.5, s.AvgSpeedKPH, 0.001)
	assert.InDelta(t, 75.0, s.MaxSpeedKPH, 0.001)
	// Nearest-rank: p50 of 10 values is the 5th, p85 the 9th.
	assert.InDelta(t, 50.0, s.P50SpeedKPH, 0.001)
	assert.InDelta(t, 70.0, s.P85SpeedKPH, 0.001)
}

func TestAggregatorIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDevice(t, store, "d1")

	day := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	seedEvent(t, store, "d1", "e1", day.Add(time.Hour), 45, 40)
	seedEvent(t, store, "d1", "e2", day.Add(2*time.Hour), 35, 40)

	agg := New(store)
	require.NoError(t, agg.Run(context.Background(), day))

	first, err := store.GetDeviceDailySummaries("d1", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, agg.Run(context.Background(), day))

	second, err := store.GetDeviceDailySummaries("d1", 10)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].EventCount, second[0].EventCount)
	assert.Equal(t, first[0].SpeedingCount, second[0].SpeedingCount)
	assert.InDelta(t, first[0].AvgSpeedKPH, second[0].AvgSpeedKPH, 0.0001)
	assert.InDelta(t, first[0].P85SpeedKPH, second[0].P85SpeedKPH, 0.0001)
	assert.Equal(t, first[0].ID, second[0].ID, "Re-running must update the row, not add one")
}

func TestAggregatorSkipsQuietDevices(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDevice(t, store, "busy")
	seedDevice(t, store, "quiet")

	day := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	seedEvent(t, store, "busy", "e1", day.Add(time.Hour), 45, 40)

	require.NoError(t, New(store).Run(context.Background(), day))

	busySummaries, err := store.GetDeviceDailySummaries("busy", 10)
	require.NoError(t, err)
	assert.Len(t, busySummaries, 1)

	quietSummaries, err := store.GetDeviceDailySummaries("quiet", 10)
	require.NoError(t, err)
	assert.Empty(t, quietSummaries)
}

func TestAggregatorWritesGlobalSummary(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDevice(t, store, "d1")
	seedDevice(t, store, "d2")

	now := time.Now().UTC()
	require.NoError(t, store.UpdateDeviceLastSync("d1", now))
	seedEvent(t, store, "d1", "recent", now.Add(-time.Hour), 55, 40)
	seedEvent(t, store, "d1", "old", now.Add(-72*time.Hour), 55, 40)

	require.NoError(t, New(store).Run(context.Background(), now))

	global, err := store.GetLatestGlobalSummary()
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.Equal(t, int64(2), global.DeviceCount)
	assert.Equal(t, int64(1), global.ActiveDevices)
	assert.Equal(t, int64(2), global.EventCount)
	assert.Equal(t, int64(1), global.EventsLast24h)
	assert.Equal(t, int64(1), global.SpeedingLast24h)
}

func TestPercentileNearestRank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{name: "empty", sorted: nil, p: 85, want: 0},
		{name: "single value", sorted: []float64{42}, p: 85, want: 42},
		{name: "p50 of two", sorted: []float64{10, 20}, p: 50, want: 10},
		{name: "p85 of twenty", sorted: seq(1, 20), p: 85, want: 17},
		{name: "p100", sorted: seq(1, 20), p: 100, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, percentile(tt.sorted, tt.p), 0.0001)
		})
	}
}

func seq(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

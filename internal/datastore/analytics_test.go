package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertDeviceDailySummary(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)

	summary := &DeviceDailySummary{
		DeviceID:      "d1",
		Date:          "2025-05-10",
		EventCount:    12,
		SpeedingCount: 4,
		AvgSpeedKPH:   43.5,
		MaxSpeedKPH:   72.0,
		P50SpeedKPH:   41.0,
		P85SpeedKPH:   58.0,
	}
	require.NoError(t, store.UpsertDeviceDailySummary(summary))

	// Second run with updated figures replaces the row instead of adding one.
	require.NoError(t, store.UpsertDeviceDailySummary(&DeviceDailySummary{
		DeviceID:      "d1",
		Date:          "2025-05-10",
		EventCount:    15,
		SpeedingCount: 5,
		AvgSpeedKPH:   44.0,
		MaxSpeedKPH:   72.0,
		P50SpeedKPH:   42.0,
		P85SpeedKPH:   59.0,
	}))

	summaries, err := store.GetDeviceDailySummaries("d1", 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 15, summaries[0].EventCount)
	assert.InDelta(t, 59.0, summaries[0].P85SpeedKPH, 0.001)
}

func TestGetDeviceDailySummariesOrderAndLimit(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)

	for _, date := range []string{"2025-05-08", "2025-05-10", "2025-05-09"} {
		require.NoError(t, store.UpsertDeviceDailySummary(&DeviceDailySummary{
			DeviceID:   "d1",
			Date:       date,
			EventCount: 1,
		}))
	}

	summaries, err := store.GetDeviceDailySummaries("d1", 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "2025-05-10", summaries[0].Date)
	assert.Equal(t, "2025-05-09", summaries[1].Date)
}

func TestUpsertGlobalSummary(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)

	require.NoError(t, store.UpsertGlobalSummary(&GlobalSummary{
		Date:            "2025-05-10",
		DeviceCount:     3,
		ActiveDevices:   2,
		EventCount:      100,
		EventsLast24h:   40,
		SpeedingLast24h: 9,
	}))
	require.NoError(t, store.UpsertGlobalSummary(&GlobalSummary{
		Date:            "2025-05-10",
		DeviceCount:     3,
		ActiveDevices:   3,
		EventCount:      120,
		EventsLast24h:   60,
		SpeedingLast24h: 14,
	}))

	latest, err := store.GetLatestGlobalSummary()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(120), latest.EventCount)
	assert.Equal(t, int64(3), latest.ActiveDevices)
}

func TestGetLatestGlobalSummaryEmpty(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)

	latest, err := store.GetLatestGlobalSummary()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestEventCountsSince(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	now := time.Now()

	_, err := store.InsertSpeedEvent(makeEvent("d1", "old", now.Add(-48*time.Hour), 55, 40))
	require.NoError(t, err)
	_, err = store.InsertSpeedEvent(makeEvent("d1", "recent-fast", now.Add(-time.Hour), 55, 40))
	require.NoError(t, err)
	_, err = store.InsertSpeedEvent(makeEvent("d1", "recent-slow", now.Add(-time.Hour), 30, 40))
	require.NoError(t, err)

	total, err := store.CountEvents()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	recent, err := store.CountEventsSince(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent)

	speeding, err := store.CountSpeedingEventsSince(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), speeding)
}

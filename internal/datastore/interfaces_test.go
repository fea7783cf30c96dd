package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calz1/rushroster-cloud/internal/conf"
)

// createDatabase initializes a temporary database for testing purposes.
// It ensures the database connection is opened and handles potential errors.
func createDatabase(t *testing.T, settings *conf.Settings) Interface {
	t.Helper()
	if settings == nil {
		settings = &conf.Settings{}
	}
	tempDir := t.TempDir()
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = tempDir + "/test.db"

	dataStore := New(settings)
	require.NotNil(t, dataStore, "Expected a datastore for enabled SQLite output")

	require.NoError(t, dataStore.Open(), "Failed to open database")

	t.Cleanup(func() {
		assert.NoError(t, dataStore.Close(), "Failed to close datastore")
	})

	return dataStore
}

// seedDevice inserts a device row directly for tests that need one.
func seedDevice(t *testing.T, store Interface, deviceID, apiKeyHash string) {
	t.Helper()
	ds := store.(*SQLiteStore)
	require.NoError(t, ds.DB.Create(&Device{
		DeviceID:   deviceID,
		Name:       "test device " + deviceID,
		APIKeyHash: apiKeyHash,
	}).Error)
}

func makeEvent(deviceID, naturalKey string, capturedAt time.Time, speed, limit float64) *SpeedEvent {
	return &SpeedEvent{
		DeviceID:      deviceID,
		NaturalKey:    naturalKey,
		CapturedAt:    capturedAt,
		SpeedKPH:      speed,
		SpeedLimitKPH: limit,
		Speeding:      speed > limit,
		Latitude:      60.17,
		Longitude:     24.94,
	}
}

func TestNewReturnsNilWithoutEnabledOutput(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	assert.Nil(t, New(settings))
}

func TestInsertSpeedEventDeduplicates(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	capturedAt := time.Date(2025, time.May, 10, 8, 0, 0, 0, time.UTC)

	inserted, err := store.InsertSpeedEvent(makeEvent("d1", "e1", capturedAt, 55, 40))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same identity again, even with different measurements.
	inserted, err = store.InsertSpeedEvent(makeEvent("d1", "e1", capturedAt.Add(time.Second), 60, 40))
	require.NoError(t, err)
	assert.False(t, inserted, "Duplicate natural key must not insert a second row")

	count, err := store.CountDeviceEvents("d1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertSpeedEventSameKeyDifferentDevices(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	capturedAt := time.Date(2025, time.May, 10, 8, 0, 0, 0, time.UTC)

	inserted, err := store.InsertSpeedEvent(makeEvent("d1", "e1", capturedAt, 55, 40))
	require.NoError(t, err)
	assert.True(t, inserted)

	// The dedup boundary is per device, not global.
	inserted, err = store.InsertSpeedEvent(makeEvent("d2", "e1", capturedAt, 48, 40))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestGetDeviceEventsPaginationAndFilter(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	base := time.Date(2025, time.May, 10, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		speed := 35.0
		if i%2 == 0 {
			speed = 55.0
		}
		_, err := store.InsertSpeedEvent(makeEvent("d1", "e"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute), speed, 40))
		require.NoError(t, err)
	}

	// Newest first.
	events, err := store.GetDeviceEvents("d1", 2, 0, false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ee", events[0].NaturalKey)
	assert.Equal(t, "ed", events[1].NaturalKey)

	// Second page.
	events, err = store.GetDeviceEvents("d1", 2, 2, false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ec", events[0].NaturalKey)

	// Speeding only.
	events, err = store.GetDeviceEvents("d1", 10, 0, true)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	for _, e := range events {
		assert.True(t, e.Speeding)
	}
}

func TestGetDeviceEventsInRange(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	base := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)

	_, err := store.InsertSpeedEvent(makeEvent("d1", "before", base.Add(-time.Hour), 50, 40))
	require.NoError(t, err)
	_, err = store.InsertSpeedEvent(makeEvent("d1", "inside", base.Add(time.Hour), 50, 40))
	require.NoError(t, err)
	_, err = store.InsertSpeedEvent(makeEvent("d1", "boundary", base.Add(24*time.Hour), 50, 40))
	require.NoError(t, err)

	events, err := store.GetDeviceEventsInRange("d1", base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "inside", events[0].NaturalKey)
}

func TestDeviceLookupByAPIKeyHash(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	seedDevice(t, store, "d1", "abc123hash")

	device, err := store.GetDeviceByAPIKeyHash("abc123hash")
	require.NoError(t, err)
	assert.Equal(t, "d1", device.DeviceID)

	_, err = store.GetDeviceByAPIKeyHash("wronghash")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestUpdateDeviceLastSync(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	seedDevice(t, store, "d1", "h1")

	syncedAt := time.Date(2025, time.May, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.UpdateDeviceLastSync("d1", syncedAt))

	device, err := store.GetDevice("d1")
	require.NoError(t, err)
	require.NotNil(t, device.LastSyncAt)
	assert.WithinDuration(t, syncedAt, *device.LastSyncAt, time.Second)

	assert.ErrorIs(t, store.UpdateDeviceLastSync("unknown", syncedAt), ErrDeviceNotFound)
}

func TestUpdateDeviceHeartbeat(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	seedDevice(t, store, "d1", "h1")

	seenAt := time.Date(2025, time.May, 10, 9, 45, 0, 0, time.UTC)
	require.NoError(t, store.UpdateDeviceHeartbeat("d1", seenAt, "1.4.2"))

	device, err := store.GetDevice("d1")
	require.NoError(t, err)
	require.NotNil(t, device.LastHeartbeatAt)
	assert.Equal(t, "1.4.2", device.FirmwareVersion)

	// Empty firmware version leaves the stored one intact.
	require.NoError(t, store.UpdateDeviceHeartbeat("d1", seenAt.Add(time.Minute), ""))
	device, err = store.GetDevice("d1")
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", device.FirmwareVersion)
}

func TestCountActiveDevices(t *testing.T) {
	t.Parallel()

	store := createDatabase(t, nil)
	seedDevice(t, store, "d1", "h1")
	seedDevice(t, store, "d2", "h2")
	seedDevice(t, store, "d3", "h3")

	now := time.Now()
	require.NoError(t, store.UpdateDeviceLastSync("d1", now))
	require.NoError(t, store.UpdateDeviceLastSync("d2", now.Add(-48*time.Hour)))

	active, err := store.CountActiveDevices(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	total, err := store.CountDevices()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

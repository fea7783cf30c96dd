// model.go this code defines the data model for the application
package datastore

import "time"

// Device represents a registered roadside speed detection unit.
type Device struct {
	ID              uint   `gorm:"primaryKey"`
	DeviceID        string `gorm:"uniqueIndex:idx_devices_device_id;size:64;not null"` // stable device identifier, assigned at registration
	Name            string `gorm:"size:128"`
	APIKeyHash      string `gorm:"index:idx_devices_api_key_hash;size:64"` // sha256 hex of the device token
	FirmwareVersion string `gorm:"size:32"`
	CreatedAt       time.Time
	LastSyncAt      *time.Time // last successful event batch upload
	LastHeartbeatAt *time.Time // last heartbeat ping
}

// SpeedEvent represents a single vehicle speed measurement uploaded by a
// device. The composite unique index on (device_id, natural_key) is the
// deduplication boundary: a device may resend an event any number of times
// and at most one row ever exists.
type SpeedEvent struct {
	ID            uint      `gorm:"primaryKey"`
	DeviceID      string    `gorm:"uniqueIndex:idx_events_device_natural;index:idx_events_device_captured;size:64;not null"`
	NaturalKey    string    `gorm:"uniqueIndex:idx_events_device_natural;size:128;not null"` // device-assigned event identity
	CapturedAt    time.Time `gorm:"index:idx_events_device_captured;index:idx_events_captured"`
	SpeedKPH      float64   `gorm:"column:speed_kph"`
	SpeedLimitKPH float64   `gorm:"column:speed_limit_kph"`
	Speeding      bool      `gorm:"index:idx_events_speeding"`
	Latitude      float64
	Longitude     float64
	PhotoKey      *string `gorm:"size:256"` // object key of the evidence photo, nil when none was uploaded
	CreatedAt     time.Time
}

// DeviceDailySummary represents aggregated statistics for one device on one
// calendar day. Rows are keyed on (device_id, date) and recomputed in full
// by the aggregator, so re-running it never changes an up-to-date row.
type DeviceDailySummary struct {
	ID            uint   `gorm:"primaryKey"`
	DeviceID      string `gorm:"uniqueIndex:idx_summaries_device_date;size:64;not null"`
	Date          string `gorm:"uniqueIndex:idx_summaries_device_date;size:10;not null"` // YYYY-MM-DD
	EventCount    int
	SpeedingCount int
	AvgSpeedKPH   float64 `gorm:"column:avg_speed_kph"`
	MaxSpeedKPH   float64 `gorm:"column:max_speed_kph"`
	P50SpeedKPH   float64 `gorm:"column:p50_speed_kph"`
	P85SpeedKPH   float64 `gorm:"column:p85_speed_kph"` // the standard traffic engineering percentile
	UpdatedAt     time.Time
}

// GlobalSummary represents fleet-wide statistics for one calendar day.
type GlobalSummary struct {
	ID              uint   `gorm:"primaryKey"`
	Date            string `gorm:"uniqueIndex:idx_global_summaries_date;size:10;not null"` // YYYY-MM-DD
	DeviceCount     int64
	ActiveDevices   int64 // devices that synced within the trailing 24 hours
	EventCount      int64
	EventsLast24h   int64 `gorm:"column:events_last_24h"`
	SpeedingLast24h int64 `gorm:"column:speeding_last_24h"`
	UpdatedAt       time.Time
}

// analytics.go: aggregated summary persistence
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

// UpsertDeviceDailySummary inserts or fully replaces the summary row for
// (device_id, date). The aggregator recomputes every column, so the update
// assigns them all; re-running over an unchanged event set writes identical
// values.
func (ds *DataStore) UpsertDeviceDailySummary(summary *DeviceDailySummary) error {
	summary.UpdatedAt = time.Now()

	err := ds.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "device_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"event_count", "speeding_count",
			"avg_speed_kph", "max_speed_kph", "p50_speed_kph", "p85_speed_kph",
			"updated_at",
		}),
	}).Create(summary).Error
	if err != nil {
		return fmt.Errorf("upserting daily summary for device %s on %s: %w",
			summary.DeviceID, summary.Date, err)
	}
	return nil
}

// UpsertGlobalSummary inserts or fully replaces the global summary row for a
// date.
func (ds *DataStore) UpsertGlobalSummary(summary *GlobalSummary) error {
	summary.UpdatedAt = time.Now()

	err := ds.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"device_count", "active_devices",
			"event_count", "events_last_24h", "speeding_last_24h",
			"updated_at",
		}),
	}).Create(summary).Error
	if err != nil {
		return fmt.Errorf("upserting global summary for %s: %w", summary.Date, err)
	}
	return nil
}

// GetDeviceDailySummaries retrieves recent daily summaries for a device,
// newest first.
func (ds *DataStore) GetDeviceDailySummaries(deviceID string, limit int) ([]DeviceDailySummary, error) {
	var summaries []DeviceDailySummary

	err := ds.DB.Where("device_id = ?", deviceID).
		Order("date DESC").
		Limit(limit).
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("getting daily summaries for device %s: %w", deviceID, err)
	}
	return summaries, nil
}

// GetLatestGlobalSummary retrieves the most recent global summary row, or
// nil when none has been computed yet.
func (ds *DataStore) GetLatestGlobalSummary() (*GlobalSummary, error) {
	var summary GlobalSummary
	if err := ds.DB.Order("date DESC").First(&summary).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest global summary: %w", err)
	}
	return &summary, nil
}

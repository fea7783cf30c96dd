// events.go: speed event persistence and queries
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

// InsertSpeedEvent persists a speed event, relying on the composite unique
// index on (device_id, natural_key) for deduplication. The insert and the
// uniqueness check are a single statement, so concurrent uploads of the same
// event cannot both succeed. Returns inserted=false when the event already
// existed; a duplicate is a normal outcome, not an error.
func (ds *DataStore) InsertSpeedEvent(event *SpeedEvent) (bool, error) {
	if ds.DB == nil {
		return false, fmt.Errorf("database connection is not initialized")
	}

	result := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "natural_key"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("inserting speed event %s/%s: %w",
			event.DeviceID, event.NaturalKey, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetDeviceEvents retrieves a page of events for a device, newest first.
func (ds *DataStore) GetDeviceEvents(deviceID string, limit, offset int, speedingOnly bool) ([]SpeedEvent, error) {
	var events []SpeedEvent

	query := ds.DB.Where("device_id = ?", deviceID)
	if speedingOnly {
		query = query.Where("speeding = ?", true)
	}

	err := query.Order("captured_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("getting events for device %s: %w", deviceID, err)
	}
	return events, nil
}

// CountDeviceEvents returns the total number of events for a device.
func (ds *DataStore) CountDeviceEvents(deviceID string, speedingOnly bool) (int64, error) {
	var count int64

	query := ds.DB.Model(&SpeedEvent{}).Where("device_id = ?", deviceID)
	if speedingOnly {
		query = query.Where("speeding = ?", true)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting events for device %s: %w", deviceID, err)
	}
	return count, nil
}

// GetDeviceEventsInRange retrieves all events for a device captured within
// [start, end), ordered by capture time. Used by the aggregator.
func (ds *DataStore) GetDeviceEventsInRange(deviceID string, start, end time.Time) ([]SpeedEvent, error) {
	var events []SpeedEvent

	err := ds.DB.Where("device_id = ? AND captured_at >= ? AND captured_at < ?", deviceID, start, end).
		Order("captured_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("getting events for device %s in range: %w", deviceID, err)
	}
	return events, nil
}

// CountEvents returns the total number of stored events.
func (ds *DataStore) CountEvents() (int64, error) {
	var count int64
	if err := ds.DB.Model(&SpeedEvent{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

// CountEventsSince returns the number of events captured at or after since.
func (ds *DataStore) CountEventsSince(since time.Time) (int64, error) {
	var count int64
	err := ds.DB.Model(&SpeedEvent{}).
		Where("captured_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting events since %s: %w", since.Format(time.RFC3339), err)
	}
	return count, nil
}

// CountSpeedingEventsSince returns the number of speeding events captured at
// or after since.
func (ds *DataStore) CountSpeedingEventsSince(since time.Time) (int64, error) {
	var count int64
	err := ds.DB.Model(&SpeedEvent{}).
		Where("captured_at >= ? AND speeding = ?", since, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting speeding events since %s: %w", since.Format(time.RFC3339), err)
	}
	return count, nil
}

// devices.go: device lookups and liveness updates
package datastore

import (
	"fmt"
	"time"
)

// GetDevice retrieves a device by its device identifier.
func (ds *DataStore) GetDevice(deviceID string) (*Device, error) {
	var device Device
	if err := ds.DB.Where("device_id = ?", deviceID).First(&device).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("getting device %s: %w", deviceID, err)
	}
	return &device, nil
}

// GetDeviceByAPIKeyHash retrieves a device by the sha256 hex digest of its
// API token. The raw token is never stored.
func (ds *DataStore) GetDeviceByAPIKeyHash(hash string) (*Device, error) {
	var device Device
	if err := ds.DB.Where("api_key_hash = ?", hash).First(&device).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("getting device by token hash: %w", err)
	}
	return &device, nil
}

// ListDeviceIDs returns the identifiers of all registered devices.
func (ds *DataStore) ListDeviceIDs() ([]string, error) {
	var ids []string
	if err := ds.DB.Model(&Device{}).Order("device_id ASC").Pluck("device_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing device ids: %w", err)
	}
	return ids, nil
}

// UpdateDeviceLastSync records a successful event batch upload.
func (ds *DataStore) UpdateDeviceLastSync(deviceID string, syncedAt time.Time) error {
	result := ds.DB.Model(&Device{}).
		Where("device_id = ?", deviceID).
		Update("last_sync_at", syncedAt)
	if result.Error != nil {
		return fmt.Errorf("updating last sync for device %s: %w", deviceID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// UpdateDeviceHeartbeat records a heartbeat ping. The firmware version is
// updated when the device reports one.
func (ds *DataStore) UpdateDeviceHeartbeat(deviceID string, seenAt time.Time, firmwareVersion string) error {
	updates := map[string]any{"last_heartbeat_at": seenAt}
	if firmwareVersion != "" {
		updates["firmware_version"] = firmwareVersion
	}

	result := ds.DB.Model(&Device{}).
		Where("device_id = ?", deviceID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating heartbeat for device %s: %w", deviceID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// CountDevices returns the total number of registered devices.
func (ds *DataStore) CountDevices() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Device{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting devices: %w", err)
	}
	return count, nil
}

// CountActiveDevices returns the number of devices that synced at or after
// since.
func (ds *DataStore) CountActiveDevices(since time.Time) (int64, error) {
	var count int64
	err := ds.DB.Model(&Device{}).
		Where("last_sync_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting active devices: %w", err)
	}
	return count, nil
}

// key.go: canonical object key construction for photo blobs
package objectstore

import (
	"fmt"
	"strings"
	"time"
)

// PhotoKey builds the canonical object key for a photo:
//
//	{device_id}/{year}/{month}/{event_id}.jpg
//
// The key is deterministic so an idempotent re-upload overwrites the same
// object instead of duplicating it. The month is always two digits. Device
// and event identifiers must be free of path separators and traversal
// sequences; an offending component is rejected with a validation error.
func PhotoKey(deviceID string, capturedAt time.Time, eventID string) (string, error) {
	if err := validateKeyComponent("device id", deviceID); err != nil {
		return "", err
	}
	if err := validateKeyComponent("event id", eventID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%04d/%02d/%s.jpg",
		deviceID, capturedAt.Year(), int(capturedAt.Month()), eventID), nil
}

// validateKeyComponent rejects identifiers that could escape the key
// namespace on a filesystem-backed store.
func validateKeyComponent(name, value string) error {
	if value == "" {
		return NewError(ErrValidation, fmt.Sprintf("%s must not be empty", name), nil)
	}
	if strings.ContainsAny(value, `/\`) {
		return NewError(ErrValidation,
			fmt.Sprintf("%s must not contain path separators: %q", name, value), nil)
	}
	if strings.Contains(value, "..") {
		return NewError(ErrValidation,
			fmt.Sprintf("%s must not contain traversal sequences: %q", name, value), nil)
	}
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return NewError(ErrValidation,
				fmt.Sprintf("%s must not contain control characters", name), nil)
		}
	}
	return nil
}

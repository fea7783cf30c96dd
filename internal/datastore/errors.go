// Package datastore provides error types for database operations
package datastore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrDeviceNotFound is returned when a device lookup matches no row.
var ErrDeviceNotFound = errors.New("device not found")

// MigrationError represents a failed schema migration.
type MigrationError struct {
	DBType string
	Err    error
}

// Error returns the error message
func (e *MigrationError) Error() string {
	return fmt.Sprintf("failed to migrate %s database: %v", e.DBType, e.Err)
}

// Unwrap returns the underlying error
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// isNotFound reports whether err is a GORM record-not-found error.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

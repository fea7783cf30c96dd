// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/calz1/rushroster-cloud/internal/conf"
	"github.com/calz1/rushroster-cloud/internal/logging"
)

// Interface abstracts the underlying database implementation and defines the
// interface for database operations.
type Interface interface {
	Open() error
	Close() error

	// events
	InsertSpeedEvent(event *SpeedEvent) (inserted bool, err error)
	GetDeviceEvents(deviceID string, limit, offset int, speedingOnly bool) ([]SpeedEvent, error)
	CountDeviceEvents(deviceID string, speedingOnly bool) (int64, error)
	GetDeviceEventsInRange(deviceID string, start, end time.Time) ([]SpeedEvent, error)

	// devices
	GetDevice(deviceID string) (*Device, error)
	GetDeviceByAPIKeyHash(hash string) (*Device, error)
	ListDeviceIDs() ([]string, error)
	UpdateDeviceLastSync(deviceID string, syncedAt time.Time) error
	UpdateDeviceHeartbeat(deviceID string, seenAt time.Time, firmwareVersion string) error

	// aggregated statistics
	UpsertDeviceDailySummary(summary *DeviceDailySummary) error
	UpsertGlobalSummary(summary *GlobalSummary) error
	GetDeviceDailySummaries(deviceID string, limit int) ([]DeviceDailySummary, error)
	GetLatestGlobalSummary() (*GlobalSummary, error)
	CountDevices() (int64, error)
	CountActiveDevices(since time.Time) (int64, error)
	CountEvents() (int64, error)
	CountEventsSince(since time.Time) (int64, error)
	CountSpeedingEventsSince(since time.Time) (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()
	migrationLogger := logging.ForService("datastore")

	if err := db.AutoMigrate(
		&Device{},
		&SpeedEvent{},
		&DeviceDailySummary{},
		&GlobalSummary{},
	); err != nil {
		return &MigrationError{DBType: dbType, Err: err}
	}

	if debug && migrationLogger != nil {
		migrationLogger.Debug("Database migration completed",
			"db_type", dbType,
			"connection", connectionInfo,
			"duration", time.Since(migrationStart))
	}

	return nil
}

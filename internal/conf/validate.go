// validate.go: validation of user provided settings
package conf

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "no validation errors"
	}
	msg := "validation errors: "
	for i, err := range ve.Errors {
		if i > 0 {
			msg += "; "
		}
		msg += err
	}
	return msg
}

// ValidateSettings checks the settings struct for configuration mistakes that
// would otherwise only surface at request time.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateWebServerSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateStorageSettings(&settings.Storage); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateOutputSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateIngestSettings(&settings.Ingest); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateWebServerSettings(settings *Settings) error {
	if !settings.WebServer.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid web server port: %s", settings.WebServer.Port)
	}
	return nil
}

func validateStorageSettings(storage *StorageSettings) error {
	switch storage.Provider {
	case StorageLocal:
		if storage.LocalPath == "" {
			return errors.New("storage.localpath is required for the local provider")
		}
	case StorageS3:
		if storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 provider")
		}
	case StorageGCS:
		if storage.Bucket == "" {
			return errors.New("storage.bucket is required for the gcs provider")
		}
	default:
		return fmt.Errorf("unsupported storage provider: %s", storage.Provider)
	}

	if storage.TimeoutSeconds < 0 {
		return errors.New("storage.timeoutseconds must not be negative")
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.New("only one database output may be enabled at a time")
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return errors.New("a database output must be enabled")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.New("output.sqlite.path is required when sqlite is enabled")
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" || settings.Output.MySQL.Database == "" {
			return errors.New("output.mysql.host and output.mysql.database are required when mysql is enabled")
		}
	}
	return nil
}

func validateIngestSettings(ingest *IngestSettings) error {
	if ingest.MaxBatchSize < 1 {
		return errors.New("ingest.maxbatchsize must be at least 1")
	}
	if ingest.MaxPhotoBytes < 1 {
		return errors.New("ingest.maxphotobytes must be at least 1")
	}
	return nil
}

// config.go: settings for the RushRoster cloud service. Defines the settings
// struct and the functions to load and save them.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// StorageProvider identifies an object storage backend implementation.
type StorageProvider string

const (
	StorageLocal StorageProvider = "local"
	StorageS3    StorageProvider = "s3"
	StorageGCS   StorageProvider = "gcs"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
	MaxSize int64  // max log size in bytes before rotation
}

// StorageSettings contains the object storage backend configuration.
// The provider is resolved once at process start, never per request.
type StorageSettings struct {
	Provider  StorageProvider // "local", "s3" or "gcs"
	LocalPath string          // base directory for the local provider
	Bucket    string          // bucket name for s3/gcs providers
	Region    string          // region for the s3 provider
	Endpoint  string          // custom endpoint for S3-compatible stores (MinIO etc.)
	AccessKey string          // access key for the s3 provider
	SecretKey string          // secret key for the s3 provider
	// CredentialsFile is the path to a service account JSON file for gcs
	CredentialsFile string
	// TimeoutSeconds bounds every backend call; a timeout surfaces as
	// storage-unavailable, not a crash
	TimeoutSeconds int
}

// IngestSettings contains limits for the device ingestion endpoint.
type IngestSettings struct {
	MaxBatchSize  int   // maximum number of events per batch request
	MaxPhotoBytes int64 // maximum size of a single photo upload
}

// Settings contains all runtime configuration for the service.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"` // Version from build
	BuildDate string `yaml:"-"` // Build date from build

	Main struct {
		Name string    // name of this RushRoster node
		Log  LogConfig // logging configuration
	}

	WebServer struct {
		Debug   bool      // true to enable web server debug mode
		Enabled bool      // true to enable web server
		Port    string    // port for web server
		Log     LogConfig // logging configuration for web server
	}

	Storage StorageSettings // object storage backend configuration

	Ingest IngestSettings // device ingestion limits

	Output struct {
		SQLite struct {
			Enabled bool   // true to enable sqlite output
			Path    string // path to sqlite database
		}

		MySQL struct {
			Enabled  bool   // true to enable mysql output
			Username string // mysql database username
			Password string // mysql database user password
			Database string // mysql database name
			Host     string // mysql database host
			Port     string // mysql database port
		}
	}
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into the global settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("RUSHROSTER")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		// No config file found, create one from defaults
		configPath := filepath.Join(configPaths[0], "config.yaml")
		if err := createDefaultConfig(configPath); err != nil {
			return err
		}
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading newly created config file: %w", err)
		}
	}

	return nil
}

// createDefaultConfig writes the default configuration to the given path.
func createDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	defaults := viper.AllSettings()
	out, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at %s", configPath)
	viper.SetConfigFile(configPath)
	return nil
}

// Setting returns the global settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})

	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetDefaultConfigPaths returns the list of directories searched for the
// config file, in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	// An explicit config dir wins over everything else
	if dir := os.Getenv("RUSHROSTER_CONFIG_DIR"); dir != "" {
		return []string{dir}, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user directory: %w", err)
	}

	return []string{
		filepath.Join(homeDir, ".config", "rushroster"),
		".",
	}, nil
}

// defaults.go default values for viper configuration
package conf

import (
	"github.com/spf13/viper"
)

// DefaultStorageTimeoutSeconds bounds every object storage call when the
// config does not override it.
const DefaultStorageTimeoutSeconds = 30

// setDefaultConfig sets the default configuration values.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "RushRoster")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/rushroster.log")
	viper.SetDefault("main.log.maxsize", 10*1024*1024)

	// Web server configuration
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "logs/web.log")

	// Object storage configuration
	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.localpath", "data/photos")
	viper.SetDefault("storage.bucket", "")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.endpoint", "")
	viper.SetDefault("storage.timeoutseconds", DefaultStorageTimeoutSeconds)

	// Ingestion limits
	viper.SetDefault("ingest.maxbatchsize", 1000)
	viper.SetDefault("ingest.maxphotobytes", 5*1024*1024)

	// Database configuration
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "rushroster.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "rushroster")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "rushroster")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}

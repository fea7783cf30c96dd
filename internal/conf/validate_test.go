package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	settings := &Settings{}
	settings.WebServer.Enabled = true
	settings.WebServer.Port = "8080"
	settings.Storage.Provider = StorageLocal
	settings.Storage.LocalPath = "data/photos"
	settings.Storage.TimeoutSeconds = 30
	settings.Ingest.MaxBatchSize = 1000
	settings.Ingest.MaxPhotoBytes = 5 * 1024 * 1024
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = "rushroster.db"
	return settings
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{
			name:   "invalid port",
			mutate: func(s *Settings) { s.WebServer.Port = "notaport" },
		},
		{
			name:   "local provider without path",
			mutate: func(s *Settings) { s.Storage.LocalPath = "" },
		},
		{
			name: "s3 provider without bucket",
			mutate: func(s *Settings) {
				s.Storage.Provider = StorageS3
				s.Storage.Bucket = ""
			},
		},
		{
			name: "gcs provider without bucket",
			mutate: func(s *Settings) {
				s.Storage.Provider = StorageGCS
				s.Storage.Bucket = ""
			},
		},
		{
			name:   "unknown provider",
			mutate: func(s *Settings) { s.Storage.Provider = "ftp" },
		},
		{
			name:   "negative storage timeout",
			mutate: func(s *Settings) { s.Storage.TimeoutSeconds = -1 },
		},
		{
			name: "both database outputs enabled",
			mutate: func(s *Settings) {
				s.Output.MySQL.Enabled = true
				s.Output.MySQL.Host = "localhost"
				s.Output.MySQL.Database = "rushroster"
			},
		},
		{
			name: "no database output enabled",
			mutate: func(s *Settings) {
				s.Output.SQLite.Enabled = false
			},
		},
		{
			name:   "zero batch size",
			mutate: func(s *Settings) { s.Ingest.MaxBatchSize = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := validSettings()
			tt.mutate(settings)
			err := ValidateSettings(settings)
			require.Error(t, err)

			var ve ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

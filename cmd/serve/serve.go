package serve

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/calz1/rushroster-cloud/internal/conf"
	"github.com/calz1/rushroster-cloud/internal/server"
)

// Command creates the serve command, which runs the HTTP service.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the event ingestion service",
		Long:  "Start the HTTP server that accepts device event batches, serves stored photos and exposes device statistics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the HTTP server")
	cmd.Flags().StringVar(&settings.Storage.LocalPath, "storagepath", viper.GetString("storage.localpath"), "Base directory for local photo storage")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

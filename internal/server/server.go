// Package server wires the service components together and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calz1/rushroster-cloud/internal/api"
	"github.com/calz1/rushroster-cloud/internal/conf"
	"github.com/calz1/rushroster-cloud/internal/datastore"
	"github.com/calz1/rushroster-cloud/internal/ingest"
	"github.com/calz1/rushroster-cloud/internal/logging"
	"github.com/calz1/rushroster-cloud/internal/objectstore"
	"github.com/calz1/rushroster-cloud/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Run starts the service and blocks until a termination signal arrives.
func Run(settings *conf.Settings) error {
	logger := logging.ForService("server")
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database output is enabled")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Error("Failed to close datastore", "error", err)
		}
	}()

	objects, err := objectstore.New(&settings.Storage)
	if err != nil {
		return fmt.Errorf("initializing object storage: %w", err)
	}
	if err := objects.Validate(); err != nil {
		return fmt.Errorf("validating %s storage backend: %w", objects.Name(), err)
	}
	logger.Info("Object storage ready", "provider", objects.Name())

	pipeline := ingest.New(ds, objects, metrics, &settings.Ingest)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	controller, err := api.New(e, ds, objects, pipeline, settings, metrics, nil)
	if err != nil {
		return fmt.Errorf("initializing API controller: %w", err)
	}
	defer controller.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "port", settings.WebServer.Port)
		if err := e.Start(":" + settings.WebServer.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	return nil
}

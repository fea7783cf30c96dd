// devices.go: authenticated device info and statistics endpoints
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calz1/rushroster-cloud/internal/datastore"
)

// initDeviceRoutes registers the device self-service endpoints.
func (c *Controller) initDeviceRoutes() {
	group := c.Group.Group("/device", c.DeviceAuthMiddleware)
	group.GET("/info", c.GetDeviceInfo)
	group.GET("/stats", c.GetDeviceStats)
}

// deviceInfoResponse describes the authenticated device.
type deviceInfoResponse struct {
	DeviceID        string     `json:"device_id"`
	Name            string     `json:"name"`
	FirmwareVersion string     `json:"firmware_version,omitempty"`
	RegisteredAt    time.Time  `json:"registered_at"`
	LastSyncAt      *time.Time `json:"last_sync_at,omitempty"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
}

// GetDeviceInfo handles GET /api/v1/device/info.
func (c *Controller) GetDeviceInfo(ctx echo.Context) error {
	device, ok := authenticatedDevice(ctx)
	if !ok {
		return c.HandleError(ctx, nil, "Device authentication missing", http.StatusUnauthorized)
	}

	return ctx.JSON(http.StatusOK, deviceInfoResponse{
		DeviceID:        device.DeviceID,
		Name:            device.Name,
		FirmwareVersion: device.FirmwareVersion,
		RegisteredAt:    device.CreatedAt,
		LastSyncAt:      device.LastSyncAt,
		LastHeartbeatAt: device.LastHeartbeatAt,
	})
}

// deviceStatsResponse aggregates statistics for one device.
type deviceStatsResponse struct {
	DeviceID       string                         `json:"device_id"`
	TotalEvents    int64                          `json:"total_events"`
	SpeedingEvents int64                          `json:"speeding_events"`
	DailySummaries []datastore.DeviceDailySummary `json:"daily_summaries"`
}

const deviceStatsSummaryDays = 30

// GetDeviceStats handles GET /api/v1/device/stats. Responses are cached
// briefly since fleets poll this endpoint on a timer.
func (c *Controller) GetDeviceStats(ctx echo.Context) error {
	device, ok := authenticatedDevice(ctx)
	if !ok {
		return c.HandleError(ctx, nil, "Device authentication missing", http.StatusUnauthorized)
	}

	if cached, found := c.deviceStatsCache.Get(device.DeviceID); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	totalEvents, err := c.DS.CountDeviceEvents(device.DeviceID, false)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count events", http.StatusInternalServerError)
	}
	speedingEvents, err := c.DS.CountDeviceEvents(device.DeviceID, true)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count speeding events", http.StatusInternalServerError)
	}
	summaries, err := c.DS.GetDeviceDailySummaries(device.DeviceID, deviceStatsSummaryDays)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get daily summaries", http.StatusInternalServerError)
	}
	if summaries == nil {
		summaries = []datastore.DeviceDailySummary{}
	}

	response := deviceStatsResponse{
		DeviceID:       device.DeviceID,
		TotalEvents:    totalEvents,
		SpeedingEvents: speedingEvents,
		DailySummaries: summaries,
	}
	c.deviceStatsCache.SetDefault(device.DeviceID, response)

	return ctx.JSON(http.StatusOK, response)
}

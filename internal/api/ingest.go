// ingest.go: device event batch upload and history endpoints
package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calz1/rushroster-cloud/internal/ingest"
)

// initIngestRoutes registers the device-facing ingestion endpoints.
func (c *Controller) initIngestRoutes() {
	group := c.Group.Group("/ingest", c.DeviceAuthMiddleware)
	group.POST("/events", c.IngestEvents)
	group.GET("/events", c.GetEventHistory)
	group.POST("/heartbeat", c.Heartbeat)
}

// ingestEventRequest is one event in a device batch upload.
type ingestEventRequest struct {
	NaturalKey    string    `json:"natural_key"`
	Timestamp     time.Time `json:"timestamp"`
	SpeedKPH      float64   `json:"speed"`
	SpeedLimitKPH float64   `json:"speed_limit"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lon"`
	Photo         string    `json:"photo,omitempty"` // base64-encoded JPEG bytes
}

// ingestBatchRequest is the batch upload payload.
type ingestBatchRequest struct {
	Events []ingestEventRequest `json:"events"`
}

// IngestEvents handles POST /api/v1/ingest/events.
func (c *Controller) IngestEvents(ctx echo.Context) error {
	device, ok := authenticatedDevice(ctx)
	if !ok {
		return c.HandleError(ctx, nil, "Device authentication missing", http.StatusUnauthorized)
	}

	var req ingestBatchRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if len(req.Events) == 0 {
		return c.HandleError(ctx, nil, "Batch contains no events", http.StatusBadRequest)
	}

	events := make([]ingest.Event, 0, len(req.Events))
	for i := range req.Events {
		in := &req.Events[i]

		var photo []byte
		if in.Photo != "" {
			decoded, err := base64.StdEncoding.DecodeString(in.Photo)
			if err != nil {
				return c.HandleError(ctx,
					fmt.Errorf("event %q: %w", in.NaturalKey, err),
					"Photo is not valid base64", http.StatusBadRequest)
			}
			photo = decoded
		}

		events = append(events, ingest.Event{
			NaturalKey:    in.NaturalKey,
			CapturedAt:    in.Timestamp,
			SpeedKPH:      in.SpeedKPH,
			SpeedLimitKPH: in.SpeedLimitKPH,
			Latitude:      in.Latitude,
			Longitude:     in.Longitude,
			Photo:         photo,
		})
	}

	result, err := c.Pipeline.ProcessBatch(ctx.Request().Context(), device.DeviceID, events)
	if err != nil {
		var tooLarge *ingest.ErrBatchTooLarge
		if errors.As(err, &tooLarge) {
			return c.HandleError(ctx, err, "Batch exceeds size limit", http.StatusBadRequest)
		}
		return c.HandleError(ctx, err, "Failed to process batch", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, result)
}

// eventHistoryEntry is one stored event in a history response.
type eventHistoryEntry struct {
	NaturalKey    string    `json:"natural_key"`
	Timestamp     time.Time `json:"timestamp"`
	SpeedKPH      float64   `json:"speed"`
	SpeedLimitKPH float64   `json:"speed_limit"`
	Speeding      bool      `json:"speeding"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lon"`
	PhotoURL      string    `json:"photo_url,omitempty"`
}

// eventHistoryResponse is the paginated history payload.
type eventHistoryResponse struct {
	Events []eventHistoryEntry `json:"events"`
	Total  int64               `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// GetEventHistory handles GET /api/v1/ingest/events.
func (c *Controller) GetEventHistory(ctx echo.Context) error {
	device, ok := authenticatedDevice(ctx)
	if !ok {
		return c.HandleError(ctx, nil, "Device authentication missing", http.StatusUnauthorized)
	}

	limit := queryInt(ctx, "limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := queryInt(ctx, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	speedingOnly := ctx.QueryParam("speeding_only") == "true"

	events, err := c.DS.GetDeviceEvents(device.DeviceID, limit, offset, speedingOnly)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get event history", http.StatusInternalServerError)
	}
	total, err := c.DS.CountDeviceEvents(device.DeviceID, speedingOnly)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count events", http.StatusInternalServerError)
	}

	response := eventHistoryResponse{
		Events: make([]eventHistoryEntry, 0, len(events)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i := range events {
		entry := eventHistoryEntry{
			NaturalKey:    events[i].NaturalKey,
			Timestamp:     events[i].CapturedAt,
			SpeedKPH:      events[i].SpeedKPH,
			SpeedLimitKPH: events[i].SpeedLimitKPH,
			Speeding:      events[i].Speeding,
			Latitude:      events[i].Latitude,
			Longitude:     events[i].Longitude,
		}
		if events[i].PhotoKey != nil {
			entry.PhotoURL = "/api/storage/files/" + *events[i].PhotoKey
		}
		response.Events = append(response.Events, entry)
	}

	return ctx.JSON(http.StatusOK, response)
}

// heartbeatRequest is the heartbeat payload.
type heartbeatRequest struct {
	FirmwareVersion string `json:"firmware_version,omitempty"`
}

// Heartbeat handles POST /api/v1/ingest/heartbeat.
func (c *Controller) Heartbeat(ctx echo.Context) error {
	device, ok := authenticatedDevice(ctx)
	if !ok {
		return c.HandleError(ctx, nil, "Device authentication missing", http.StatusUnauthorized)
	}

	var req heartbeatRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	now := time.Now()
	if err := c.DS.UpdateDeviceHeartbeat(device.DeviceID, now, req.FirmwareVersion); err != nil {
		return c.HandleError(ctx, err, "Failed to record heartbeat", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"server_time": now.Format(time.RFC3339),
	})
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(ctx echo.Context, name string, fallback int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// storage.go: photo retrieval endpoint
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/calz1/rushroster-cloud/internal/objectstore"
)

// initStorageRoutes registers the photo retrieval endpoint. It lives outside
// the /api/v1 group so stored location URLs stay stable.
func (c *Controller) initStorageRoutes() {
	c.Echo.GET("/api/storage/files/:deviceID/:year/:month/:filename", c.GetStoredFile)
}

// GetStoredFile handles GET /api/storage/files/:deviceID/:year/:month/:filename.
// The path segments mirror the canonical photo key shape, so the handler
// reassembles the key rather than trusting a free-form path.
func (c *Controller) GetStoredFile(ctx echo.Context) error {
	deviceID := ctx.Param("deviceID")
	year := ctx.Param("year")
	month := ctx.Param("month")
	filename := ctx.Param("filename")

	if _, err := strconv.Atoi(year); err != nil || len(year) != 4 {
		return c.HandleError(ctx, nil, "Invalid year segment", http.StatusBadRequest)
	}
	if _, err := strconv.Atoi(month); err != nil || len(month) != 2 {
		return c.HandleError(ctx, nil, "Invalid month segment", http.StatusBadRequest)
	}

	key := fmt.Sprintf("%s/%s/%s/%s", deviceID, year, month, filename)

	content, err := c.Objects.Get(ctx.Request().Context(), key)
	if err != nil {
		switch {
		case objectstore.IsValidationError(err):
			return c.HandleError(ctx, err, "Invalid object key", http.StatusBadRequest)
		case objectstore.IsNotFound(err):
			return c.HandleError(ctx, err, "File not found", http.StatusNotFound)
		case objectstore.IsUnavailable(err):
			return c.HandleError(ctx, err, "Storage backend unavailable", http.StatusServiceUnavailable)
		default:
			return c.HandleError(ctx, err, "Failed to read file", http.StatusInternalServerError)
		}
	}

	return ctx.Blob(http.StatusOK, "image/jpeg", content)
}

// auth.go: device token authentication
package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/calz1/rushroster-cloud/internal/datastore"
)

// deviceContextKey is the echo context key holding the authenticated device.
const deviceContextKey = "device"

// HashDeviceToken returns the sha256 hex digest stored for a device token.
// Only the digest is ever persisted or compared.
func HashDeviceToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DeviceAuthMiddleware authenticates requests by the X-API-Key device token.
// The token is hashed and looked up, then compared in constant time so a
// request cannot probe for digest prefixes through response timing.
func (c *Controller) DeviceAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := ctx.Request().Header.Get("X-API-Key")
		if token == "" {
			return ctx.JSON(http.StatusUnauthorized, map[string]string{
				"error": "X-API-Key header is required",
			})
		}

		tokenHash := HashDeviceToken(token)
		device, err := c.DS.GetDeviceByAPIKeyHash(tokenHash)
		if err != nil {
			if errors.Is(err, datastore.ErrDeviceNotFound) {
				return ctx.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid device token",
				})
			}
			return c.HandleError(ctx, err, "Failed to authenticate device", http.StatusInternalServerError)
		}

		if subtle.ConstantTimeCompare([]byte(device.APIKeyHash), []byte(tokenHash)) != 1 {
			return ctx.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid device token",
			})
		}

		ctx.Set(deviceContextKey, device)
		return next(ctx)
	}
}

// authenticatedDevice returns the device set by DeviceAuthMiddleware.
func authenticatedDevice(ctx echo.Context) (*datastore.Device, bool) {
	device, ok := ctx.Get(deviceContextKey).(*datastore.Device)
	return device, ok
}

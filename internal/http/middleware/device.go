package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/model"
)

// DeviceAuth authenticates firmware requests. Devices send their mac in the
// ID header and their api key in Access-Token; both must match one device.
func DeviceAuth(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		mac := c.GetHeader("ID")
		token := c.GetHeader("Access-Token")
		if mac == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing device credentials"})
			return
		}

		device, err := store.GetDeviceByAPIKey(token)
		if err != nil || device.MacAddress != mac {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown device"})
			return
		}
		c.Set("currentDevice", device)
		c.Next()
	}
}

// retrieves the authenticated model.Device from Gin context.
func GetCurrentDevice(c *gin.Context) (model.Device, bool) {
	d, exists := c.Get("currentDevice")
	if !exists {
		return model.Device{}, false
	}
	device, ok := d.(model.Device)
	return device, ok
}

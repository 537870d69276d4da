package endpoints

import (
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/display"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/device/packets"
	"github.com/inkwell-labs/inkwell/internal/model"
	redisclient "github.com/inkwell-labs/inkwell/internal/redis"
)

// How long a device should wait on the raster download before giving up and
// retrying the poll. Pre-baked assets are small enough to skip the cap.
const rasterDownloadTimeout = 30

type DisplayController struct {
	store  db.Store
	engine *display.Engine
}

func NewDisplayController(store db.Store, engine *display.Engine) *DisplayController {
	return &DisplayController{store: store, engine: engine}
}

// DisplayModule mounts the authenticated device endpoints.
func DisplayModule(store db.Store, engine *display.Engine) api.Module {
	ctl := NewDisplayController(store, engine)
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/display", api.ResolveDeviceEndpoint(ctl.getDisplay))
		c.Group.GET("/current_screen", api.ResolveDeviceEndpoint(ctl.getCurrentScreen))
		c.Group.POST("/log", api.ResolveDeviceEndpoint(ctl.postLog))
	})
}

// GET /api/display
//
// The poll every device makes on wake. It records the reported stats,
// advances the schedule and returns the raster to draw.
func (d *DisplayController) getDisplay(ctx *gin.Context, device model.Device) (any, *api.Error) {
	d.recordPoll(ctx, &device)

	res, err := d.engine.ResolveForDevice(ctx.Request.Context(), device, true)
	if err != nil {
		log.Error().Err(err).Int("device_id", device.ID).Msg("display resolution failed")
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not resolve display"}
	}

	redisclient.CacheScreen(ctx, device.ID, res.ImageURL)

	out := packets.DisplayResponse{
		Status:               0,
		ImageURL:             res.ImageURL,
		Filename:             res.Filename,
		RefreshRate:          res.RefreshRate,
		UpdateFirmware:       device.UpdateFirmware,
		ResetFirmware:        device.ResetFirmware,
		SpecialFunction:      "none",
		MaximumCompatibility: res.Legacy,
	}
	if res.Sleeping {
		out.SpecialFunction = "sleep"
	}
	if res.RasterID != "" {
		out.ImageURLTimeout = rasterDownloadTimeout
	}
	if device.UpdateFirmware {
		out.FirmwareURL = device.FirmwareURL
	}

	// Firmware directives are one-shot: delivered once, then cleared.
	if device.UpdateFirmware || device.ResetFirmware {
		if err := d.store.ClearFirmwareFlags(device.ID); err != nil {
			log.Error().Err(err).Int("device_id", device.ID).Msg("failed to clear firmware flags")
		}
	}
	return out, nil
}

// GET /api/current_screen
//
// Read-only peek at what the device shows; never advances the schedule.
func (d *DisplayController) getCurrentScreen(ctx *gin.Context, device model.Device) (any, *api.Error) {
	if url := redisclient.CachedScreen(ctx, device.ID); url != "" {
		return packets.CurrentScreenResponse{
			Status:      0,
			ImageURL:    url,
			Filename:    path.Base(url),
			RefreshRate: device.RefreshRate,
		}, nil
	}

	res, err := d.engine.ResolveForDevice(ctx.Request.Context(), device, false)
	if err != nil {
		log.Error().Err(err).Int("device_id", device.ID).Msg("current screen resolution failed")
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not resolve display"}
	}
	return packets.CurrentScreenResponse{
		Status:      0,
		ImageURL:    res.ImageURL,
		Filename:    res.Filename,
		RefreshRate: res.RefreshRate,
	}, nil
}

// POST /api/log
func (d *DisplayController) postLog(ctx *gin.Context, device model.Device) (any, *api.Error) {
	var request packets.LogRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	for _, line := range request.Logs {
		log.Info().
			Str("device", device.MacAddress).
			Str("level", line.Level).
			Int64("device_ts", line.Timestamp).
			Msg(line.Message)
	}
	return gin.H{"status": "ok"}, nil
}

// recordPoll stores the stats firmware reports in request headers.
func (d *DisplayController) recordPoll(ctx *gin.Context, device *model.Device) {
	var battery *float64
	if v, err := strconv.ParseFloat(ctx.GetHeader("Battery-Voltage"), 64); err == nil {
		battery = &v
	}
	var rssi *int
	if v, err := strconv.Atoi(ctx.GetHeader("RSSI")); err == nil {
		rssi = &v
	}
	var firmware *string
	if v := ctx.GetHeader("FW-Version"); v != "" {
		firmware = &v
		device.FirmwareVersion = &v
	}
	if err := d.store.RecordDevicePoll(device.ID, battery, rssi, firmware, d.engine.Now()); err != nil {
		log.Error().Err(err).Int("device_id", device.ID).Msg("failed to record device poll")
	}
}

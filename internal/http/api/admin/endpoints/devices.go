package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/display"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/packets"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/notify"
	redisclient "github.com/inkwell-labs/inkwell/internal/redis"
)

type DeviceController struct {
	store     db.Store
	engine    *display.Engine
	publisher *notify.Publisher
}

func NewDeviceController(store db.Store, engine *display.Engine, publisher *notify.Publisher) *DeviceController {
	return &DeviceController{store: store, engine: engine, publisher: publisher}
}

// DeviceModule mounts the device management endpoints.
func DeviceModule(store db.Store, engine *display.Engine, publisher *notify.Publisher) api.Module {
	ctl := NewDeviceController(store, engine, publisher)
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/devices", api.ResolveEndpointWithAuth(ctl.listDevices))
		c.Group.GET("/devices/:id", api.ResolveEndpointWithAuth(ctl.getDevice))
		c.Group.PATCH("/devices/:id", api.ResolveEndpointWithAuth(ctl.updateDevice))
		c.Group.DELETE("/devices/:id", api.ResolveEndpointWithAuth(ctl.deleteDevice))
		c.Group.POST("/devices/claim", api.ResolveEndpointWithAuth(ctl.claimDevice))
	})
}

// GET /api/admin/devices
func (d *DeviceController) listDevices(_ *gin.Context, _ *model.User) (any, *api.Error) {
	devices, err := d.store.ListDevices()
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	return devices, nil
}

// GET /api/admin/devices/:id
func (d *DeviceController) getDevice(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	device, err := d.store.GetDeviceByID(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "device not found"}
	}
	return device, nil
}

// PATCH /api/admin/devices/:id
func (d *DeviceController) updateDevice(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	if _, err := d.store.GetDeviceByID(id); err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "device not found"}
	}

	var request packets.UpdateDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	upd := db.DeviceUpdate{
		Name:           request.Name,
		ModelName:      request.ModelName,
		Width:          request.Width,
		Height:         request.Height,
		Rotation:       request.Rotation,
		ImageFormat:    request.ImageFormat,
		RefreshRate:    request.RefreshRate,
		Paused:         request.Paused,
		SleepStart:     request.SleepStart,
		SleepStop:      request.SleepStop,
		Timezone:       request.Timezone,
		MirrorDeviceID: request.MirrorDeviceID,
		UpdateFirmware: request.UpdateFirmware,
		ResetFirmware:  request.ResetFirmware,
		FirmwareURL:    request.FirmwareURL,
	}
	if err := d.store.UpdateDevice(id, upd); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not update device"}
	}

	updated, err := d.store.GetDeviceByID(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}

	// Wake the panel over MQTT so the change shows before the next poll.
	go d.announce(updated)

	return updated, nil
}

// DELETE /api/admin/devices/:id
func (d *DeviceController) deleteDevice(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	if err := d.store.DeleteDevice(id); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not delete device"}
	}
	return gin.H{"status": "deleted"}, nil
}

// POST /api/admin/devices/claim
//
// Resolves a claim code shown on a freshly provisioned panel to its device.
func (d *DeviceController) claimDevice(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	var request packets.ClaimDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	mac := redisclient.GetClaimCode(ctx, request.ClaimCode)
	if mac == "" {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "unknown or expired claim code"}
	}
	device, err := d.store.GetDeviceByMac(mac)
	if err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "device not found"}
	}
	if request.Name != nil {
		if err := d.store.UpdateDevice(device.ID, db.DeviceUpdate{Name: request.Name}); err != nil {
			return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not name device"}
		}
		device, _ = d.store.GetDeviceByID(device.ID)
	}
	return packets.ClaimDeviceResponse{Device: device}, nil
}

func (d *DeviceController) announce(device model.Device) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := d.engine.ResolveForDevice(ctx, device, false)
	if err != nil {
		log.Warn().Err(err).Int("device_id", device.ID).Msg("could not resolve screen for announce")
		return
	}
	d.publisher.AnnounceScreen(device.MacAddress, res.ImageURL, res.Filename, res.RefreshRate)
}

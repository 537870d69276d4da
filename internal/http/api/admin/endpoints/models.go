package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/packets"
	"github.com/inkwell-labs/inkwell/internal/model"
)

type ModelController struct {
	store db.Store
}

// ModelModule mounts the device model reference data endpoints.
func ModelModule(store db.Store) api.Module {
	ctl := &ModelController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/models", api.ResolveEndpointWithAuth(ctl.listModels))
		c.Group.POST("/models", api.ResolveEndpointWithAuth(ctl.upsertModel))
	})
}

// GET /api/admin/models
func (m *ModelController) listModels(_ *gin.Context, _ *model.User) (any, *api.Error) {
	models, err := m.store.ListDeviceModels()
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	return models, nil
}

// POST /api/admin/models
func (m *ModelController) upsertModel(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	var request packets.UpsertDeviceModelRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	dm := model.DeviceModel{
		Name:        request.Name,
		Label:       request.Label,
		Width:       request.Width,
		Height:      request.Height,
		Colors:      request.Colors,
		BitDepth:    request.BitDepth,
		Rotation:    request.Rotation,
		ScaleFactor: request.ScaleFactor,
		OffsetX:     request.OffsetX,
		OffsetY:     request.OffsetY,
		MimeType:    request.MimeType,
	}
	if err := m.store.UpsertDeviceModel(dm); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not save device model"}
	}
	saved, err := m.store.GetDeviceModelByName(request.Name)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	return saved, nil
}

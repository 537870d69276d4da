package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/packets"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/render"
)

type MashupController struct {
	store db.Store
}

// MashupModule mounts composite layout management. Layout/slot validation
// happens here, at configuration time, never during device polling.
func MashupModule(store db.Store) api.Module {
	ctl := &MashupController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.POST("/mashups", api.ResolveEndpointWithAuth(ctl.createMashup))
		c.Group.GET("/mashups/:id", api.ResolveEndpointWithAuth(ctl.getMashup))
		c.Group.DELETE("/mashups/:id", api.ResolveEndpointWithAuth(ctl.deleteMashup))
	})
}

// POST /api/admin/mashups
func (m *MashupController) createMashup(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	var request packets.CreateMashupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := render.ValidateLayout(request.Layout, len(request.PluginIDs)); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, render.ErrLayoutMismatch) {
			code = http.StatusUnprocessableEntity
		}
		return nil, &api.Error{Code: code, Message: err.Error()}
	}
	plugins, err := m.store.ListPluginsByIDs(request.PluginIDs)
	if err != nil || len(plugins) != len(request.PluginIDs) {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "one or more plugins not found"}
	}

	mashup, err := m.store.CreateMashup(request.Name, request.Layout, request.PluginIDs)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not create mashup"}
	}
	return mashup, nil
}

// GET /api/admin/mashups/:id
func (m *MashupController) getMashup(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	mashup, err := m.store.GetMashupByID(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "mashup not found"}
	}
	return mashup, nil
}

// DELETE /api/admin/mashups/:id
func (m *MashupController) deleteMashup(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := m.store.DeleteMashup(id); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not delete mashup"}
	}
	return gin.H{"status": "deleted"}, nil
}

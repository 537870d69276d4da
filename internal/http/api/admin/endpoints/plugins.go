package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/display"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/packets"
	"github.com/inkwell-labs/inkwell/internal/model"
)

type PluginController struct {
	store  db.Store
	engine *display.Engine
}

// PluginModule mounts content source management, including the push-data
// ingestion endpoint.
func PluginModule(store db.Store, engine *display.Engine) api.Module {
	ctl := &PluginController{store: store, engine: engine}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/plugins", api.ResolveEndpointWithAuth(ctl.listPlugins))
		c.Group.POST("/plugins", api.ResolveEndpointWithAuth(ctl.createPlugin))
		c.Group.GET("/plugins/:id", api.ResolveEndpointWithAuth(ctl.getPlugin))
		c.Group.PATCH("/plugins/:id", api.ResolveEndpointWithAuth(ctl.updatePlugin))
		c.Group.DELETE("/plugins/:id", api.ResolveEndpointWithAuth(ctl.deletePlugin))

		c.Group.POST("/plugins/:id/data", api.ResolveEndpointWithAuth(ctl.pushData))
		c.Group.DELETE("/plugins/:id/raster", api.ResolveEndpointWithAuth(ctl.clearRaster))
	})
}

// GET /api/admin/plugins
func (p *PluginController) listPlugins(_ *gin.Context, _ *model.User) (any, *api.Error) {
	plugins, err := p.store.ListPlugins()
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	return plugins, nil
}

// POST /api/admin/plugins
func (p *PluginController) createPlugin(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	var request packets.CreatePluginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	plugin, err := p.store.CreatePlugin(request.Name, request.Strategy, request.StalenessMinutes, request.Config)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not create plugin"}
	}
	upd := db.PluginUpdate{
		PollingURL:     request.PollingURL,
		PollingHeaders: request.PollingHeaders,
		PollingBody:    request.PollingBody,
		Markup:         request.Markup,
		MarkupShared:   request.MarkupShared,
	}
	if err := p.store.UpdatePlugin(plugin.ID, upd); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not configure plugin"}
	}
	plugin, err = p.store.GetPluginByID(plugin.ID)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	return plugin, nil
}

// GET /api/admin/plugins/:id
func (p *PluginController) getPlugin(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	plugin, err := p.store.GetPluginByID(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "plugin not found"}
	}
	return plugin, nil
}

// PATCH /api/admin/plugins/:id
func (p *PluginController) updatePlugin(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.UpdatePluginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	upd := db.PluginUpdate{
		Name:             request.Name,
		Strategy:         request.Strategy,
		PollingURL:       request.PollingURL,
		PollingHeaders:   request.PollingHeaders,
		PollingBody:      request.PollingBody,
		StalenessMinutes: request.StalenessMinutes,
		Config:           request.Config,
		Markup:           request.Markup,
		MarkupShared:     request.MarkupShared,
	}
	if err := p.store.UpdatePlugin(id, upd); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not update plugin"}
	}

	// Config or template changes make the cached raster wrong.
	if err := p.store.ClearPluginRaster(id); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}

	plugin, err := p.store.GetPluginByID(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "plugin not found"}
	}
	return plugin, nil
}

// DELETE /api/admin/plugins/:id
func (p *PluginController) deletePlugin(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := p.store.DeletePlugin(id); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not delete plugin"}
	}
	return gin.H{"status": "deleted"}, nil
}

// POST /api/admin/plugins/:id/data
//
// Push-strategy ingestion: external integrations post a JSON object that
// becomes the plugin's data verbatim.
func (p *PluginController) pushData(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if _, err := p.store.GetPluginByID(id); err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "plugin not found"}
	}

	var data model.ConfigMap
	if err := ctx.ShouldBindJSON(&data); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "body must be a JSON object"}
	}
	if err := p.store.SetPluginData(id, data, p.engine.Now()); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not store data"}
	}
	return gin.H{"status": "ok"}, nil
}

// DELETE /api/admin/plugins/:id/raster
func (p *PluginController) clearRaster(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := p.store.ClearPluginRaster(id); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not clear raster"}
	}
	return gin.H{"status": "ok"}, nil
}

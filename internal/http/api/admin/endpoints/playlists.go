package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/packets"
	"github.com/inkwell-labs/inkwell/internal/model"
)

type PlaylistController struct {
	store db.Store
}

// PlaylistModule mounts playlist and playlist item management.
func PlaylistModule(store db.Store) api.Module {
	ctl := &PlaylistController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/devices/:id/playlists", api.ResolveEndpointWithAuth(ctl.listForDevice))
		c.Group.POST("/playlists", api.ResolveEndpointWithAuth(ctl.createPlaylist))
		c.Group.GET("/playlists/:id", api.ResolveEndpointWithAuth(ctl.getPlaylist))
		c.Group.PATCH("/playlists/:id", api.ResolveEndpointWithAuth(ctl.updatePlaylist))
		c.Group.DELETE("/playlists/:id", api.ResolveEndpointWithAuth(ctl.deletePlaylist))

		c.Group.POST("/playlists/:id/items", api.ResolveEndpointWithAuth(ctl.addItem))
		c.Group.POST("/playlists/:id/reorder", api.ResolveEndpointWithAuth(ctl.reorderItems))
		c.Group.PATCH("/items/:id", api.ResolveEndpointWithAuth(ctl.updateItem))
		c.Group.DELETE("/items/:id", api.ResolveEndpointWithAuth(ctl.removeItem))
	})
}

func paramID(ctx *gin.Context) (int, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, &api.Error{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	return id, nil
}

// GET /api/admin/devices/:id/playlists
func (p *PlaylistController) listForDevice(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	playlists, err := p.store.ListPlaylistsForDevice(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	return playlists, nil
}

// POST /api/admin/playlists
func (p *PlaylistController) createPlaylist(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	var request packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if _, err := p.store.GetDeviceByID(request.DeviceID); err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "device not found"}
	}

	playlist, err := p.store.CreatePlaylist(
		request.DeviceID, request.Name, request.DayMask,
		request.ActiveFrom, request.ActiveUntil, request.Timezone,
	)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not create playlist"}
	}
	return playlist, nil
}

// GET /api/admin/playlists/:id
func (p *PlaylistController) getPlaylist(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	playlist, err := p.store.GetPlaylistByID(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "playlist not found"}
	}
	return playlist, nil
}

// PATCH /api/admin/playlists/:id
func (p *PlaylistController) updatePlaylist(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := p.store.UpdatePlaylist(id, request.Name, request.IsActive, request.DayMask,
		request.ActiveFrom, request.ActiveUntil, request.Timezone); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not update playlist"}
	}
	playlist, err := p.store.GetPlaylistByID(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "playlist not found"}
	}
	return playlist, nil
}

// DELETE /api/admin/playlists/:id
func (p *PlaylistController) deletePlaylist(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := p.store.DeletePlaylist(id); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not delete playlist"}
	}
	return gin.H{"status": "deleted"}, nil
}

// POST /api/admin/playlists/:id/items
func (p *PlaylistController) addItem(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.AddPlaylistItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if (request.PluginID == nil) == (request.MashupID == nil) {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "item needs exactly one of plugin_id or mashup_id"}
	}
	if _, err := p.store.GetPlaylistByID(id); err != nil {
		return nil, &api.Error{Code: http.StatusNotFound, Message: "playlist not found"}
	}

	item, err := p.store.AddPlaylistItem(id, request.PluginID, request.MashupID, request.OrderIndex, request.DurationOverride)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not add item"}
	}
	return item, nil
}

// POST /api/admin/playlists/:id/reorder
func (p *PlaylistController) reorderItems(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.ReorderPlaylistItemsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := p.store.ReorderPlaylistItems(id, request.ItemIDs); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not reorder items"}
	}
	items, err := p.store.ListPlaylistItems(id)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	return items, nil
}

// PATCH /api/admin/items/:id
func (p *PlaylistController) updateItem(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.UpdatePlaylistItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := p.store.UpdatePlaylistItem(id, request.IsActive, request.OrderIndex, request.DurationOverride); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not update item"}
	}
	return gin.H{"status": "ok"}, nil
}

// DELETE /api/admin/items/:id
func (p *PlaylistController) removeItem(ctx *gin.Context, _ *model.User) (any, *api.Error) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := p.store.RemovePlaylistItem(id); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not remove item"}
	}
	return gin.H{"status": "deleted"}, nil
}

package endpoints

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/display"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/device/packets"
	redisclient "github.com/inkwell-labs/inkwell/internal/redis"
)

type SetupController struct {
	store  db.Store
	assets display.Assets
}

// SetupModule mounts the unauthenticated provisioning endpoint. A device
// fresh from the factory only knows its mac address.
func SetupModule(store db.Store, assets display.Assets) api.Module {
	ctl := &SetupController{store: store, assets: assets}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/setup", api.ResolveEndpoint(ctl.setup))
	})
}

// GET /api/setup
//
// Idempotent: a known mac gets its existing credentials back, an unknown
// one is registered and handed a claim code for the admin UI.
func (s *SetupController) setup(ctx *gin.Context) (any, *api.Error) {
	mac := strings.ToUpper(ctx.GetHeader("ID"))
	if mac == "" {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "missing ID header"}
	}

	device, err := s.store.GetDeviceByMac(mac)
	if err != nil {
		friendlyID := newFriendlyID()
		device, err = s.store.CreateDevice(mac, friendlyID, uuid.NewString())
		if err != nil {
			log.Error().Err(err).Str("mac", mac).Msg("failed to register device")
			return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not register device"}
		}
		redisclient.SetClaimCode(ctx, friendlyID, mac)
		log.Info().Str("mac", mac).Str("friendly_id", friendlyID).Msg("registered new device")
	}

	return packets.SetupResponse{
		Status:     200,
		APIKey:     device.APIKey,
		FriendlyID: device.FriendlyID,
		ImageURL:   s.assets.Setup,
		Filename:   "setup",
	}, nil
}

// newFriendlyID is the short code shown on the panel during setup.
func newFriendlyID() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/display"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	adminapi "github.com/inkwell-labs/inkwell/internal/http/api/admin/endpoints"
	deviceapi "github.com/inkwell-labs/inkwell/internal/http/api/device/endpoints"
	"github.com/inkwell-labs/inkwell/internal/notify"
)

// RegisterRoutes sets up all application routes.
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, engine *display.Engine, publisher *notify.Publisher, assets display.Assets) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"ID",
			"Access-Token",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
	},
		adminapi.AuthPublicModule(env.SecretKey, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		adminapi.AuthSessionModule(store),
		adminapi.DeviceModule(store, engine, publisher),
		adminapi.ModelModule(store),
		adminapi.PlaylistModule(store),
		adminapi.PluginModule(store, engine),
		adminapi.MashupModule(store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		deviceapi.SetupModule(store, assets),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api",
		DeviceAuth: true,
		Store:      store,
	},
		deviceapi.DisplayModule(store, engine),
	)

	// Static content
	if !env.UseSpaces {
		r.Static("/rasters", env.RastersDir)
	}
	r.Static("/assets", "./assets")
}

package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/packets"
	"github.com/inkwell-labs/inkwell/internal/http/middleware"
	"github.com/inkwell-labs/inkwell/internal/model"
)

type AuthController struct {
	secret string
	store  db.Store
}

// AuthPublicModule mounts registration and login, which issue the tokens the
// rest of the admin API requires.
func AuthPublicModule(secret string, store db.Store) api.Module {
	ctl := &AuthController{secret: secret, store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.POST("/auth/register", api.ResolveEndpoint(ctl.register))
		c.Group.POST("/auth/login", api.ResolveEndpoint(ctl.login))
	})
}

// AuthSessionModule mounts the endpoints that need an authenticated session.
func AuthSessionModule(store db.Store) api.Module {
	ctl := &AuthController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/auth/me", api.ResolveEndpointWithAuth(ctl.me))
	})
}

// POST /api/admin/auth/register
func (a *AuthController) register(ctx *gin.Context) (any, *api.Error) {
	var request packets.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	userID, err := a.store.CreateUser(request.Email, hashed, request.Name)
	if err != nil {
		log.Error().Err(err).Str("email", request.Email).Msg("failed to create user")
		return nil, &api.Error{Code: http.StatusConflict, Message: "could not create user"}
	}

	token, err := middleware.GenerateJWT(userID, a.secret)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not sign token"}
	}
	return packets.TokenResponse{Token: token}, nil
}

// POST /api/admin/auth/login
func (a *AuthController) login(ctx *gin.Context) (any, *api.Error) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	user, err := a.store.GetUserByEmail(request.Email)
	if err != nil || !middleware.CheckPassword(user.HashedPassword, request.Password) {
		return nil, &api.Error{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(user.ID, a.secret)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not sign token"}
	}
	return packets.TokenResponse{Token: token}, nil
}

// GET /api/admin/auth/me
func (a *AuthController) me(_ *gin.Context, user *model.User) (any, *api.Error) {
	return packets.UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

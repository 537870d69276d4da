package packets

import "github.com/inkwell-labs/inkwell/internal/model"

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID    int     `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// ClaimDeviceResponse confirms which device a claim code resolved to.
type ClaimDeviceResponse struct {
	Device model.Device `json:"device"`
}

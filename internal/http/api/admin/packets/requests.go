package packets

import "github.com/inkwell-labs/inkwell/internal/model"

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ClaimDeviceRequest struct {
	ClaimCode string  `json:"claim_code" binding:"required"`
	Name      *string `json:"name"`
}

type UpdateDeviceRequest struct {
	Name           *string `json:"name"`
	ModelName      *string `json:"model_name"`
	Width          *int    `json:"width"`
	Height         *int    `json:"height"`
	Rotation       *int    `json:"rotation"`
	ImageFormat    *string `json:"image_format"`
	RefreshRate    *int    `json:"refresh_rate"`
	Paused         *bool   `json:"paused"`
	SleepStart     *string `json:"sleep_start"`
	SleepStop      *string `json:"sleep_stop"`
	Timezone       *string `json:"timezone"`
	MirrorDeviceID *int    `json:"mirror_device_id"`
	UpdateFirmware *bool   `json:"update_firmware"`
	ResetFirmware  *bool   `json:"reset_firmware"`
	FirmwareURL    *string `json:"firmware_url"`
}

type UpsertDeviceModelRequest struct {
	Name        string  `json:"name" binding:"required"`
	Label       string  `json:"label"`
	Width       int     `json:"width" binding:"required"`
	Height      int     `json:"height" binding:"required"`
	Colors      int     `json:"colors"`
	BitDepth    int     `json:"bit_depth"`
	Rotation    int     `json:"rotation"`
	ScaleFactor float64 `json:"scale_factor"`
	OffsetX     int     `json:"offset_x"`
	OffsetY     int     `json:"offset_y"`
	MimeType    string  `json:"mime_type"`
}

type CreatePlaylistRequest struct {
	DeviceID    int     `json:"device_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	DayMask     int     `json:"day_mask"`
	ActiveFrom  *string `json:"active_from"`
	ActiveUntil *string `json:"active_until"`
	Timezone    string  `json:"timezone"`
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name"`
	IsActive    *bool   `json:"is_active"`
	DayMask     *int    `json:"day_mask"`
	ActiveFrom  *string `json:"active_from"`
	ActiveUntil *string `json:"active_until"`
	Timezone    *string `json:"timezone"`
}

type AddPlaylistItemRequest struct {
	PluginID         *int `json:"plugin_id"`
	MashupID         *int `json:"mashup_id"`
	OrderIndex       int  `json:"order_index"`
	DurationOverride *int `json:"duration_override"`
}

type UpdatePlaylistItemRequest struct {
	IsActive         *bool `json:"is_active"`
	OrderIndex       *int  `json:"order_index"`
	DurationOverride *int  `json:"duration_override"`
}

type ReorderPlaylistItemsRequest struct {
	ItemIDs []int `json:"item_ids" binding:"required"`
}

type CreatePluginRequest struct {
	Name             string          `json:"name" binding:"required"`
	Strategy         string          `json:"strategy" binding:"required,oneof=static push pull"`
	StalenessMinutes int             `json:"staleness_minutes"`
	Config           model.ConfigMap `json:"config"`
	PollingURL       *string         `json:"polling_url"`
	PollingHeaders   *string         `json:"polling_headers"`
	PollingBody      *string         `json:"polling_body"`
	Markup           *string         `json:"markup"`
	MarkupShared     *string         `json:"markup_shared"`
}

type UpdatePluginRequest struct {
	Name             *string         `json:"name"`
	Strategy         *string         `json:"strategy"`
	PollingURL       *string         `json:"polling_url"`
	PollingHeaders   *string         `json:"polling_headers"`
	PollingBody      *string         `json:"polling_body"`
	StalenessMinutes *int            `json:"staleness_minutes"`
	Config           model.ConfigMap `json:"config"`
	Markup           *string         `json:"markup"`
	MarkupShared     *string         `json:"markup_shared"`
}

type CreateMashupRequest struct {
	Name      string `json:"name" binding:"required"`
	Layout    string `json:"layout" binding:"required"`
	PluginIDs []int  `json:"plugin_ids" binding:"required"`
}

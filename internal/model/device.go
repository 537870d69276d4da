package model

import "time"

// Device represents one physical e-ink display polling this server.
type Device struct {
	ID              int     `db:"id"               json:"id"`
	MacAddress      string  `db:"mac_address"      json:"mac_address"`
	FriendlyID      string  `db:"friendly_id"      json:"friendly_id"`
	APIKey          string  `db:"api_key"          json:"api_key"`
	Name            *string `db:"name"             json:"name,omitempty"`
	ModelName       *string `db:"model_name"       json:"model_name,omitempty"`
	FirmwareVersion *string `db:"firmware_version" json:"firmware_version,omitempty"`

	// Geometry overrides. When nil the device model (or the 800x480
	// default) applies.
	Width    *int `db:"width"    json:"width,omitempty"`
	Height   *int `db:"height"   json:"height,omitempty"`
	Rotation *int `db:"rotation" json:"rotation,omitempty"`

	// ImageFormat, when set, wins over both the model format and the
	// firmware-version inference.
	ImageFormat *string `db:"image_format" json:"image_format,omitempty"`

	RefreshRate int  `db:"refresh_rate" json:"refresh_rate"`
	Paused      bool `db:"paused"       json:"paused"`

	// Sleep window, HH:MM local time, empty when the device never sleeps.
	SleepStart *string `db:"sleep_start" json:"sleep_start,omitempty"`
	SleepStop  *string `db:"sleep_stop"  json:"sleep_stop,omitempty"`
	Timezone   string  `db:"timezone"    json:"timezone"`

	// MirrorDeviceID makes this device reuse another device's resolved
	// raster instead of running its own schedule.
	MirrorDeviceID *int `db:"mirror_device_id" json:"mirror_device_id,omitempty"`

	// One-shot firmware flags, cleared once a device has seen them.
	UpdateFirmware bool    `db:"update_firmware" json:"update_firmware"`
	ResetFirmware  bool    `db:"reset_firmware"  json:"reset_firmware"`
	FirmwareURL    *string `db:"firmware_url"    json:"firmware_url,omitempty"`

	// Stats reported on every poll.
	BatteryVoltage *float64   `db:"battery_voltage" json:"battery_voltage,omitempty"`
	RSSI           *int       `db:"rssi"            json:"rssi,omitempty"`
	LastSeen       *time.Time `db:"last_seen"       json:"last_seen,omitempty"`

	CurrentRaster *string    `db:"current_raster" json:"current_raster,omitempty"`
	LastRefreshed *time.Time `db:"last_refreshed" json:"last_refreshed,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DeviceModel is immutable reference data describing a device class.
type DeviceModel struct {
	ID          int     `db:"id"           json:"id"`
	Name        string  `db:"name"         json:"name"`
	Label       string  `db:"label"        json:"label"`
	Width       int     `db:"width"        json:"width"`
	Height      int     `db:"height"       json:"height"`
	Colors      int     `db:"colors"       json:"colors"`
	BitDepth    int     `db:"bit_depth"    json:"bit_depth"`
	Rotation    int     `db:"rotation"     json:"rotation"`
	ScaleFactor float64 `db:"scale_factor" json:"scale_factor"`
	OffsetX     int     `db:"offset_x"     json:"offset_x"`
	OffsetY     int     `db:"offset_y"     json:"offset_y"`
	MimeType    string  `db:"mime_type"    json:"mime_type"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

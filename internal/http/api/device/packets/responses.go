package packets

// SetupResponse provisions a freshly booted device.
type SetupResponse struct {
	Status     int    `json:"status"`
	APIKey     string `json:"api_key"`
	FriendlyID string `json:"friendly_id"`
	ImageURL   string `json:"image_url"`
	Filename   string `json:"filename"`
}

// DisplayResponse answers a device poll: what to show and for how long,
// plus the one-shot firmware directives.
type DisplayResponse struct {
	Status               int     `json:"status"`
	ImageURL             string  `json:"image_url"`
	Filename             string  `json:"filename"`
	RefreshRate          int     `json:"refresh_rate"`
	UpdateFirmware       bool    `json:"update_firmware"`
	ResetFirmware        bool    `json:"reset_firmware"`
	FirmwareURL          *string `json:"firmware_url,omitempty"`
	SpecialFunction      string  `json:"special_function"`
	MaximumCompatibility bool    `json:"maximum_compatibility"`
	ImageURLTimeout      int     `json:"image_url_timeout,omitempty"`
}

// CurrentScreenResponse is the read-only variant of DisplayResponse.
type CurrentScreenResponse struct {
	Status      int    `json:"status"`
	ImageURL    string `json:"image_url"`
	Filename    string `json:"filename"`
	RefreshRate int    `json:"refresh_rate"`
}

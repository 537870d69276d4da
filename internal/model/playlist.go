package model

import "time"

// Playlist is a device-owned, time/weekday gated ordered list of items.
// Resolution walks a device's playlists in id order and takes the first
// active one.
type Playlist struct {
	ID       int    `db:"id"        json:"id"`
	DeviceID int    `db:"device_id" json:"device_id"`
	Name     string `db:"name"      json:"name"`
	IsActive bool   `db:"is_active" json:"is_active"`

	// DayMask is a bitmask over weekdays, Sunday=1, Monday=2, Tuesday=4...
	// Zero means every day.
	DayMask int `db:"day_mask" json:"day_mask"`

	// Optional time-of-day window, "HH:MM". A window with From > Until
	// wraps past midnight. Both empty means always active.
	ActiveFrom  *string `db:"active_from"  json:"active_from,omitempty"`
	ActiveUntil *string `db:"active_until" json:"active_until,omitempty"`
	Timezone    string  `db:"timezone"     json:"timezone"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Items []PlaylistItem `db:"-" json:"items,omitempty"`
}

// PlaylistItem is one scheduled slot. It references either a plugin or a
// mashup, never both. LastDisplayedAt doubles as the round-robin cursor:
// the active item with the oldest timestamp (NULL first) wins.
type PlaylistItem struct {
	ID         int  `db:"id"          json:"id"`
	PlaylistID int  `db:"playlist_id" json:"playlist_id"`
	PluginID   *int `db:"plugin_id"   json:"plugin_id,omitempty"`
	MashupID   *int `db:"mashup_id"   json:"mashup_id,omitempty"`
	IsActive   bool `db:"is_active"   json:"is_active"`
	OrderIndex int  `db:"order_index" json:"order_index"`

	// DurationOverride, when set, replaces the device refresh rate for
	// this item.
	DurationOverride *int `db:"duration_override" json:"duration_override,omitempty"`

	LastDisplayedAt *time.Time `db:"last_displayed_at" json:"last_displayed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at"        json:"created_at"`
}

// Mashup combines 1-4 plugins into one composite frame under a fixed layout.
type Mashup struct {
	ID     int    `db:"id"     json:"id"`
	Name   string `db:"name"   json:"name"`
	Layout string `db:"layout" json:"layout"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// PluginIDs in slot order, loaded from mashup_slots.
	PluginIDs []int `db:"-" json:"plugin_ids,omitempty"`
}

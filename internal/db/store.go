// Package db exposes a Store interface over the persistence layer; the
// resolution engine and the API controllers only ever see this interface.
package db

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/inkwell-labs/inkwell/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DeviceUpdate carries the mutable device fields; nil means keep current.
type DeviceUpdate struct {
	Name           *string
	ModelName      *string
	Width          *int
	Height         *int
	Rotation       *int
	ImageFormat    *string
	RefreshRate    *int
	Paused         *bool
	SleepStart     *string
	SleepStop      *string
	Timezone       *string
	MirrorDeviceID *int
	UpdateFirmware *bool
	ResetFirmware  *bool
	FirmwareURL    *string
}

// PluginUpdate carries the mutable plugin fields; nil means keep current.
type PluginUpdate struct {
	Name             *string
	Strategy         *string
	PollingURL       *string
	PollingHeaders   *string
	PollingBody      *string
	StalenessMinutes *int
	Config           model.ConfigMap
	Markup           *string
	MarkupShared     *string
}

type Store interface {
	// admin users
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)

	// devices
	CreateDevice(mac, friendlyID, apiKey string) (model.Device, error)
	GetDeviceByID(id int) (model.Device, error)
	GetDeviceByMac(mac string) (model.Device, error)
	GetDeviceByAPIKey(apiKey string) (model.Device, error)
	ListDevices() ([]model.Device, error)
	UpdateDevice(id int, upd DeviceUpdate) error
	DeleteDevice(id int) error
	RecordDevicePoll(id int, battery *float64, rssi *int, firmware *string, seenAt time.Time) error
	SetDeviceRaster(id int, rasterID string, refreshedAt time.Time) error
	ClearFirmwareFlags(id int) error
	// AnyNonStandardGeometry reports whether any device deviates from the
	// native 800x480 unrotated panel; the shared raster cache is disabled
	// while one exists.
	AnyNonStandardGeometry() (bool, error)

	// device models
	GetDeviceModelByName(name string) (*model.DeviceModel, error)
	ListDeviceModels() ([]model.DeviceModel, error)
	UpsertDeviceModel(m model.DeviceModel) error

	// playlists
	CreatePlaylist(deviceID int, name string, dayMask int, from, until *string, tz string) (model.Playlist, error)
	GetPlaylistByID(id int) (model.Playlist, error)
	ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error)
	UpdatePlaylist(id int, name *string, isActive *bool, dayMask *int, from, until *string, tz *string) error
	DeletePlaylist(id int) error

	// playlist items
	AddPlaylistItem(playlistID int, pluginID, mashupID *int, orderIndex int, durationOverride *int) (model.PlaylistItem, error)
	ListPlaylistItems(playlistID int) ([]model.PlaylistItem, error)
	UpdatePlaylistItem(itemID int, isActive *bool, orderIndex, durationOverride *int) error
	RemovePlaylistItem(itemID int) error
	ReorderPlaylistItems(playlistID int, itemIDs []int) error
	// TouchItemDisplayed stamps the round-robin cursor.
	TouchItemDisplayed(itemID int, at time.Time) error

	// plugins
	CreatePlugin(name, strategy string, stalenessMinutes int, config model.ConfigMap) (model.Plugin, error)
	GetPluginByID(id int) (model.Plugin, error)
	ListPlugins() ([]model.Plugin, error)
	ListPluginsByIDs(ids []int) ([]model.Plugin, error)
	UpdatePlugin(id int, upd PluginUpdate) error
	DeletePlugin(id int) error
	SetPluginData(id int, data model.ConfigMap, at time.Time) error
	SetPluginRaster(id int, rasterID, scope string, at time.Time) error
	ClearPluginRaster(id int) error

	// mashups
	CreateMashup(name, layout string, pluginIDs []int) (model.Mashup, error)
	GetMashupByID(id int) (model.Mashup, error)
	DeleteMashup(id int) error

	// ReferencedRasters returns every raster identifier still referenced
	// by a device current raster or a plugin cached raster.
	ReferencedRasters() (map[string]struct{}, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}

package db

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/inkwell-labs/inkwell/internal/model"
)

// MemStore is an in-memory Store. It backs the resolver, cache and handler
// tests and doubles as the storage for local development without Postgres.
type MemStore struct {
	mu sync.Mutex

	nextID    int
	users     map[int]*model.User
	devices   map[int]*model.Device
	models    map[string]*model.DeviceModel
	playlists map[int]*model.Playlist
	items     map[int]*model.PlaylistItem
	plugins   map[int]*model.Plugin
	mashups   map[int]*model.Mashup
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:     make(map[int]*model.User),
		devices:   make(map[int]*model.Device),
		models:    make(map[string]*model.DeviceModel),
		playlists: make(map[int]*model.Playlist),
		items:     make(map[int]*model.PlaylistItem),
		plugins:   make(map[int]*model.Plugin),
		mashups:   make(map[int]*model.Mashup),
	}
}

func (s *MemStore) id() int {
	s.nextID++
	return s.nextID
}

// --- users ---

func (s *MemStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return 0, fmt.Errorf("duplicate email %q", email)
		}
	}
	u := &model.User{
		ID: s.id(), Email: email, HashedPassword: hashedPassword, Name: name,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *MemStore) GetUserByEmail(email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) GetUserByID(id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// --- devices ---

func (s *MemStore) CreateDevice(mac, friendlyID, apiKey string) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &model.Device{
		ID: s.id(), MacAddress: mac, FriendlyID: friendlyID, APIKey: apiKey,
		RefreshRate: 900, Timezone: "UTC",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.devices[d.ID] = d
	return *d, nil
}

func (s *MemStore) GetDeviceByID(id int) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return model.Device{}, ErrNotFound
	}
	return *d, nil
}

func (s *MemStore) GetDeviceByMac(mac string) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.MacAddress == mac {
			return *d, nil
		}
	}
	return model.Device{}, ErrNotFound
}

func (s *MemStore) GetDeviceByAPIKey(apiKey string) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.APIKey == apiKey {
			return *d, nil
		}
	}
	return model.Device{}, ErrNotFound
}

func (s *MemStore) ListDevices() ([]model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) UpdateDevice(id int, upd DeviceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Name != nil {
		d.Name = upd.Name
	}
	if upd.ModelName != nil {
		d.ModelName = upd.ModelName
	}
	if upd.Width != nil {
		d.Width = upd.Width
	}
	if upd.Height != nil {
		d.Height = upd.Height
	}
	if upd.Rotation != nil {
		d.Rotation = upd.Rotation
	}
	if upd.ImageFormat != nil {
		d.ImageFormat = upd.ImageFormat
	}
	if upd.RefreshRate != nil {
		d.RefreshRate = *upd.RefreshRate
	}
	if upd.Paused != nil {
		d.Paused = *upd.Paused
	}
	if upd.SleepStart != nil {
		d.SleepStart = upd.SleepStart
	}
	if upd.SleepStop != nil {
		d.SleepStop = upd.SleepStop
	}
	if upd.Timezone != nil {
		d.Timezone = *upd.Timezone
	}
	if upd.MirrorDeviceID != nil {
		d.MirrorDeviceID = upd.MirrorDeviceID
	}
	if upd.UpdateFirmware != nil {
		d.UpdateFirmware = *upd.UpdateFirmware
	}
	if upd.ResetFirmware != nil {
		d.ResetFirmware = *upd.ResetFirmware
	}
	if upd.FirmwareURL != nil {
		d.FirmwareURL = upd.FirmwareURL
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) DeleteDevice(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices, id)
	return nil
}

func (s *MemStore) RecordDevicePoll(id int, battery *float64, rssi *int, firmware *string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return ErrNotFound
	}
	if battery != nil {
		d.BatteryVoltage = battery
	}
	if rssi != nil {
		d.RSSI = rssi
	}
	if firmware != nil {
		d.FirmwareVersion = firmware
	}
	seen := seenAt
	d.LastSeen = &seen
	return nil
}

func (s *MemStore) SetDeviceRaster(id int, rasterID string, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return ErrNotFound
	}
	d.CurrentRaster = &rasterID
	at := refreshedAt
	d.LastRefreshed = &at
	return nil
}

func (s *MemStore) ClearFirmwareFlags(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return ErrNotFound
	}
	d.UpdateFirmware = false
	d.ResetFirmware = false
	return nil
}

func (s *MemStore) AnyNonStandardGeometry() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		w, h, r := 800, 480, 0
		if d.ModelName != nil {
			if m, ok := s.models[*d.ModelName]; ok {
				w, h, r = m.Width, m.Height, m.Rotation
			}
		}
		if d.Width != nil {
			w = *d.Width
		}
		if d.Height != nil {
			h = *d.Height
		}
		if d.Rotation != nil {
			r = *d.Rotation
		}
		if w != 800 || h != 480 || r != 0 {
			return true, nil
		}
	}
	return false, nil
}

// --- device models ---

func (s *MemStore) GetDeviceModelByName(name string) (*model.DeviceModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemStore) ListDeviceModels() ([]model.DeviceModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DeviceModel, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) UpsertDeviceModel(m model.DeviceModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.models[m.Name]; ok {
		m.ID = existing.ID
	} else {
		m.ID = s.id()
		m.CreatedAt = time.Now()
	}
	cp := m
	s.models[m.Name] = &cp
	return nil
}

// --- playlists ---

func (s *MemStore) CreatePlaylist(deviceID int, name string, dayMask int, from, until *string, tz string) (model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Playlist{
		ID: s.id(), DeviceID: deviceID, Name: name, IsActive: true,
		DayMask: dayMask, ActiveFrom: from, ActiveUntil: until, Timezone: tz,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.playlists[p.ID] = p
	return *p, nil
}

func (s *MemStore) GetPlaylistByID(id int) (model.Playlist, error) {
	s.mu.Lock()
	p, ok := s.playlists[id]
	if !ok {
		s.mu.Unlock()
		return model.Playlist{}, ErrNotFound
	}
	cp := *p
	s.mu.Unlock()
	items, _ := s.ListPlaylistItems(id)
	cp.Items = items
	return cp, nil
}

func (s *MemStore) ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Playlist
	for _, p := range s.playlists {
		if p.DeviceID == deviceID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) UpdatePlaylist(id int, name *string, isActive *bool, dayMask *int, from, until *string, tz *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return ErrNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if isActive != nil {
		p.IsActive = *isActive
	}
	if dayMask != nil {
		p.DayMask = *dayMask
	}
	if from != nil {
		p.ActiveFrom = from
	}
	if until != nil {
		p.ActiveUntil = until
	}
	if tz != nil {
		p.Timezone = *tz
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) DeletePlaylist(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playlists, id)
	for itemID, it := range s.items {
		if it.PlaylistID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

// --- playlist items ---

func (s *MemStore) AddPlaylistItem(playlistID int, pluginID, mashupID *int, orderIndex int, durationOverride *int) (model.PlaylistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := &model.PlaylistItem{
		ID: s.id(), PlaylistID: playlistID, PluginID: pluginID,
		MashupID: mashupID, IsActive: true, OrderIndex: orderIndex,
		DurationOverride: durationOverride, CreatedAt: time.Now(),
	}
	s.items[it.ID] = it
	return *it, nil
}

func (s *MemStore) ListPlaylistItems(playlistID int) ([]model.PlaylistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PlaylistItem
	for _, it := range s.items {
		if it.PlaylistID == playlistID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *MemStore) UpdatePlaylistItem(itemID int, isActive *bool, orderIndex, durationOverride *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return ErrNotFound
	}
	if isActive != nil {
		it.IsActive = *isActive
	}
	if orderIndex != nil {
		it.OrderIndex = *orderIndex
	}
	if durationOverride != nil {
		it.DurationOverride = durationOverride
	}
	return nil
}

func (s *MemStore) RemovePlaylistItem(itemID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, itemID)
	return nil
}

func (s *MemStore) ReorderPlaylistItems(playlistID int, itemIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, itemID := range itemIDs {
		if it, ok := s.items[itemID]; ok && it.PlaylistID == playlistID {
			it.OrderIndex = idx + 1
		}
	}
	return nil
}

func (s *MemStore) TouchItemDisplayed(itemID int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return ErrNotFound
	}
	if it.LastDisplayedAt == nil || at.After(*it.LastDisplayedAt) {
		stamp := at
		it.LastDisplayedAt = &stamp
	}
	return nil
}

// --- plugins ---

func (s *MemStore) CreatePlugin(name, strategy string, stalenessMinutes int, config model.ConfigMap) (model.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Plugin{
		ID: s.id(), Name: name, Strategy: strategy,
		StalenessMinutes: stalenessMinutes, Config: config,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.plugins[p.ID] = p
	return *p, nil
}

func (s *MemStore) GetPluginByID(id int) (model.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return model.Plugin{}, ErrNotFound
	}
	return *p, nil
}

func (s *MemStore) ListPlugins() ([]model.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Plugin, 0, len(s.plugins))
	for _, p := range s.plugins {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListPluginsByIDs(ids []int) ([]model.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Plugin, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.plugins[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemStore) UpdatePlugin(id int, upd PluginUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Strategy != nil {
		p.Strategy = *upd.Strategy
	}
	if upd.PollingURL != nil {
		p.PollingURL = upd.PollingURL
	}
	if upd.PollingHeaders != nil {
		p.PollingHeaders = upd.PollingHeaders
	}
	if upd.PollingBody != nil {
		p.PollingBody = upd.PollingBody
	}
	if upd.StalenessMinutes != nil {
		p.StalenessMinutes = *upd.StalenessMinutes
	}
	if upd.Config != nil {
		p.Config = upd.Config
	}
	if upd.Markup != nil {
		p.Markup = upd.Markup
	}
	if upd.MarkupShared != nil {
		p.MarkupShared = upd.MarkupShared
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) DeletePlugin(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plugins, id)
	return nil
}

func (s *MemStore) SetPluginData(id int, data model.ConfigMap, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return ErrNotFound
	}
	p.Data = data
	stamp := at
	p.DataUpdatedAt = &stamp
	return nil
}

func (s *MemStore) SetPluginRaster(id int, rasterID, scope string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return ErrNotFound
	}
	p.CachedRaster = &rasterID
	p.CachedRasterScope = &scope
	stamp := at
	p.RasterGeneratedAt = &stamp
	return nil
}

func (s *MemStore) ClearPluginRaster(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return ErrNotFound
	}
	p.CachedRaster = nil
	p.CachedRasterScope = nil
	p.RasterGeneratedAt = nil
	return nil
}

// --- mashups ---

func (s *MemStore) CreateMashup(name, layout string, pluginIDs []int) (model.Mashup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &model.Mashup{
		ID: s.id(), Name: name, Layout: layout,
		PluginIDs: append([]int(nil), pluginIDs...),
		CreatedAt: time.Now(),
	}
	s.mashups[m.ID] = m
	return *m, nil
}

func (s *MemStore) GetMashupByID(id int) (model.Mashup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mashups[id]
	if !ok {
		return model.Mashup{}, ErrNotFound
	}
	return *m, nil
}

func (s *MemStore) DeleteMashup(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mashups, id)
	return nil
}

func (s *MemStore) ReferencedRasters() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{})
	for _, d := range s.devices {
		if d.CurrentRaster != nil {
			out[*d.CurrentRaster] = struct{}{}
		}
	}
	for _, p := range s.plugins {
		if p.CachedRaster != nil {
			out[*p.CachedRaster] = struct{}{}
		}
	}
	return out, nil
}

package display

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/content"
	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/geometry"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/raster"
	"github.com/inkwell-labs/inkwell/internal/render"
)

// Assets are the pre-baked raster URLs served when there is nothing to
// resolve: the setup screen for unconfigured devices, the sleep screen and
// the hard-failure screen.
type Assets struct {
	Setup string
	Sleep string
	Error string
}

// Resolution is the display decision for one device poll.
type Resolution struct {
	// RasterID is empty when a pre-baked asset was served.
	RasterID    string `json:"-"`
	ImageURL    string `json:"image_url"`
	Filename    string `json:"filename"`
	RefreshRate int    `json:"refresh_rate"`
	// Sleeping marks the sleep screen so the poll response can carry the
	// sleep indicator.
	Sleeping bool `json:"-"`
	// Legacy is set for devices that only understand the BMP container.
	Legacy bool `json:"-"`
}

// Engine resolves what a device should display right now: schedule, content
// freshness, rendering and raster caching, in that order.
type Engine struct {
	store   db.Store
	content *content.Service
	cache   *raster.Cache
	assets  Assets
	now     func() time.Time
}

func NewEngine(store db.Store, contentSvc *content.Service, cache *raster.Cache, assets Assets) *Engine {
	return &Engine{
		store:   store,
		content: contentSvc,
		cache:   cache,
		assets:  assets,
		now:     time.Now,
	}
}

// Now exposes the engine clock so callers stamp poll times consistently.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Mirrors chain through at most this many devices before the walk gives up
// and the last device's own schedule applies.
const maxMirrorDepth = 4

// ResolveForDevice computes the display decision for a device. With mutate
// set the round-robin cursor advances and the device's current raster is
// recorded; read-only callers leave both untouched.
func (e *Engine) ResolveForDevice(ctx context.Context, d model.Device, mutate bool) (Resolution, error) {
	screen, err := e.screenFor(&d)
	if err != nil {
		return Resolution{}, err
	}
	legacy := screen.Format == geometry.FormatBMP

	if d.Paused || e.asleep(&d) {
		res := e.static(e.assets.Sleep, e.sleepRefresh(&d))
		res.Sleeping = true
		res.Legacy = legacy
		return res, nil
	}

	// A mirroring device reuses the source's last resolved raster and never
	// advances the source's schedule on its own behalf.
	src := d
	for depth := 0; src.MirrorDeviceID != nil && depth < maxMirrorDepth; depth++ {
		next, err := e.store.GetDeviceByID(*src.MirrorDeviceID)
		if err != nil {
			log.Warn().Int("device_id", src.ID).Int("mirror_id", *src.MirrorDeviceID).Msg("mirror source missing, using own schedule")
			break
		}
		src = next
	}
	if src.ID != d.ID && src.CurrentRaster != nil && *src.CurrentRaster != "" {
		res := Resolution{
			RasterID:    *src.CurrentRaster,
			ImageURL:    e.cache.RasterURL(*src.CurrentRaster),
			Filename:    *src.CurrentRaster,
			RefreshRate: d.RefreshRate,
			Legacy:      legacy,
		}
		if mutate {
			if err := e.store.SetDeviceRaster(d.ID, res.RasterID, e.now()); err != nil {
				log.Error().Err(err).Int("device_id", d.ID).Msg("failed to record current raster")
			}
		}
		return res, nil
	}

	item, ok, err := e.nextItem(src.ID)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		res := e.static(e.assets.Setup, d.RefreshRate)
		res.Legacy = legacy
		return res, nil
	}

	r, err := e.renderItem(ctx, item, screen)
	if errors.Is(err, render.ErrRenderFailed) {
		log.Error().Err(err).Int("device_id", d.ID).Msg("renderer unavailable, serving error screen")
		res := e.static(e.assets.Error, d.RefreshRate)
		res.Legacy = legacy
		return res, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	if mutate {
		at := e.now()
		// A mirror bootstrapping off a source that never polled renders the
		// source's next item but leaves its cursor alone.
		if src.ID == d.ID {
			if err := e.store.TouchItemDisplayed(item.ID, at); err != nil {
				log.Error().Err(err).Int("item_id", item.ID).Msg("failed to advance playlist cursor")
			}
		}
		if err := e.store.SetDeviceRaster(d.ID, r.ID, at); err != nil {
			log.Error().Err(err).Int("device_id", d.ID).Msg("failed to record current raster")
		}
	}

	refresh := d.RefreshRate
	if item.DurationOverride != nil && *item.DurationOverride > 0 {
		refresh = *item.DurationOverride
	}
	return Resolution{RasterID: r.ID, ImageURL: r.URL, Filename: r.ID, RefreshRate: refresh, Legacy: legacy}, nil
}

// nextItem walks the device's playlists in id order, takes the first one
// whose activation window covers now, and picks its least recently displayed
// active item. Items never shown sort first; ties fall back to order index.
func (e *Engine) nextItem(deviceID int) (model.PlaylistItem, bool, error) {
	playlists, err := e.store.ListPlaylistsForDevice(deviceID)
	if err != nil {
		return model.PlaylistItem{}, false, err
	}

	for _, pl := range playlists {
		if !pl.IsActive {
			continue
		}
		if !WindowActive(e.now(), pl.Timezone, pl.DayMask, pl.ActiveFrom, pl.ActiveUntil) {
			continue
		}
		items, err := e.store.ListPlaylistItems(pl.ID)
		if err != nil {
			return model.PlaylistItem{}, false, err
		}
		if item, ok := pickNext(items); ok {
			return item, true, nil
		}
		// An active playlist with no playable items falls through to the
		// next window.
	}
	return model.PlaylistItem{}, false, nil
}

// pickNext expects items sorted by order index, so with equal cursors the
// lower index wins.
func pickNext(items []model.PlaylistItem) (model.PlaylistItem, bool) {
	var best *model.PlaylistItem
	for i := range items {
		it := &items[i]
		if !it.IsActive || (it.PluginID == nil && it.MashupID == nil) {
			continue
		}
		if best == nil || cursorBefore(it, best) {
			best = it
		}
	}
	if best == nil {
		return model.PlaylistItem{}, false
	}
	return *best, true
}

func cursorBefore(a, b *model.PlaylistItem) bool {
	switch {
	case a.LastDisplayedAt == nil && b.LastDisplayedAt == nil:
		return false
	case a.LastDisplayedAt == nil:
		return true
	case b.LastDisplayedAt == nil:
		return false
	default:
		return a.LastDisplayedAt.Before(*b.LastDisplayedAt)
	}
}

func (e *Engine) renderItem(ctx context.Context, it model.PlaylistItem, screen geometry.Screen) (raster.Raster, error) {
	if it.PluginID != nil {
		p, err := e.store.GetPluginByID(*it.PluginID)
		if err != nil {
			return raster.Raster{}, err
		}
		p, err = e.content.EnsureFresh(ctx, p)
		if err != nil {
			return raster.Raster{}, err
		}
		return e.cache.PluginRaster(ctx, &p, screen)
	}

	m, err := e.store.GetMashupByID(*it.MashupID)
	if err != nil {
		return raster.Raster{}, err
	}
	plugins, err := e.store.ListPluginsByIDs(m.PluginIDs)
	if err != nil {
		return raster.Raster{}, err
	}
	for i := range plugins {
		plugins[i], err = e.content.EnsureFresh(ctx, plugins[i])
		if err != nil {
			return raster.Raster{}, err
		}
	}
	return e.cache.MashupRaster(ctx, &m, plugins, screen)
}

func (e *Engine) screenFor(d *model.Device) (geometry.Screen, error) {
	var dm *model.DeviceModel
	if d.ModelName != nil && *d.ModelName != "" {
		m, err := e.store.GetDeviceModelByName(*d.ModelName)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return geometry.Screen{}, err
		}
		dm = m
	}
	return geometry.Resolve(d, dm), nil
}

// A sleeping device's next poll lands at the end of its window, capped so
// pauses and config changes are still picked up within the hour.
const maxSleepRefresh = 3600

func (e *Engine) sleepRefresh(d *model.Device) int {
	if d.SleepStop == nil || *d.SleepStop == "" {
		return maxSleepRefresh
	}
	stop, ok := parseClock(*d.SleepStop)
	if !ok {
		return maxSleepRefresh
	}
	local := e.now().In(loadLocation(d.Timezone))
	remaining := stop - (local.Hour()*60 + local.Minute())
	if remaining <= 0 {
		remaining += 24 * 60
	}
	if secs := remaining * 60; secs < maxSleepRefresh {
		return secs
	}
	return maxSleepRefresh
}

// asleep reports whether the device is inside its sleep window. Devices
// without both bounds never sleep.
func (e *Engine) asleep(d *model.Device) bool {
	if d.SleepStart == nil || d.SleepStop == nil || *d.SleepStart == "" || *d.SleepStop == "" {
		return false
	}
	return WindowActive(e.now(), d.Timezone, 0, d.SleepStart, d.SleepStop)
}

func (e *Engine) static(url string, refresh int) Resolution {
	return Resolution{ImageURL: url, Filename: path.Base(url), RefreshRate: refresh}
}

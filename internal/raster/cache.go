package raster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/content"
	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/geometry"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/storage"
)

// Renderer produces the native-resolution bitmap for a content unit.
// Satisfied by render.Pipeline.
type Renderer interface {
	RenderPlugin(ctx context.Context, p *model.Plugin) ([]byte, error)
	RenderMashup(ctx context.Context, m *model.Mashup, plugins []model.Plugin) ([]byte, error)
}

// Raster is a stored, device-ready image.
type Raster struct {
	ID  string
	URL string
}

// Cache generates rasters and reuses them while the underlying content is
// fresh. Plugin rasters persist across restarts through the store; mashup
// rasters are memoized in process only.
type Cache struct {
	store    db.Store
	files    storage.Storage
	codec    Codec
	renderer Renderer
	memo     *gocache.Cache
	now      func() time.Time
}

func NewCache(store db.Store, files storage.Storage, codec Codec, renderer Renderer) *Cache {
	return &Cache{
		store:    store,
		files:    files,
		codec:    codec,
		renderer: renderer,
		memo:     gocache.New(30*time.Minute, 10*time.Minute),
		now:      time.Now,
	}
}

// RasterURL rebuilds the public URL for a stored raster id.
func (c *Cache) RasterURL(id string) string {
	return c.files.URL(id)
}

// PluginRaster returns a raster for the plugin at the given geometry,
// reusing the cached one when it is still valid. On codec or storage failure
// the previously cached raster is left untouched.
func (c *Cache) PluginRaster(ctx context.Context, p *model.Plugin, screen geometry.Screen) (Raster, error) {
	scope := screen.Class()
	if r, ok := c.validPluginRaster(p, scope); ok {
		return r, nil
	}

	bmp, err := c.renderer.RenderPlugin(ctx, p)
	if err != nil {
		return Raster{}, err
	}

	r, err := c.encodeAndStore(ctx, bmp, screen)
	if err != nil {
		return Raster{}, err
	}
	if err := c.store.SetPluginRaster(p.ID, r.ID, scope, c.now()); err != nil {
		log.Error().Err(err).Int("plugin_id", p.ID).Msg("failed to record plugin raster")
	}
	return r, nil
}

// validPluginRaster checks the persisted raster against the requested scope,
// content freshness and the shared-scope fleet guard.
func (c *Cache) validPluginRaster(p *model.Plugin, scope string) (Raster, bool) {
	if p.CachedRaster == nil || p.CachedRasterScope == nil || *p.CachedRasterScope != scope {
		return Raster{}, false
	}
	if content.Stale(p, c.now()) {
		return Raster{}, false
	}
	if p.RasterGeneratedAt != nil && p.DataUpdatedAt != nil && p.DataUpdatedAt.After(*p.RasterGeneratedAt) {
		return Raster{}, false
	}
	if scope == "standard" {
		nonStandard, err := c.store.AnyNonStandardGeometry()
		if err != nil || nonStandard {
			// With mixed geometries in the fleet, regenerate rather than
			// risk serving a raster shaped for a different panel.
			return Raster{}, false
		}
	}
	return Raster{ID: *p.CachedRaster, URL: c.files.URL(*p.CachedRaster)}, true
}

type mashupEntry struct {
	raster      Raster
	generatedAt time.Time
}

// MashupRaster returns a raster for the composed mashup, reusing the
// memoized one while every sub-plugin's data predates it and stays fresh.
func (c *Cache) MashupRaster(ctx context.Context, m *model.Mashup, plugins []model.Plugin, screen geometry.Screen) (Raster, error) {
	key := fmt.Sprintf("mashup:%d:%s", m.ID, screen.Class())
	if v, ok := c.memo.Get(key); ok {
		entry := v.(mashupEntry)
		if c.mashupEntryValid(entry, plugins, screen) {
			return entry.raster, nil
		}
	}

	bmp, err := c.renderer.RenderMashup(ctx, m, plugins)
	if err != nil {
		return Raster{}, err
	}

	r, err := c.encodeAndStore(ctx, bmp, screen)
	if err != nil {
		return Raster{}, err
	}
	c.memo.Set(key, mashupEntry{raster: r, generatedAt: c.now()}, gocache.DefaultExpiration)
	return r, nil
}

func (c *Cache) mashupEntryValid(entry mashupEntry, plugins []model.Plugin, screen geometry.Screen) bool {
	for i := range plugins {
		p := &plugins[i]
		if content.Stale(p, c.now()) {
			return false
		}
		if p.DataUpdatedAt != nil && p.DataUpdatedAt.After(entry.generatedAt) {
			return false
		}
	}
	if screen.IsStandard() {
		nonStandard, err := c.store.AnyNonStandardGeometry()
		if err != nil || nonStandard {
			return false
		}
	}
	return true
}

func (c *Cache) encodeAndStore(ctx context.Context, bmp []byte, screen geometry.Screen) (Raster, error) {
	data, err := c.codec.Encode(ctx, bmp, OptionsFor(screen))
	if err != nil {
		return Raster{}, fmt.Errorf("encode raster: %w", err)
	}
	name := fmt.Sprintf("%s.%s", uuid.NewString(), screen.Ext())
	url, err := c.files.Save(name, data, screen.MimeType())
	if err != nil {
		return Raster{}, fmt.Errorf("store raster: %w", err)
	}
	return Raster{ID: name, URL: url}, nil
}

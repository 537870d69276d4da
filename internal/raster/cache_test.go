package raster

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/geometry"
	"github.com/inkwell-labs/inkwell/internal/model"
)

func intPtr(i int) *int { return &i }

type memStorage struct {
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Save(name string, data []byte, _ string) (string, error) {
	m.files[name] = data
	return m.URL(name), nil
}

func (m *memStorage) URL(name string) string { return "http://cdn.test/rasters/" + name }

func (m *memStorage) Delete(name string) error {
	delete(m.files, name)
	return nil
}

func (m *memStorage) List() ([]string, error) {
	var names []string
	for name := range m.files {
		names = append(names, name)
	}
	return names, nil
}

type fakeCodec struct {
	calls int
	fail  bool
	last  EncodeOptions
}

func (c *fakeCodec) Encode(_ context.Context, image []byte, opts EncodeOptions) ([]byte, error) {
	c.calls++
	c.last = opts
	if c.fail {
		return nil, errors.New("codec down")
	}
	return append([]byte("enc:"), image...), nil
}

type fakeRenderer struct {
	renders int
}

func (r *fakeRenderer) RenderPlugin(_ context.Context, p *model.Plugin) ([]byte, error) {
	r.renders++
	return []byte("bmp:" + p.Name), nil
}

func (r *fakeRenderer) RenderMashup(_ context.Context, m *model.Mashup, _ []model.Plugin) ([]byte, error) {
	r.renders++
	return []byte(fmt.Sprintf("mashup:%d", m.ID)), nil
}

func newTestCache(store db.Store) (*Cache, *fakeRenderer, *fakeCodec, *memStorage) {
	renderer := &fakeRenderer{}
	codec := &fakeCodec{}
	files := newMemStorage()
	c := NewCache(store, files, codec, renderer)
	return c, renderer, codec, files
}

func freshPullPlugin(t *testing.T, store *db.MemStore, at time.Time) model.Plugin {
	t.Helper()
	p, err := store.CreatePlugin("weather", model.StrategyPull, 30, nil)
	require.NoError(t, err)
	require.NoError(t, store.SetPluginData(p.ID, model.ConfigMap{"temp": 20}, at))
	p, err = store.GetPluginByID(p.ID)
	require.NoError(t, err)
	return p
}

func standardScreen() geometry.Screen {
	return geometry.Resolve(&model.Device{}, nil)
}

func TestPluginRasterReusedWhileFresh(t *testing.T) {
	now := time.Now()
	store := db.NewMemStore()
	p := freshPullPlugin(t, store, now)
	c, renderer, _, _ := newTestCache(store)
	c.now = func() time.Time { return now }

	r1, err := c.PluginRaster(context.Background(), &p, standardScreen())
	require.NoError(t, err)
	assert.Equal(t, 1, renderer.renders)

	// Second poll inside the staleness window serves the same file.
	p, _ = store.GetPluginByID(p.ID)
	r2, err := c.PluginRaster(context.Background(), &p, standardScreen())
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)
	assert.Equal(t, 1, renderer.renders, "no re-render while fresh")

	// Once the staleness window lapses a new raster is generated.
	c.now = func() time.Time { return now.Add(31 * time.Minute) }
	p, _ = store.GetPluginByID(p.ID)
	r3, err := c.PluginRaster(context.Background(), &p, standardScreen())
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r3.ID)
	assert.Equal(t, 2, renderer.renders)
}

func TestPluginRasterScopeMismatchRegenerates(t *testing.T) {
	now := time.Now()
	store := db.NewMemStore()
	p := freshPullPlugin(t, store, now)
	c, renderer, codec, _ := newTestCache(store)
	c.now = func() time.Time { return now }

	_, err := c.PluginRaster(context.Background(), &p, standardScreen())
	require.NoError(t, err)

	// A rotated panel cannot reuse the standard-scope raster.
	rotated := geometry.Resolve(&model.Device{Rotation: intPtr(90)}, nil)
	p, _ = store.GetPluginByID(p.ID)
	_, err = c.PluginRaster(context.Background(), &p, rotated)
	require.NoError(t, err)
	assert.Equal(t, 2, renderer.renders)
	assert.Equal(t, 90, codec.last.Rotation)

	stored, _ := store.GetPluginByID(p.ID)
	assert.Equal(t, "800x480_r90", *stored.CachedRasterScope)
}

func TestNonStandardFleetDisablesSharedReuse(t *testing.T) {
	now := time.Now()
	store := db.NewMemStore()
	p := freshPullPlugin(t, store, now)
	c, renderer, _, _ := newTestCache(store)
	c.now = func() time.Time { return now }

	_, err := c.PluginRaster(context.Background(), &p, standardScreen())
	require.NoError(t, err)

	// A single odd panel in the fleet turns off shared reuse.
	d, _ := store.CreateDevice("AA:BB:CC:DD:EE:FF", "odd", "key")
	require.NoError(t, store.UpdateDevice(d.ID, db.DeviceUpdate{Width: intPtr(640)}))

	p, _ = store.GetPluginByID(p.ID)
	_, err = c.PluginRaster(context.Background(), &p, standardScreen())
	require.NoError(t, err)
	assert.Equal(t, 2, renderer.renders, "shared raster not trusted with mixed geometries")
}

func TestPluginRasterCodecFailureKeepsPrevious(t *testing.T) {
	now := time.Now()
	store := db.NewMemStore()
	p := freshPullPlugin(t, store, now)
	c, _, codec, _ := newTestCache(store)
	c.now = func() time.Time { return now }

	r1, err := c.PluginRaster(context.Background(), &p, standardScreen())
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(31 * time.Minute) }
	codec.fail = true
	p, _ = store.GetPluginByID(p.ID)
	_, err = c.PluginRaster(context.Background(), &p, standardScreen())
	require.Error(t, err)

	stored, _ := store.GetPluginByID(p.ID)
	require.NotNil(t, stored.CachedRaster)
	assert.Equal(t, r1.ID, *stored.CachedRaster, "failed regeneration leaves the old raster in place")
}

func TestMashupRasterMemoized(t *testing.T) {
	now := time.Now()
	store := db.NewMemStore()
	p := freshPullPlugin(t, store, now)
	m, err := store.CreateMashup("dashboard", "single", []int{p.ID})
	require.NoError(t, err)
	c, renderer, _, _ := newTestCache(store)
	c.now = func() time.Time { return now }

	r1, err := c.MashupRaster(context.Background(), &m, []model.Plugin{p}, standardScreen())
	require.NoError(t, err)
	r2, err := c.MashupRaster(context.Background(), &m, []model.Plugin{p}, standardScreen())
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)
	assert.Equal(t, 1, renderer.renders)

	// New data in any sub-unit invalidates the composite.
	later := now.Add(time.Minute)
	require.NoError(t, store.SetPluginData(p.ID, model.ConfigMap{"temp": 25}, later))
	p, _ = store.GetPluginByID(p.ID)
	c.now = func() time.Time { return later }
	r3, err := c.MashupRaster(context.Background(), &m, []model.Plugin{p}, standardScreen())
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r3.ID)
	assert.Equal(t, 2, renderer.renders)
}

func TestSweepRemovesOrphans(t *testing.T) {
	store := db.NewMemStore()
	files := newMemStorage()

	d, _ := store.CreateDevice("AA:BB:CC:00:11:22", "dev", "key")
	require.NoError(t, store.SetDeviceRaster(d.ID, "kept-device.png", time.Now()))
	p, _ := store.CreatePlugin("clock", model.StrategyStatic, 0, nil)
	require.NoError(t, store.SetPluginRaster(p.ID, "kept-plugin.png", "standard", time.Now()))

	for _, name := range []string{"kept-device.png", "kept-plugin.png", "orphan.png"} {
		_, err := files.Save(name, []byte("x"), "image/png")
		require.NoError(t, err)
	}

	removed, err := Sweep(store, files)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	left, _ := files.List()
	assert.ElementsMatch(t, []string{"kept-device.png", "kept-plugin.png"}, left)
}

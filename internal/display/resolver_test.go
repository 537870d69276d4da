package display

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/content"
	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/raster"
	"github.com/inkwell-labs/inkwell/internal/render"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

type fakeStorage struct {
	files map[string][]byte
}

func (f *fakeStorage) Save(name string, data []byte, _ string) (string, error) {
	f.files[name] = data
	return f.URL(name), nil
}
func (f *fakeStorage) URL(name string) string { return "http://test/rasters/" + name }
func (f *fakeStorage) Delete(name string) error {
	delete(f.files, name)
	return nil
}
func (f *fakeStorage) List() ([]string, error) { return nil, nil }

type fakeCodec struct{}

func (fakeCodec) Encode(_ context.Context, image []byte, _ raster.EncodeOptions) ([]byte, error) {
	return image, nil
}

type fakeRenderer struct {
	rendered []string
	fail     bool
}

func (r *fakeRenderer) RenderPlugin(_ context.Context, p *model.Plugin) ([]byte, error) {
	if r.fail {
		return nil, render.ErrRenderFailed
	}
	r.rendered = append(r.rendered, p.Name)
	return []byte("bmp:" + p.Name), nil
}

func (r *fakeRenderer) RenderMashup(_ context.Context, m *model.Mashup, _ []model.Plugin) ([]byte, error) {
	if r.fail {
		return nil, render.ErrRenderFailed
	}
	r.rendered = append(r.rendered, m.Name)
	return []byte("bmp:" + m.Name), nil
}

var testAssets = Assets{
	Setup: "http://test/assets/setup.png",
	Sleep: "http://test/assets/sleep.png",
	Error: "http://test/assets/error.png",
}

func newTestEngine(store db.Store) (*Engine, *fakeRenderer) {
	renderer := &fakeRenderer{}
	cache := raster.NewCache(store, &fakeStorage{files: make(map[string][]byte)}, fakeCodec{}, renderer)
	e := NewEngine(store, content.NewService(store), cache, testAssets)
	return e, renderer
}

func newDeviceWithPlaylist(t *testing.T, store *db.MemStore, pluginNames ...string) (model.Device, model.Playlist, []model.Plugin) {
	t.Helper()
	d, err := store.CreateDevice("AA:BB:CC:DD:EE:01", "ABC123", "key-1")
	require.NoError(t, err)
	pl, err := store.CreatePlaylist(d.ID, "default", 0, nil, nil, "UTC")
	require.NoError(t, err)
	plugins := make([]model.Plugin, 0, len(pluginNames))
	for i, name := range pluginNames {
		p, err := store.CreatePlugin(name, model.StrategyStatic, 0, nil)
		require.NoError(t, err)
		require.NoError(t, store.UpdatePlugin(p.ID, db.PluginUpdate{Markup: strPtr("<b>" + name + "</b>")}))
		_, err = store.AddPlaylistItem(pl.ID, &p.ID, nil, i+1, nil)
		require.NoError(t, err)
		plugins = append(plugins, p)
	}
	return d, pl, plugins
}

func TestResolveRoundRobin(t *testing.T) {
	store := db.NewMemStore()
	d, _, _ := newDeviceWithPlaylist(t, store, "one", "two")
	e, renderer := newTestEngine(store)

	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return t0 }

	r1, err := e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)

	e.now = func() time.Time { return t0.Add(15 * time.Minute) }
	_, err = e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)

	e.now = func() time.Time { return t0.Add(30 * time.Minute) }
	r3, err := e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, renderer.rendered, "third poll reuses the cached raster for one")
	assert.Equal(t, r1.RasterID, r3.RasterID, "same content, same file")
}

func TestResolveReadOnlyLeavesCursorAlone(t *testing.T) {
	store := db.NewMemStore()
	d, pl, _ := newDeviceWithPlaylist(t, store, "one", "two")
	e, _ := newTestEngine(store)

	_, err := e.ResolveForDevice(context.Background(), d, false)
	require.NoError(t, err)

	items, _ := store.ListPlaylistItems(pl.ID)
	for _, it := range items {
		assert.Nil(t, it.LastDisplayedAt)
	}
	stored, _ := store.GetDeviceByID(d.ID)
	assert.Nil(t, stored.CurrentRaster)
}

func TestResolveWindowGating(t *testing.T) {
	store := db.NewMemStore()
	d, err := store.CreateDevice("AA:BB:CC:DD:EE:02", "DEF456", "key-2")
	require.NoError(t, err)

	// Weekday playlist first, weekend playlist second.
	weekday, err := store.CreatePlaylist(d.ID, "weekday", 0b0111110, nil, nil, "UTC")
	require.NoError(t, err)
	weekend, err := store.CreatePlaylist(d.ID, "weekend", 0b1000001, nil, nil, "UTC")
	require.NoError(t, err)

	pw, _ := store.CreatePlugin("work", model.StrategyStatic, 0, nil)
	store.UpdatePlugin(pw.ID, db.PluginUpdate{Markup: strPtr("w")})
	ps, _ := store.CreatePlugin("leisure", model.StrategyStatic, 0, nil)
	store.UpdatePlugin(ps.ID, db.PluginUpdate{Markup: strPtr("l")})
	_, err = store.AddPlaylistItem(weekday.ID, &pw.ID, nil, 1, nil)
	require.NoError(t, err)
	_, err = store.AddPlaylistItem(weekend.ID, &ps.ID, nil, 1, nil)
	require.NoError(t, err)

	e, renderer := newTestEngine(store)

	// 2026-03-01 is a Sunday.
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	_, err = e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"leisure"}, renderer.rendered)

	e.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	_, err = e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"leisure", "work"}, renderer.rendered)
}

func TestResolveNoScheduleServesSetup(t *testing.T) {
	store := db.NewMemStore()
	d, err := store.CreateDevice("AA:BB:CC:DD:EE:03", "GHI789", "key-3")
	require.NoError(t, err)
	e, _ := newTestEngine(store)

	res, err := e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, testAssets.Setup, res.ImageURL)
	assert.Equal(t, "setup.png", res.Filename)
	assert.Equal(t, d.RefreshRate, res.RefreshRate)
}

func TestResolvePausedServesSleep(t *testing.T) {
	store := db.NewMemStore()
	d, _, _ := newDeviceWithPlaylist(t, store, "one")
	require.NoError(t, store.UpdateDevice(d.ID, db.DeviceUpdate{Paused: boolPtr(true)}))
	d, _ = store.GetDeviceByID(d.ID)

	e, renderer := newTestEngine(store)
	res, err := e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, testAssets.Sleep, res.ImageURL)
	assert.Equal(t, 3600, res.RefreshRate, "open-ended pause polls again within the hour")
	assert.Empty(t, renderer.rendered)
}

func TestResolveSleepWindow(t *testing.T) {
	store := db.NewMemStore()
	d, _, _ := newDeviceWithPlaylist(t, store, "one")
	require.NoError(t, store.UpdateDevice(d.ID, db.DeviceUpdate{
		SleepStart: strPtr("22:00"),
		SleepStop:  strPtr("06:00"),
	}))
	d, _ = store.GetDeviceByID(d.ID)

	e, renderer := newTestEngine(store)

	// Inside the wrapping overnight window.
	e.now = func() time.Time { return time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC) }
	res, err := e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, testAssets.Sleep, res.ImageURL)
	assert.Equal(t, 3600, res.RefreshRate, "capped: the window ends hours away")

	// Close to the end of the window the poll lands on the wakeup.
	e.now = func() time.Time { return time.Date(2026, 3, 2, 5, 45, 0, 0, time.UTC) }
	res, err = e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, 15*60, res.RefreshRate)

	// Awake at midday.
	e.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	_, err = e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, renderer.rendered)
}

func TestResolveMirrorReusesSourceRaster(t *testing.T) {
	store := db.NewMemStore()
	src, pl, _ := newDeviceWithPlaylist(t, store, "shared")
	mirror, err := store.CreateDevice("AA:BB:CC:DD:EE:04", "JKL012", "key-4")
	require.NoError(t, err)
	require.NoError(t, store.UpdateDevice(mirror.ID, db.DeviceUpdate{MirrorDeviceID: &src.ID}))
	mirror, _ = store.GetDeviceByID(mirror.ID)

	e, renderer := newTestEngine(store)
	srcRes, err := e.ResolveForDevice(context.Background(), src, true)
	require.NoError(t, err)
	require.NotEmpty(t, srcRes.RasterID)

	res, err := e.ResolveForDevice(context.Background(), mirror, true)
	require.NoError(t, err)
	assert.Equal(t, srcRes.RasterID, res.RasterID)
	assert.Equal(t, []string{"shared"}, renderer.rendered, "mirror poll triggers no render of its own")

	stored, _ := store.GetDeviceByID(mirror.ID)
	require.NotNil(t, stored.CurrentRaster)
	assert.Equal(t, res.RasterID, *stored.CurrentRaster)

	srcItems, _ := store.ListPlaylistItems(pl.ID)
	require.Len(t, srcItems, 1)
	firstSeen := srcItems[0].LastDisplayedAt
	require.NotNil(t, firstSeen)

	_, err = e.ResolveForDevice(context.Background(), mirror, true)
	require.NoError(t, err)
	srcItems, _ = store.ListPlaylistItems(pl.ID)
	assert.Equal(t, *firstSeen, *srcItems[0].LastDisplayedAt, "mirror polls never advance the source cursor")
}

func TestResolveMirrorBootstrapsBeforeSourcePolls(t *testing.T) {
	store := db.NewMemStore()
	src, pl, _ := newDeviceWithPlaylist(t, store, "shared")
	mirror, err := store.CreateDevice("AA:BB:CC:DD:EE:06", "PQR678", "key-6")
	require.NoError(t, err)
	require.NoError(t, store.UpdateDevice(mirror.ID, db.DeviceUpdate{MirrorDeviceID: &src.ID}))
	mirror, _ = store.GetDeviceByID(mirror.ID)

	e, renderer := newTestEngine(store)
	res, err := e.ResolveForDevice(context.Background(), mirror, true)
	require.NoError(t, err)
	require.NotEmpty(t, res.RasterID)
	assert.Equal(t, []string{"shared"}, renderer.rendered)

	items, _ := store.ListPlaylistItems(pl.ID)
	assert.Nil(t, items[0].LastDisplayedAt, "bootstrapping render leaves the source cursor alone")
}

func TestResolveRendererDownServesErrorScreen(t *testing.T) {
	store := db.NewMemStore()
	d, _, _ := newDeviceWithPlaylist(t, store, "one")
	e, renderer := newTestEngine(store)
	renderer.fail = true

	res, err := e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err, "renderer outage is absorbed")
	assert.Equal(t, testAssets.Error, res.ImageURL)
}

func TestResolveDurationOverride(t *testing.T) {
	store := db.NewMemStore()
	d, err := store.CreateDevice("AA:BB:CC:DD:EE:05", "MNO345", "key-5")
	require.NoError(t, err)
	pl, err := store.CreatePlaylist(d.ID, "default", 0, nil, nil, "UTC")
	require.NoError(t, err)
	p, _ := store.CreatePlugin("slow", model.StrategyStatic, 0, nil)
	store.UpdatePlugin(p.ID, db.PluginUpdate{Markup: strPtr("s")})
	_, err = store.AddPlaylistItem(pl.ID, &p.ID, nil, 1, intPtr(3600))
	require.NoError(t, err)

	e, _ := newTestEngine(store)
	res, err := e.ResolveForDevice(context.Background(), d, true)
	require.NoError(t, err)
	assert.Equal(t, 3600, res.RefreshRate)
}

func boolPtr(b bool) *bool { return &b }

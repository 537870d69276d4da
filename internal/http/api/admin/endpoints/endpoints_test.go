package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/content"
	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/display"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/raster"
)

type stubStorage struct{}

func (stubStorage) Save(name string, _ []byte, _ string) (string, error) {
	return "http://test/rasters/" + name, nil
}
func (stubStorage) URL(name string) string  { return "http://test/rasters/" + name }
func (stubStorage) Delete(string) error     { return nil }
func (stubStorage) List() ([]string, error) { return nil, nil }

type stubCodec struct{}

func (stubCodec) Encode(_ context.Context, image []byte, _ raster.EncodeOptions) ([]byte, error) {
	return image, nil
}

type stubRenderer struct{}

func (stubRenderer) RenderPlugin(_ context.Context, p *model.Plugin) ([]byte, error) {
	return []byte(p.Name), nil
}
func (stubRenderer) RenderMashup(_ context.Context, m *model.Mashup, _ []model.Plugin) ([]byte, error) {
	return []byte(m.Name), nil
}

// fakeSession injects an authenticated admin without going through JWT.
func fakeSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("currentUser", &model.User{ID: 1, Email: "admin@test"})
		c.Next()
	}
}

func newAdminRouter(store db.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cache := raster.NewCache(store, stubStorage{}, stubCodec{}, stubRenderer{})
	engine := display.NewEngine(store, content.NewService(store), cache, display.Assets{})

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api/admin",
		Middleware: []gin.HandlerFunc{fakeSession()},
	},
		DeviceModule(store, engine, nil),
		ModelModule(store),
		PlaylistModule(store),
		PluginModule(store, engine),
		MashupModule(store),
	)
	return r
}

func itoa(id int) string { return strconv.Itoa(id) }

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateMashupValidatesLayout(t *testing.T) {
	store := db.NewMemStore()
	p1, _ := store.CreatePlugin("a", model.StrategyStatic, 0, nil)
	p2, _ := store.CreatePlugin("b", model.StrategyStatic, 0, nil)
	r := newAdminRouter(store)

	// Wrong slot count is a configuration error, surfaced here.
	w := doJSON(r, http.MethodPost, "/api/admin/mashups", gin.H{
		"name": "bad", "layout": "quadrant", "plugin_ids": []int{p1.ID, p2.ID},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPost, "/api/admin/mashups", gin.H{
		"name": "bad", "layout": "diagonal", "plugin_ids": []int{p1.ID},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/admin/mashups", gin.H{
		"name": "good", "layout": "split_vertical", "plugin_ids": []int{p1.ID, p2.ID},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var m model.Mashup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, []int{p1.ID, p2.ID}, m.PluginIDs)
}

func TestAddPlaylistItemExactlyOneTarget(t *testing.T) {
	store := db.NewMemStore()
	d, _ := store.CreateDevice("AA:BB:CC:DD:EE:20", "ADM001", "key-20")
	pl, _ := store.CreatePlaylist(d.ID, "default", 0, nil, nil, "UTC")
	p, _ := store.CreatePlugin("clock", model.StrategyStatic, 0, nil)
	r := newAdminRouter(store)

	w := doJSON(r, http.MethodPost, "/api/admin/playlists/"+itoa(pl.ID)+"/items", gin.H{
		"order_index": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "neither plugin nor mashup")

	w = doJSON(r, http.MethodPost, "/api/admin/playlists/"+itoa(pl.ID)+"/items", gin.H{
		"plugin_id": p.ID, "mashup_id": 1, "order_index": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "both plugin and mashup")

	w = doJSON(r, http.MethodPost, "/api/admin/playlists/"+itoa(pl.ID)+"/items", gin.H{
		"plugin_id": p.ID, "order_index": 1,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdatePluginBustsCachedRaster(t *testing.T) {
	store := db.NewMemStore()
	p, _ := store.CreatePlugin("weather", model.StrategyStatic, 0, nil)
	require.NoError(t, store.SetPluginRaster(p.ID, "old.png", "standard", time.Now()))
	r := newAdminRouter(store)

	w := doJSON(r, http.MethodPatch, "/api/admin/plugins/"+itoa(p.ID), gin.H{
		"markup": "<b>new</b>",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, _ := store.GetPluginByID(p.ID)
	assert.Nil(t, stored.CachedRaster)
}

func TestPushDataStampsTimestamp(t *testing.T) {
	store := db.NewMemStore()
	p, _ := store.CreatePlugin("feed", model.StrategyPush, 0, nil)
	r := newAdminRouter(store)

	w := doJSON(r, http.MethodPost, "/api/admin/plugins/"+itoa(p.ID)+"/data", gin.H{
		"headline": "hello",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, _ := store.GetPluginByID(p.ID)
	assert.Equal(t, "hello", stored.Data["headline"])
	assert.NotNil(t, stored.DataUpdatedAt)
}

func TestReorderPlaylistItems(t *testing.T) {
	store := db.NewMemStore()
	d, _ := store.CreateDevice("AA:BB:CC:DD:EE:21", "ADM002", "key-21")
	pl, _ := store.CreatePlaylist(d.ID, "default", 0, nil, nil, "UTC")
	p1, _ := store.CreatePlugin("a", model.StrategyStatic, 0, nil)
	p2, _ := store.CreatePlugin("b", model.StrategyStatic, 0, nil)
	i1, _ := store.AddPlaylistItem(pl.ID, &p1.ID, nil, 1, nil)
	i2, _ := store.AddPlaylistItem(pl.ID, &p2.ID, nil, 2, nil)
	r := newAdminRouter(store)

	w := doJSON(r, http.MethodPost, "/api/admin/playlists/"+itoa(pl.ID)+"/reorder", gin.H{
		"item_ids": []int{i2.ID, i1.ID},
	})
	require.Equal(t, http.StatusOK, w.Code)

	items, _ := store.ListPlaylistItems(pl.ID)
	require.Len(t, items, 2)
	assert.Equal(t, i2.ID, items[0].ID)
}

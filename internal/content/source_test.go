package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/model"
)

func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }

func TestStaticNeverStale(t *testing.T) {
	p := &model.Plugin{Strategy: model.StrategyStatic}
	assert.False(t, Stale(p, time.Now()))

	p.DataUpdatedAt = timePtr(time.Now().Add(-48 * time.Hour))
	assert.False(t, Stale(p, time.Now()))
}

func TestPushRecencyForcesRefresh(t *testing.T) {
	now := time.Now()

	// A push that just arrived must bust the cached raster.
	recent := &model.Plugin{Strategy: model.StrategyPush, DataUpdatedAt: timePtr(now.Add(-5 * time.Minute))}
	assert.True(t, Stale(recent, now))

	// An hour after the push the unit settles back to fresh.
	old := &model.Plugin{Strategy: model.StrategyPush, DataUpdatedAt: timePtr(now.Add(-2 * time.Hour))}
	assert.False(t, Stale(old, now))

	never := &model.Plugin{Strategy: model.StrategyPush}
	assert.False(t, Stale(never, now))
}

func TestPullStalenessBoundary(t *testing.T) {
	now := time.Now()
	p := &model.Plugin{
		Strategy:         model.StrategyPull,
		StalenessMinutes: 1,
	}

	assert.True(t, Stale(p, now), "never fetched is stale")

	p.DataUpdatedAt = timePtr(now.Add(-15 * time.Second))
	assert.False(t, Stale(p, now), "fresh at +15s")

	p.DataUpdatedAt = timePtr(now.Add(-75 * time.Second))
	assert.True(t, Stale(p, now), "stale at +75s")
}

func TestSubstitute(t *testing.T) {
	cfg := model.ConfigMap{"city": "Oslo", "units": "metric", "count": 3}
	assert.Equal(t,
		"https://api.example.com?q=Oslo&u=metric&n=3",
		Substitute("https://api.example.com?q={{ city }}&u={{units}}&n={{ count }}", cfg))
	assert.Equal(t, "x=", Substitute("x={{ missing }}", cfg))
}

func TestParseHeaders(t *testing.T) {
	raw := strPtr("Authorization: Bearer {{ token }}\nAccept: application/json\nbroken-line")
	h := parseHeaders(raw, model.ConfigMap{"token": "s3cr3t"})
	assert.Equal(t, "Bearer s3cr3t", h["Authorization"])
	assert.Equal(t, "application/json", h["Accept"])
	assert.Len(t, h, 2)
}

func newTestService(store db.Store) *Service {
	s := NewService(store)
	s.client = &http.Client{Timeout: 2 * time.Second}
	return s
}

func TestEnsureFreshSingleURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"temp": 21.5})
	}))
	defer srv.Close()

	store := db.NewMemStore()
	p, err := store.CreatePlugin("weather", model.StrategyPull, 30, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdatePlugin(p.ID, db.PluginUpdate{PollingURL: strPtr(srv.URL)}))
	p, _ = store.GetPluginByID(p.ID)

	fresh, err := newTestService(store).EnsureFresh(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 21.5, fresh.Data["temp"])
	assert.NotNil(t, fresh.DataUpdatedAt)

	stored, _ := store.GetPluginByID(p.ID)
	assert.Equal(t, 21.5, stored.Data["temp"])
}

func TestEnsureFreshMergesMultipleURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			w.Write([]byte(`{"name":"first"}`))
		case "/b":
			w.Write([]byte(`[1,2,3]`))
		}
	}))
	defer srv.Close()

	store := db.NewMemStore()
	p, _ := store.CreatePlugin("multi", model.StrategyPull, 30, nil)
	urls := srv.URL + "/a\n" + srv.URL + "/b\n"
	require.NoError(t, store.UpdatePlugin(p.ID, db.PluginUpdate{PollingURL: &urls}))
	p, _ = store.GetPluginByID(p.ID)

	fresh, err := newTestService(store).EnsureFresh(context.Background(), p)
	require.NoError(t, err)

	first, ok := fresh.Data["IDX_0"].(model.ConfigMap)
	require.True(t, ok)
	assert.Equal(t, "first", first["name"])

	second, ok := fresh.Data["IDX_1"].(model.ConfigMap)
	require.True(t, ok)
	assert.Len(t, second["data"], 3, "array response wrapped under data")
}

func TestEnsureFreshDegradesToErrorMarker(t *testing.T) {
	store := db.NewMemStore()
	p, _ := store.CreatePlugin("broken", model.StrategyPull, 30, nil)
	require.NoError(t, store.UpdatePlugin(p.ID, db.PluginUpdate{
		PollingURL: strPtr("http://127.0.0.1:1/unreachable"),
	}))
	p, _ = store.GetPluginByID(p.ID)

	fresh, err := newTestService(store).EnsureFresh(context.Background(), p)
	require.NoError(t, err, "fetch failure must not fail resolution")
	assert.Contains(t, fresh.Data, "error")
	assert.NotNil(t, fresh.DataUpdatedAt, "timestamp stamped to avoid hot-looping the failing source")

	// A follow-up within the staleness window must not attempt the fetch.
	assert.False(t, Stale(&fresh, time.Now()))
}

func TestEnsureFreshSubstitutesVariables(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := db.NewMemStore()
	p, _ := store.CreatePlugin("subst", model.StrategyPull, 30, model.ConfigMap{"station": "osl", "key": "abc"})
	url := srv.URL + "/v1/{{ station }}"
	require.NoError(t, store.UpdatePlugin(p.ID, db.PluginUpdate{
		PollingURL:     &url,
		PollingHeaders: strPtr("Authorization: Bearer {{ key }}"),
	}))
	p, _ = store.GetPluginByID(p.ID)

	_, err := newTestService(store).EnsureFresh(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "/v1/osl", gotPath)
	assert.Equal(t, "Bearer abc", gotAuth)
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Data-acquisition strategies for a plugin.
const (
	StrategyStatic = "static"
	StrategyPush   = "push"
	StrategyPull   = "pull"
)

// Plugin is a pluggable content source: how its data is acquired, how stale
// data is judged, the template that turns the data into markup, and the
// cached raster produced from it.
type Plugin struct {
	ID       int    `db:"id"       json:"id"`
	Name     string `db:"name"     json:"name"`
	Strategy string `db:"strategy" json:"strategy"`

	// Pull strategy: newline-separated URLs plus optional headers/body,
	// all subject to {{ key }} substitution from Config.
	PollingURL     *string `db:"polling_url"     json:"polling_url,omitempty"`
	PollingHeaders *string `db:"polling_headers" json:"polling_headers,omitempty"`
	PollingBody    *string `db:"polling_body"    json:"polling_body,omitempty"`

	// StalenessMinutes applies to the pull strategy only.
	StalenessMinutes int `db:"staleness_minutes" json:"staleness_minutes"`

	// Config holds the user-supplied form values referenced by templates
	// and polling substitution.
	Config ConfigMap `db:"config" json:"config"`

	// Markup is the template handed to the external template renderer.
	// MarkupShared, when set, is the dialect used for reduced-size mashup
	// slots; Markup applies otherwise.
	Markup       *string `db:"markup"        json:"markup,omitempty"`
	MarkupShared *string `db:"markup_shared" json:"markup_shared,omitempty"`

	Data          ConfigMap  `db:"data"           json:"data,omitempty"`
	DataUpdatedAt *time.Time `db:"data_updated_at" json:"data_updated_at,omitempty"`

	// CachedRaster is valid only for CachedRasterScope (a geometry class).
	CachedRaster      *string    `db:"cached_raster"       json:"cached_raster,omitempty"`
	CachedRasterScope *string    `db:"cached_raster_scope" json:"cached_raster_scope,omitempty"`
	RasterGeneratedAt *time.Time `db:"raster_generated_at" json:"raster_generated_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ConfigMap is a JSON object column.
type ConfigMap map[string]any

func (m ConfigMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *ConfigMap) Scan(src any) error {
	if src == nil {
		*m = ConfigMap{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	}
	return json.Unmarshal(b, m)
}

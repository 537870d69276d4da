package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const pluginColumns = `
	id, name, strategy, polling_url, polling_headers, polling_body,
	staleness_minutes, config, markup, markup_shared,
	data, data_updated_at, cached_raster, cached_raster_scope,
	raster_generated_at, created_at, updated_at`

func (s *pgStore) CreatePlugin(name, strategy string, stalenessMinutes int, config model.ConfigMap) (model.Plugin, error) {
	var p model.Plugin
	const q = `
	INSERT INTO plugins (name, strategy, staleness_minutes, config, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + pluginColumns + `;`
	if err := s.db.Get(&p, q, name, strategy, stalenessMinutes, config); err != nil {
		log.Error().Err(err).Str("plugin", name).Msg("CreatePlugin failed")
		return model.Plugin{}, err
	}
	return p, nil
}

func (s *pgStore) GetPluginByID(id int) (model.Plugin, error) {
	var p model.Plugin
	err := s.db.Get(&p, `SELECT `+pluginColumns+` FROM plugins WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plugin{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("plugin_id", id).Msg("GetPluginByID failed")
	}
	return p, err
}

func (s *pgStore) ListPlugins() ([]model.Plugin, error) {
	var out []model.Plugin
	err := s.db.Select(&out, `SELECT `+pluginColumns+` FROM plugins ORDER BY id;`)
	if err != nil {
		log.Error().Err(err).Msg("ListPlugins failed")
		return nil, err
	}
	return out, nil
}

// ListPluginsByIDs returns plugins in the order the ids were given; mashup
// slots depend on that ordering.
func (s *pgStore) ListPluginsByIDs(ids []int) ([]model.Plugin, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+pluginColumns+` FROM plugins WHERE id IN (?);`, ids)
	if err != nil {
		return nil, err
	}
	var fetched []model.Plugin
	if err := s.db.Select(&fetched, s.db.Rebind(query), args...); err != nil {
		log.Error().Err(err).Msg("ListPluginsByIDs failed")
		return nil, err
	}
	byID := make(map[int]model.Plugin, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	out := make([]model.Plugin, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *pgStore) UpdatePlugin(id int, upd PluginUpdate) error {
	_, err := s.db.Exec(`
		UPDATE plugins SET
		name              = COALESCE($2, name),
		strategy          = COALESCE($3, strategy),
		polling_url       = COALESCE($4, polling_url),
		polling_headers   = COALESCE($5, polling_headers),
		polling_body      = COALESCE($6, polling_body),
		staleness_minutes = COALESCE($7, staleness_minutes),
		config            = COALESCE($8, config),
		markup            = COALESCE($9, markup),
		markup_shared     = COALESCE($10, markup_shared),
		updated_at        = now()
		WHERE id = $1;`,
		id, upd.Name, upd.Strategy, upd.PollingURL, upd.PollingHeaders,
		upd.PollingBody, upd.StalenessMinutes, nullableConfig(upd.Config),
		upd.Markup, upd.MarkupShared,
	)
	if err != nil {
		log.Error().Err(err).Int("plugin_id", id).Msg("UpdatePlugin failed")
	}
	return err
}

func nullableConfig(m model.ConfigMap) any {
	if m == nil {
		return nil
	}
	return m
}

func (s *pgStore) DeletePlugin(id int) error {
	_, err := s.db.Exec(`DELETE FROM plugins WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("plugin_id", id).Msg("DeletePlugin failed")
	}
	return err
}

func (s *pgStore) SetPluginData(id int, data model.ConfigMap, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE plugins SET
		data            = $2,
		data_updated_at = $3,
		updated_at      = now()
		WHERE id = $1;`, id, data, at)
	if err != nil {
		log.Error().Err(err).Int("plugin_id", id).Msg("SetPluginData failed")
	}
	return err
}

func (s *pgStore) SetPluginRaster(id int, rasterID, scope string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE plugins SET
		cached_raster       = $2,
		cached_raster_scope = $3,
		raster_generated_at = $4,
		updated_at          = now()
		WHERE id = $1;`, id, rasterID, scope, at)
	if err != nil {
		log.Error().Err(err).Int("plugin_id", id).Msg("SetPluginRaster failed")
	}
	return err
}

func (s *pgStore) ClearPluginRaster(id int) error {
	_, err := s.db.Exec(`
		UPDATE plugins SET
		cached_raster       = NULL,
		cached_raster_scope = NULL,
		raster_generated_at = NULL,
		updated_at          = now()
		WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("plugin_id", id).Msg("ClearPluginRaster failed")
	}
	return err
}

func (s *pgStore) CreateMashup(name, layout string, pluginIDs []int) (model.Mashup, error) {
	var m model.Mashup
	tx, err := s.db.Beginx()
	if err != nil {
		return model.Mashup{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = tx.Get(&m, `
		INSERT INTO mashups (name, layout, created_at)
		VALUES ($1, $2, now())
		RETURNING id, name, layout, created_at;`, name, layout); err != nil {
		log.Error().Err(err).Str("mashup", name).Msg("CreateMashup failed")
		return model.Mashup{}, err
	}

	for slot, pid := range pluginIDs {
		if _, err = tx.Exec(`
			INSERT INTO mashup_slots (mashup_id, plugin_id, slot)
			VALUES ($1, $2, $3);`, m.ID, pid, slot); err != nil {
			log.Error().Err(err).Int("mashup_id", m.ID).Msg("CreateMashup slot insert failed")
			return model.Mashup{}, err
		}
	}
	m.PluginIDs = pluginIDs
	return m, nil
}

func (s *pgStore) GetMashupByID(id int) (model.Mashup, error) {
	var m model.Mashup
	err := s.db.Get(&m, `SELECT id, name, layout, created_at FROM mashups WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Mashup{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("mashup_id", id).Msg("GetMashupByID failed")
		return model.Mashup{}, err
	}
	if err := s.db.Select(&m.PluginIDs, `
		SELECT plugin_id FROM mashup_slots
		 WHERE mashup_id = $1 ORDER BY slot;`, id); err != nil {
		log.Error().Err(err).Int("mashup_id", id).Msg("GetMashupByID slots failed")
		return model.Mashup{}, err
	}
	return m, nil
}

func (s *pgStore) DeleteMashup(id int) error {
	_, err := s.db.Exec(`DELETE FROM mashups WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("mashup_id", id).Msg("DeleteMashup failed")
	}
	return err
}

func (s *pgStore) ReferencedRasters() (map[string]struct{}, error) {
	var ids []string
	if err := s.db.Select(&ids, `
		SELECT current_raster FROM devices WHERE current_raster IS NOT NULL
		UNION
		SELECT cached_raster FROM plugins WHERE cached_raster IS NOT NULL;`); err != nil {
		log.Error().Err(err).Msg("ReferencedRasters failed")
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

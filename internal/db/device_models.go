package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const deviceModelColumns = `
	id, name, label, width, height, colors, bit_depth, rotation,
	scale_factor, offset_x, offset_y, mime_type, created_at`

func (s *pgStore) GetDeviceModelByName(name string) (*model.DeviceModel, error) {
	var m model.DeviceModel
	err := s.db.Get(&m, `SELECT `+deviceModelColumns+` FROM device_models WHERE name = $1;`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("model", name).Msg("GetDeviceModelByName failed")
		return nil, err
	}
	return &m, nil
}

func (s *pgStore) ListDeviceModels() ([]model.DeviceModel, error) {
	var out []model.DeviceModel
	err := s.db.Select(&out, `SELECT `+deviceModelColumns+` FROM device_models ORDER BY name;`)
	if err != nil {
		log.Error().Err(err).Msg("ListDeviceModels failed")
		return nil, err
	}
	return out, nil
}

// UpsertDeviceModel inserts or refreshes one catalog entry by name.
func (s *pgStore) UpsertDeviceModel(m model.DeviceModel) error {
	_, err := s.db.Exec(`
		INSERT INTO device_models
		  (name, label, width, height, colors, bit_depth, rotation,
		   scale_factor, offset_x, offset_y, mime_type, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
		ON CONFLICT (name) DO UPDATE SET
		  label        = EXCLUDED.label,
		  width        = EXCLUDED.width,
		  height       = EXCLUDED.height,
		  colors       = EXCLUDED.colors,
		  bit_depth    = EXCLUDED.bit_depth,
		  rotation     = EXCLUDED.rotation,
		  scale_factor = EXCLUDED.scale_factor,
		  offset_x     = EXCLUDED.offset_x,
		  offset_y     = EXCLUDED.offset_y,
		  mime_type    = EXCLUDED.mime_type;`,
		m.Name, m.Label, m.Width, m.Height, m.Colors, m.BitDepth,
		m.Rotation, m.ScaleFactor, m.OffsetX, m.OffsetY, m.MimeType,
	)
	if err != nil {
		log.Error().Err(err).Str("model", m.Name).Msg("UpsertDeviceModel failed")
	}
	return err
}

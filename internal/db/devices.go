package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const deviceColumns = `
	id, mac_address, friendly_id, api_key, name, model_name, firmware_version,
	width, height, rotation, image_format, refresh_rate, paused,
	sleep_start, sleep_stop, timezone, mirror_device_id,
	update_firmware, reset_firmware, firmware_url,
	battery_voltage, rssi, last_seen, current_raster, last_refreshed,
	created_at, updated_at`

func (s *pgStore) CreateDevice(mac, friendlyID, apiKey string) (model.Device, error) {
	var d model.Device
	const q = `
	INSERT INTO devices (mac_address, friendly_id, api_key, refresh_rate, timezone, created_at, updated_at)
	VALUES ($1, $2, $3, 900, 'UTC', now(), now())
	RETURNING ` + deviceColumns + `;`
	if err := s.db.Get(&d, q, mac, friendlyID, apiKey); err != nil {
		log.Error().Err(err).Str("mac", mac).Msg("CreateDevice failed")
		return model.Device{}, err
	}
	return d, nil
}

func (s *pgStore) getDevice(where string, arg any) (model.Device, error) {
	var d model.Device
	err := s.db.Get(&d, `SELECT `+deviceColumns+` FROM devices WHERE `+where+`;`, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Device{}, ErrNotFound
	}
	return d, err
}

func (s *pgStore) GetDeviceByID(id int) (model.Device, error) {
	return s.getDevice("id = $1", id)
}

func (s *pgStore) GetDeviceByMac(mac string) (model.Device, error) {
	return s.getDevice("mac_address = $1", mac)
}

func (s *pgStore) GetDeviceByAPIKey(apiKey string) (model.Device, error) {
	return s.getDevice("api_key = $1", apiKey)
}

func (s *pgStore) ListDevices() ([]model.Device, error) {
	var out []model.Device
	err := s.db.Select(&out, `SELECT `+deviceColumns+` FROM devices ORDER BY id;`)
	if err != nil {
		log.Error().Err(err).Msg("ListDevices failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateDevice(id int, upd DeviceUpdate) error {
	_, err := s.db.Exec(`
		UPDATE devices SET
		name             = COALESCE($2,  name),
		model_name       = COALESCE($3,  model_name),
		width            = COALESCE($4,  width),
		height           = COALESCE($5,  height),
		rotation         = COALESCE($6,  rotation),
		image_format     = COALESCE($7,  image_format),
		refresh_rate     = COALESCE($8,  refresh_rate),
		paused           = COALESCE($9,  paused),
		sleep_start      = COALESCE($10, sleep_start),
		sleep_stop       = COALESCE($11, sleep_stop),
		timezone         = COALESCE($12, timezone),
		mirror_device_id = COALESCE($13, mirror_device_id),
		update_firmware  = COALESCE($14, update_firmware),
		reset_firmware   = COALESCE($15, reset_firmware),
		firmware_url     = COALESCE($16, firmware_url),
		updated_at       = now()
		WHERE id = $1;`,
		id, upd.Name, upd.ModelName, upd.Width, upd.Height, upd.Rotation,
		upd.ImageFormat, upd.RefreshRate, upd.Paused, upd.SleepStart,
		upd.SleepStop, upd.Timezone, upd.MirrorDeviceID,
		upd.UpdateFirmware, upd.ResetFirmware, upd.FirmwareURL,
	)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("UpdateDevice failed")
	}
	return err
}

func (s *pgStore) DeleteDevice(id int) error {
	_, err := s.db.Exec(`DELETE FROM devices WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("DeleteDevice failed")
	}
	return err
}

func (s *pgStore) RecordDevicePoll(id int, battery *float64, rssi *int, firmware *string, seenAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE devices SET
		battery_voltage  = COALESCE($2, battery_voltage),
		rssi             = COALESCE($3, rssi),
		firmware_version = COALESCE($4, firmware_version),
		last_seen        = $5,
		updated_at       = now()
		WHERE id = $1;`,
		id, battery, rssi, firmware, seenAt,
	)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("RecordDevicePoll failed")
	}
	return err
}

func (s *pgStore) SetDeviceRaster(id int, rasterID string, refreshedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE devices SET
		current_raster = $2,
		last_refreshed = $3,
		updated_at     = now()
		WHERE id = $1;`,
		id, rasterID, refreshedAt,
	)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("SetDeviceRaster failed")
	}
	return err
}

// ClearFirmwareFlags drops the one-shot firmware flags after a device has
// observed them in a display response.
func (s *pgStore) ClearFirmwareFlags(id int) error {
	_, err := s.db.Exec(`
		UPDATE devices SET
		update_firmware = false,
		reset_firmware  = false,
		updated_at      = now()
		WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("ClearFirmwareFlags failed")
	}
	return err
}

func (s *pgStore) AnyNonStandardGeometry() (bool, error) {
	var n int
	err := s.db.Get(&n, `
		SELECT count(*)
		  FROM devices d
		  LEFT JOIN device_models m ON m.name = d.model_name
		 WHERE COALESCE(d.width,  m.width,  800) <> 800
		    OR COALESCE(d.height, m.height, 480) <> 480
		    OR COALESCE(d.rotation, m.rotation, 0) <> 0;`)
	if err != nil {
		log.Error().Err(err).Msg("AnyNonStandardGeometry failed")
		return false, err
	}
	return n > 0, nil
}

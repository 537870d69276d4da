package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const playlistColumns = `
	id, device_id, name, is_active, day_mask, active_from, active_until,
	timezone, created_at, updated_at`

const playlistItemColumns = `
	id, playlist_id, plugin_id, mashup_id, is_active, order_index,
	duration_override, last_displayed_at, created_at`

func (s *pgStore) CreatePlaylist(deviceID int, name string, dayMask int, from, until *string, tz string) (model.Playlist, error) {
	var p model.Playlist
	const q = `
	INSERT INTO playlists
	  (device_id, name, is_active, day_mask, active_from, active_until, timezone, created_at, updated_at)
	VALUES ($1, $2, true, $3, $4, $5, $6, now(), now())
	RETURNING ` + playlistColumns + `;`
	if err := s.db.Get(&p, q, deviceID, name, dayMask, from, until, tz); err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("CreatePlaylist failed")
		return model.Playlist{}, err
	}
	return p, nil
}

func (s *pgStore) GetPlaylistByID(id int) (model.Playlist, error) {
	var p model.Playlist
	err := s.db.Get(&p, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Playlist{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("GetPlaylistByID failed")
		return model.Playlist{}, err
	}
	items, err := s.ListPlaylistItems(id)
	if err != nil {
		return p, err
	}
	p.Items = items
	return p, nil
}

// ListPlaylistsForDevice returns the device's playlists in creation order.
// The resolver depends on this ordering: overlapping active playlists are
// settled first-match.
func (s *pgStore) ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error) {
	var out []model.Playlist
	err := s.db.Select(&out, `
		SELECT `+playlistColumns+`
		  FROM playlists
		 WHERE device_id = $1
		 ORDER BY id;`, deviceID)
	if err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("ListPlaylistsForDevice failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdatePlaylist(id int, name *string, isActive *bool, dayMask *int, from, until *string, tz *string) error {
	_, err := s.db.Exec(`
		UPDATE playlists SET
		name         = COALESCE($2, name),
		is_active    = COALESCE($3, is_active),
		day_mask     = COALESCE($4, day_mask),
		active_from  = COALESCE($5, active_from),
		active_until = COALESCE($6, active_until),
		timezone     = COALESCE($7, timezone),
		updated_at   = now()
		WHERE id = $1;`,
		id, name, isActive, dayMask, from, until, tz,
	)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("UpdatePlaylist failed")
	}
	return err
}

func (s *pgStore) DeletePlaylist(id int) error {
	_, err := s.db.Exec(`DELETE FROM playlists WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("DeletePlaylist failed")
	}
	return err
}

func (s *pgStore) AddPlaylistItem(playlistID int, pluginID, mashupID *int, orderIndex int, durationOverride *int) (model.PlaylistItem, error) {
	var it model.PlaylistItem
	const q = `
	INSERT INTO playlist_items
	  (playlist_id, plugin_id, mashup_id, is_active, order_index, duration_override, created_at)
	VALUES ($1, $2, $3, true, $4, $5, now())
	RETURNING ` + playlistItemColumns + `;`
	if err := s.db.Get(&it, q, playlistID, pluginID, mashupID, orderIndex, durationOverride); err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("AddPlaylistItem failed")
		return model.PlaylistItem{}, err
	}
	return it, nil
}

func (s *pgStore) ListPlaylistItems(playlistID int) ([]model.PlaylistItem, error) {
	var list []model.PlaylistItem
	err := s.db.Select(&list, `
		SELECT `+playlistItemColumns+`
		  FROM playlist_items
		 WHERE playlist_id = $1
		 ORDER BY order_index;`, playlistID)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("ListPlaylistItems failed")
	}
	return list, err
}

func (s *pgStore) UpdatePlaylistItem(itemID int, isActive *bool, orderIndex, durationOverride *int) error {
	_, err := s.db.Exec(`
		UPDATE playlist_items SET
		is_active         = COALESCE($2, is_active),
		order_index       = COALESCE($3, order_index),
		duration_override = COALESCE($4, duration_override)
		WHERE id = $1;`,
		itemID, isActive, orderIndex, durationOverride,
	)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("UpdatePlaylistItem failed")
	}
	return err
}

func (s *pgStore) RemovePlaylistItem(itemID int) error {
	_, err := s.db.Exec(`DELETE FROM playlist_items WHERE id = $1;`, itemID)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("RemovePlaylistItem failed")
	}
	return err
}

func (s *pgStore) ReorderPlaylistItems(playlistID int, itemIDs []int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	count := len(itemIDs)
	if _, err = tx.Exec(`
		UPDATE playlist_items
		   SET order_index = order_index + $1
		 WHERE playlist_id = $2;`, count, playlistID); err != nil {
		return err
	}

	for idx, itemID := range itemIDs {
		if _, err = tx.Exec(`
			UPDATE playlist_items
			   SET order_index = $1
			 WHERE id = $2
			   AND playlist_id = $3;`, idx+1, itemID, playlistID); err != nil {
			return err
		}
	}
	return nil
}

// TouchItemDisplayed advances the round-robin cursor. GREATEST keeps the
// cursor monotonically non-decreasing even when requests race.
func (s *pgStore) TouchItemDisplayed(itemID int, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE playlist_items
		   SET last_displayed_at = GREATEST(COALESCE(last_displayed_at, 'epoch'::timestamptz), $2)
		 WHERE id = $1;`, itemID, at)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("TouchItemDisplayed failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

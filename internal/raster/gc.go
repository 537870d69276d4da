package raster

import (
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/storage"
)

// Sweep deletes stored rasters that no device or plugin references anymore.
// It returns the number of files removed.
func Sweep(store db.Store, files storage.Storage) (int, error) {
	names, err := files.List()
	if err != nil {
		return 0, err
	}
	refs, err := store.ReferencedRasters()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		if _, ok := refs[name]; ok {
			continue
		}
		if err := files.Delete(name); err != nil {
			log.Warn().Err(err).Str("raster", name).Msg("failed to delete orphaned raster")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("raster garbage collection complete")
	}
	return removed, nil
}

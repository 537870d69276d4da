package main

import (
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/storage"
)

// InitStorage selects and returns the configured raster storage backend.
func InitStorage(env Environment) storage.Storage {
	if env.UseSpaces {
		spacesStorage, err := storage.NewSpacesStorage(
			env.SpacesEndpoint,
			env.SpacesRegion,
			env.SpacesBucket,
			env.SpacesCDNURL,
			env.SpacesAccessKey,
			env.SpacesSecretKey,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Spaces storage")
		}
		log.Info().Str("cdn", env.SpacesCDNURL).Msg("using DigitalOcean Spaces raster storage")
		return spacesStorage
	}

	local := storage.NewLocalStorage(env.RastersDir, env.PublicBaseURL)
	log.Info().Str("dir", env.RastersDir).Msg("using local raster storage")
	return local
}

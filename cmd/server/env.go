package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment    string
	ServerAddress  string
	SecretKey      string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	// External render services.
	TemplateRendererURL string
	HTMLRendererURL     string
	ImageCodecURL       string

	// Optional broker for pushing screen updates to devices.
	MQTTBrokerURL string

	// PublicBaseURL is how devices reach this server; local raster and
	// asset URLs are built from it.
	PublicBaseURL string
	RastersDir    string

	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string
}

// LoadEnvironment reads and validates env vars.
func LoadEnvironment() Environment {
	env := Environment{
		Environment:    os.Getenv("APP_ENV"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SecretKey:      os.Getenv("JWT_SECRET"),
		ServerAddress:  os.Getenv("SERVER_ADDRESS"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		TemplateRendererURL: os.Getenv("TEMPLATE_RENDERER_URL"),
		HTMLRendererURL:     os.Getenv("HTML_RENDERER_URL"),
		ImageCodecURL:       os.Getenv("IMAGE_CODEC_URL"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		RastersDir:    os.Getenv("RASTERS_DIR"),

		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	if env.MigrationsPath == "" {
		env.MigrationsPath = "./migrations"
	}
	if env.RastersDir == "" {
		env.RastersDir = "./rasters"
	}
	if env.PublicBaseURL == "" {
		env.PublicBaseURL = "http://localhost" + env.ServerAddress
	}

	if env.DatabaseURL == "" || env.SecretKey == "" || env.ServerAddress == "" {
		log.Fatal().Msg("missing required environment variables")
	}
	if env.TemplateRendererURL == "" || env.HTMLRendererURL == "" || env.ImageCodecURL == "" {
		log.Fatal().Msg("TEMPLATE_RENDERER_URL, HTML_RENDERER_URL and IMAGE_CODEC_URL are required")
	}

	return env
}

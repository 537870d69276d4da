package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/content"
	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/display"
	"github.com/inkwell-labs/inkwell/internal/jobs"
	"github.com/inkwell-labs/inkwell/internal/notify"
	"github.com/inkwell-labs/inkwell/internal/raster"
	"github.com/inkwell-labs/inkwell/internal/redis"
	"github.com/inkwell-labs/inkwell/internal/render"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	env := LoadEnvironment()
	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Init(env.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.RunMigrations(conn, env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	store := db.NewStore(conn)

	if env.RedisAddress != "" {
		redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	}

	files := InitStorage(env)

	pipeline := render.NewPipeline(
		render.NewTemplateRenderer(env.TemplateRendererURL),
		render.NewHTMLRenderer(env.HTMLRendererURL),
	)
	cache := raster.NewCache(store, files, raster.NewCodec(env.ImageCodecURL), pipeline)

	assets := display.Assets{
		Setup: env.PublicBaseURL + "/assets/setup.png",
		Sleep: env.PublicBaseURL + "/assets/sleep.png",
		Error: env.PublicBaseURL + "/assets/error.png",
	}
	engine := display.NewEngine(store, content.NewService(store), cache, assets)

	var publisher *notify.Publisher
	if env.MQTTBrokerURL != "" {
		publisher, err = notify.NewPublisher(env.MQTTBrokerURL, "inkwell-server")
		if err != nil {
			log.Warn().Err(err).Msg("MQTT unavailable, screen updates will not be pushed")
		} else {
			defer publisher.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs.NewRunner(store, files).Start(ctx)

	router := gin.Default()
	RegisterRoutes(router, env, store, engine, publisher, assets)

	log.Info().Str("address", env.ServerAddress).Msg("listening")
	if err := router.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Bigbrotherx/foodgram/backend/config"
	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Msg("All migrations applied successfully")
}

package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/models"
)

// Migrate brings the schema up to date with the models, on postgres and sqlite alike
func Migrate(db *gorm.DB) error {
	log.Info().Str("dialect", db.Dialector.Name()).Msg("Running schema auto-migration")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

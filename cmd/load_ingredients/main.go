package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Bigbrotherx/foodgram/backend/config"
	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/logging"
	"github.com/Bigbrotherx/foodgram/backend/internal/service"
)

func main() {
	file := flag.String("file", "data/ingredients.json", "ingredient fixture file")
	format := flag.String("format", "", "fixture format: json or csv (default: from the file extension)")
	tagsFile := flag.String("tags", "", "optional JSON file of tags to load")
	replace := flag.Bool("replace", false, "delete unreferenced ingredients missing from the file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	catalog := service.NewCatalogService(db)

	seeds, err := readIngredients(*file, *format)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read ingredients")
	}
	added, err := catalog.LoadIngredients(ctx, seeds)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ingredients")
	}
	log.Info().Int("added", added).Str("file", *file).Msg("Ingredients loaded")

	if *replace {
		removed, err := pruneIngredients(ctx, catalog, seeds)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to prune ingredients")
		}
		log.Info().Int("removed", removed).Msg("Stale ingredients removed")
	}

	if *tagsFile != "" {
		tags, err := readTags(*tagsFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", *tagsFile).Msg("Failed to read tags")
		}
		added, err := catalog.LoadTags(ctx, tags)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load tags")
		}
		log.Info().Int("added", added).Str("file", *tagsFile).Msg("Tags loaded")
	}
}

// pruneIngredients deletes ingredients absent from keep. Ingredients still
// used by a recipe are left in place.
func pruneIngredients(ctx context.Context, catalog *service.CatalogService, keep []service.IngredientSeed) (int, error) {
	wanted := make(map[service.IngredientSeed]bool, len(keep))
	for _, seed := range keep {
		wanted[normalize(seed)] = true
	}

	current, err := catalog.SearchIngredients(ctx, "")
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, ingredient := range current {
		seed := service.IngredientSeed{Name: ingredient.Name, MeasurementUnit: ingredient.MeasurementUnit}
		if wanted[normalize(seed)] {
			continue
		}
		err := catalog.DeleteIngredient(ctx, ingredient.ID)
		switch {
		case err == nil:
			removed++
		case errs.IsConflict(err):
			log.Warn().Uint("id", ingredient.ID).Str("name", ingredient.Name).Msg("Ingredient is in use, keeping it")
		default:
			return removed, err
		}
	}
	return removed, nil
}

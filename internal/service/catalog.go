package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

var (
	hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugRe   = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// IngredientSeed is a row of the ingredient fixture file
type IngredientSeed struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// TagSeed is a row of the tag fixture file
type TagSeed struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// CatalogService serves tags and ingredients
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, errs.FromDB(err, "tag")
	}
	out := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagView(t))
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, errs.FromDB(err, "tag")
	}
	view := tagView(tag)
	return &view, nil
}

// CreateTag validates and inserts a tag; a taken slug is a conflict
func (s *CatalogService) CreateTag(ctx context.Context, seed TagSeed) (*types.Tag, error) {
	seed.Name = strings.TrimSpace(seed.Name)
	switch {
	case seed.Name == "" || len(seed.Name) > 200:
		return nil, errs.Validation("name", "must be between 1 and 200 characters")
	case !hexColor.MatchString(seed.Color):
		return nil, errs.Validation("color", "must be a hex color like #E26C2D")
	case !slugRe.MatchString(seed.Slug) || len(seed.Slug) > 200:
		return nil, errs.Validation("slug", "must contain only letters, digits, hyphens and underscores")
	}
	tag := models.Tag{Name: seed.Name, Color: strings.ToUpper(seed.Color), Slug: seed.Slug}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, errs.FromDB(err, "tag")
	}
	view := tagView(tag)
	return &view, nil
}

// SearchIngredients lists ingredients whose name starts with prefix, case-insensitively
func (s *CatalogService) SearchIngredients(ctx context.Context, prefix string) ([]types.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name").Order("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}
	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, errs.FromDB(err, "ingredient")
	}
	out := make([]types.Ingredient, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, ingredientView(i))
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, errs.FromDB(err, "ingredient")
	}
	view := ingredientView(ingredient)
	return &view, nil
}

// DeleteIngredient removes an ingredient no recipe references
func (s *CatalogService) DeleteIngredient(ctx context.Context, id uint) error {
	return database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&models.Ingredient{}, id).Error; err != nil {
			return errs.FromDB(err, "ingredient")
		}
		if err := tx.Delete(&models.Ingredient{}, id).Error; err != nil {
			if e := errs.FromDB(err, "ingredient"); errs.IsConflict(e) {
				return errs.Conflict("ingredient is used by recipes")
			}
			return errs.FromDB(err, "ingredient")
		}
		return nil
	})
}

// LoadIngredients inserts the seeds not already present and returns how many were added
func (s *CatalogService) LoadIngredients(ctx context.Context, seeds []IngredientSeed) (int, error) {
	added := 0
	err := database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		for _, seed := range seeds {
			name := strings.TrimSpace(seed.Name)
			unit := strings.TrimSpace(seed.MeasurementUnit)
			if name == "" || unit == "" {
				return errs.Validation("name", "ingredient name and measurement unit are required")
			}
			ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
			result := tx.Where(models.Ingredient{Name: name, MeasurementUnit: unit}).FirstOrCreate(&ingredient)
			if result.Error != nil {
				return errs.FromDB(result.Error, "ingredient")
			}
			if result.RowsAffected > 0 {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int("added", added).Int("total", len(seeds)).Msg("Loaded ingredients")
	return added, nil
}

// LoadTags inserts tags whose slug is not taken yet
func (s *CatalogService) LoadTags(ctx context.Context, seeds []TagSeed) (int, error) {
	added := 0
	for _, seed := range seeds {
		var existing int64
		if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("slug = ?", seed.Slug).Count(&existing).Error; err != nil {
			return added, errs.FromDB(err, "tag")
		}
		if existing > 0 {
			continue
		}
		if _, err := s.CreateTag(ctx, seed); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

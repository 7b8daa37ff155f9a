package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

// RecipeFilter narrows a recipe listing. Zero fields do not filter; the
// membership flags only apply to authenticated viewers.
type RecipeFilter struct {
	AuthorID         *uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Limit            int
	Offset           int
}

// RecipeService composes recipes with their tags and ingredient lines.
// Every write touches the recipe row, its tag set and its lines in one
// transaction.
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
	views  viewBuilder
}

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{db: db, images: images, views: viewBuilder{images: images.store}}
}

// CreateRecipe stores a new recipe of authorID. upload, when set, takes
// precedence over an inline image in req.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest, upload *Image) (*types.Recipe, error) {
	if err := validateRecipe(req, true); err != nil {
		return nil, err
	}
	img, err := resolveImage(req, upload)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(*req.Name),
		Text:        *req.Text,
		CookingTime: *req.CookingTime,
	}
	if img != nil {
		if recipe.Image, err = s.images.Save(ctx, img); err != nil {
			return nil, err
		}
	}

	err = database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		tags, err := loadTags(tx, *req.Tags)
		if err != nil {
			return err
		}
		if err := checkIngredients(tx, *req.Ingredients); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return errs.FromDB(err, "recipe")
		}
		if err := replaceTags(tx, &recipe, tags); err != nil {
			return err
		}
		return insertLines(tx, recipe.ID, *req.Ingredients)
	})
	if err != nil {
		s.images.Discard(ctx, recipe.Image)
		return nil, err
	}

	log.Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("Recipe created")
	return s.GetRecipe(ctx, recipe.ID, authorID)
}

// UpdateRecipe applies a partial update by the recipe's author. Present tag
// and ingredient lists replace the stored ones wholesale. Concurrent updates
// of one recipe serialize on its row lock.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, actorID uint, req *types.RecipeRequest, upload *Image) (*types.Recipe, error) {
	if err := validateRecipe(req, false); err != nil {
		return nil, err
	}
	img, err := resolveImage(req, upload)
	if err != nil {
		return nil, err
	}

	var newImage, oldImage string
	if img != nil {
		if newImage, err = s.images.Save(ctx, img); err != nil {
			return nil, err
		}
	}

	err = database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		recipe, err := lockOwnRecipe(tx, recipeID, actorID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Text != nil {
			updates["text"] = *req.Text
		}
		if req.CookingTime != nil {
			updates["cooking_time"] = *req.CookingTime
		}
		if newImage != "" {
			oldImage = recipe.Image
			updates["image"] = newImage
		}
		// updated_at moves even when only children change
		updates["updated_at"] = tx.NowFunc()
		if err := tx.Model(recipe).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return errs.FromDB(err, "recipe")
		}

		if req.Tags != nil {
			tags, err := loadTags(tx, *req.Tags)
			if err != nil {
				return err
			}
			if err := replaceTags(tx, recipe, tags); err != nil {
				return err
			}
		}
		if req.Ingredients != nil {
			if err := checkIngredients(tx, *req.Ingredients); err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return errs.FromDB(err, "recipe ingredient")
			}
			if err := insertLines(tx, recipe.ID, *req.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.images.Discard(ctx, newImage)
		return nil, err
	}
	s.images.Discard(ctx, oldImage)

	log.Info().Uint("recipe_id", recipeID).Uint("author_id", actorID).Msg("Recipe updated")
	return s.GetRecipe(ctx, recipeID, actorID)
}

// DeleteRecipe removes a recipe of actorID together with its lines, tags and memberships
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, actorID uint) error {
	var image string
	err := database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		recipe, err := lockOwnRecipe(tx, recipeID, actorID)
		if err != nil {
			return err
		}
		image = recipe.Image
		// join rows are removed explicitly for databases without enforced cascades
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return errs.FromDB(err, "recipe")
		}
		for _, child := range []interface{}{&models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCartEntry{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(child).Error; err != nil {
				return errs.FromDB(err, "recipe")
			}
		}
		if err := tx.Delete(recipe).Error; err != nil {
			return errs.FromDB(err, "recipe")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.images.Discard(ctx, image)
	log.Info().Uint("recipe_id", recipeID).Msg("Recipe deleted")
	return nil
}

// GetRecipe returns the read model of a recipe as seen by viewerID
func (s *RecipeService) GetRecipe(ctx context.Context, id, viewerID uint) (*types.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, errs.FromDB(err, "recipe")
	}
	views, err := s.views.recipes(ctx, s.db, []models.Recipe{recipe}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns one page of recipes, newest first, and the total match count
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter, viewerID uint) ([]types.Recipe, int64, error) {
	query := s.filtered(s.db.WithContext(ctx).Model(&models.Recipe{}), filter, viewerID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, errs.FromDB(err, "recipe")
	}

	var recipes []models.Recipe
	page := s.filtered(preloadRecipe(s.db.WithContext(ctx)), filter, viewerID).
		Order("recipes.created_at DESC").Order("recipes.id DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := page.Find(&recipes).Error; err != nil {
		return nil, 0, errs.FromDB(err, "recipe")
	}

	views, err := s.views.recipes(ctx, s.db, recipes, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

// filtered applies filter as id subqueries so the count and page queries agree
func (s *RecipeService) filtered(query *gorm.DB, filter RecipeFilter, viewerID uint) *gorm.DB {
	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.IsFavorited && viewerID != Anonymous {
		favorites := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID)
		query = query.Where("recipes.id IN (?)", favorites)
	}
	if filter.IsInShoppingCart && viewerID != Anonymous {
		cart := s.db.Model(&models.ShoppingCartEntry{}).Select("recipe_id").Where("user_id = ?", viewerID)
		query = query.Where("recipes.id IN (?)", cart)
	}
	return query
}

func validateRecipe(req *types.RecipeRequest, create bool) error {
	if create {
		switch {
		case req.Name == nil:
			return errs.Validation("name", "this field is required")
		case req.Text == nil:
			return errs.Validation("text", "this field is required")
		case req.CookingTime == nil:
			return errs.Validation("cooking_time", "this field is required")
		case req.Tags == nil:
			return errs.Validation("tags", "this field is required")
		case req.Ingredients == nil:
			return errs.Validation("ingredients", "this field is required")
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len([]rune(name)) > 200 {
			return errs.Validation("name", "must be between 1 and 200 characters")
		}
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) == "" {
		return errs.Validation("text", "must not be empty")
	}
	if req.CookingTime != nil && *req.CookingTime < 1 {
		return errs.Validation("cooking_time", "must be at least 1 minute")
	}
	if req.Tags != nil {
		if len(*req.Tags) == 0 {
			return errs.Validation("tags", "at least one tag is required")
		}
		seen := make(map[uint]bool, len(*req.Tags))
		for _, id := range *req.Tags {
			if seen[id] {
				return errs.Validation("tags", fmt.Sprintf("tag %d is listed twice", id))
			}
			seen[id] = true
		}
	}
	if req.Ingredients != nil {
		if len(*req.Ingredients) == 0 {
			return errs.Validation("ingredients", "at least one ingredient is required")
		}
		seen := make(map[uint]bool, len(*req.Ingredients))
		for _, line := range *req.Ingredients {
			if line.Amount < 1 {
				return errs.Validation("amount", "must be at least 1")
			}
			if seen[line.ID] {
				return errs.Validation("ingredients", fmt.Sprintf("ingredient %d is listed twice", line.ID))
			}
			seen[line.ID] = true
		}
	}
	return nil
}

func resolveImage(req *types.RecipeRequest, upload *Image) (*Image, error) {
	if upload != nil {
		return upload, nil
	}
	if req.Image == nil || *req.Image == "" {
		return nil, nil
	}
	return DecodeInlineImage(*req.Image)
}

func lockOwnRecipe(tx *gorm.DB, recipeID, actorID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&recipe, recipeID).Error; err != nil {
		return nil, errs.FromDB(err, "recipe")
	}
	if recipe.AuthorID != actorID {
		return nil, errs.Forbidden("only the author can change this recipe")
	}
	return &recipe, nil
}

func loadTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, errs.FromDB(err, "tag")
	}
	if len(tags) != len(ids) {
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, errs.Validation("tags", fmt.Sprintf("tag %d does not exist", id))
			}
		}
	}
	return tags, nil
}

func checkIngredients(tx *gorm.DB, lines []types.IngredientAmount) error {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	var found []uint
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return errs.FromDB(err, "ingredient")
	}
	if len(found) == len(ids) {
		return nil
	}
	known := make(map[uint]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return errs.Validation("ingredients", fmt.Sprintf("ingredient %d does not exist", id))
		}
	}
	return nil
}

func replaceTags(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag) error {
	if err := tx.Model(recipe).Omit("Tags.*").Association("Tags").Replace(tags); err != nil {
		return errs.FromDB(err, "recipe tags")
	}
	return nil
}

func insertLines(tx *gorm.DB, recipeID uint, lines []types.IngredientAmount) error {
	rows := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.ID,
			Amount:       line.Amount,
		})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		if errs.IsUniqueViolation(err) {
			return errs.Validation("ingredients", "an ingredient is listed twice")
		}
		return errs.FromDB(err, "recipe ingredient")
	}
	return nil
}

package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/storage"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

// Anonymous is the viewer id of unauthenticated callers
const Anonymous uint = 0

// viewBuilder turns models into viewer-scoped read representations
type viewBuilder struct {
	images storage.ImageStore
}

// pairSet loads the recipe ids among recipeIDs that the viewer holds in model's table
func pairSet(ctx context.Context, db *gorm.DB, model interface{}, viewerID uint, recipeIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if viewerID == Anonymous || len(recipeIDs) == 0 {
		return set, nil
	}
	var ids []uint
	if err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, errs.FromDB(err, "membership")
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// followedSet loads which of userIDs the viewer follows
func followedSet(ctx context.Context, db *gorm.DB, viewerID uint, userIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if viewerID == Anonymous || len(userIDs) == 0 {
		return set, nil
	}
	var ids []uint
	if err := db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id IN ?", viewerID, userIDs).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, errs.FromDB(err, "subscription")
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func profileView(u *models.User, subscribed bool) types.Profile {
	return types.Profile{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func (b viewBuilder) short(r *models.Recipe) types.RecipeShort {
	return types.RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       b.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// preloadRecipe is the query shape every recipe read uses
func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// recipes builds read models for preloaded recipes, keeping their order
func (b viewBuilder) recipes(ctx context.Context, db *gorm.DB, recipes []models.Recipe, viewerID uint) ([]types.Recipe, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i := range recipes {
		recipeIDs = append(recipeIDs, recipes[i].ID)
		authorIDs = append(authorIDs, recipes[i].AuthorID)
	}

	favorited, err := pairSet(ctx, db, &models.Favorite{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := pairSet(ctx, db, &models.ShoppingCartEntry{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	followed, err := followedSet(ctx, db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.Recipe, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		view := types.Recipe{
			ID:               r.ID,
			Tags:             make([]types.Tag, 0, len(r.Tags)),
			Author:           profileView(&r.Author, followed[r.AuthorID]),
			Ingredients:      make([]types.RecipeIngredient, 0, len(r.Ingredients)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            b.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		for _, tag := range r.Tags {
			view.Tags = append(view.Tags, tagView(tag))
		}
		for _, line := range r.Ingredients {
			view.Ingredients = append(view.Ingredients, types.RecipeIngredient{
				ID:              line.IngredientID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
		out = append(out, view)
	}
	return out, nil
}

func tagView(t models.Tag) types.Tag {
	return types.Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientView(i models.Ingredient) types.Ingredient {
	return types.Ingredient{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

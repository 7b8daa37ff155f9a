package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

// MembershipService manages the favorite, shopping cart and follow sets.
// Duplicate adds are rejected by the unique pair indexes, never by a
// read-then-insert check.
type MembershipService struct {
	db    *gorm.DB
	views viewBuilder
	users *UserService
}

func NewMembershipService(db *gorm.DB, images *ImageService, users *UserService) *MembershipService {
	return &MembershipService{db: db, views: viewBuilder{images: images.store}, users: users}
}

func (s *MembershipService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeShort, error) {
	return s.addRecipe(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, recipeID, "recipe is already in favorites")
}

func (s *MembershipService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.removeRecipe(ctx, &models.Favorite{}, userID, recipeID, "recipe is not in favorites")
}

func (s *MembershipService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeShort, error) {
	return s.addRecipe(ctx, &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}, recipeID, "recipe is already in the shopping cart")
}

func (s *MembershipService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.removeRecipe(ctx, &models.ShoppingCartEntry{}, userID, recipeID, "recipe is not in the shopping cart")
}

func (s *MembershipService) addRecipe(ctx context.Context, row interface{}, recipeID uint, duplicate string) (*types.RecipeShort, error) {
	var recipe models.Recipe
	err := database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			return errs.FromDB(err, "recipe")
		}
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			if errs.IsUniqueViolation(err) {
				return errs.Conflict(duplicate)
			}
			return errs.FromDB(err, "recipe")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	short := s.views.short(&recipe)
	return &short, nil
}

func (s *MembershipService) removeRecipe(ctx context.Context, model interface{}, userID, recipeID uint, missing string) error {
	return database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Recipe{}, recipeID).Error; err != nil {
			return errs.FromDB(err, "recipe")
		}
		result := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
		if result.Error != nil {
			return errs.FromDB(result.Error, "recipe")
		}
		if result.RowsAffected == 0 {
			return &errs.Error{Kind: errs.KindNotFound, Message: missing}
		}
		return nil
	})
}

// Follow subscribes followerID to authorID and returns the author's profile
// with a preview of their recipes.
func (s *MembershipService) Follow(ctx context.Context, followerID, authorID uint, recipesLimit int) (*types.Subscription, error) {
	if followerID == authorID {
		return nil, errs.Validation("author", "you cannot subscribe to yourself")
	}
	err := database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, authorID).Error; err != nil {
			return errs.FromDB(err, "user")
		}
		if err := tx.Omit(clause.Associations).Create(&models.Follow{FollowerID: followerID, FolloweeID: authorID}).Error; err != nil {
			if errs.IsUniqueViolation(err) {
				return errs.Conflict("already subscribed")
			}
			return errs.FromDB(err, "subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Uint("follower", followerID).Uint("author", authorID).Msg("Subscription added")
	return s.users.Subscription(ctx, authorID, followerID, recipesLimit)
}

func (s *MembershipService) Unfollow(ctx context.Context, followerID, authorID uint) error {
	return database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, authorID).Error; err != nil {
			return errs.FromDB(err, "user")
		}
		result := tx.Where("follower_id = ? AND followee_id = ?", followerID, authorID).Delete(&models.Follow{})
		if result.Error != nil {
			return errs.FromDB(result.Error, "subscription")
		}
		if result.RowsAffected == 0 {
			return &errs.Error{Kind: errs.KindNotFound, Message: "subscription not found"}
		}
		return nil
	})
}

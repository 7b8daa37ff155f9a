package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

// UserService serves user profiles and subscription listings
type UserService struct {
	db    *gorm.DB
	views viewBuilder
}

func NewUserService(db *gorm.DB, images *ImageService) *UserService {
	return &UserService{db: db, views: viewBuilder{images: images.store}}
}

// GetUser loads the user model by id
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, errs.FromDB(err, "user")
	}
	return &user, nil
}

// GetProfile returns a user's profile as seen by viewerID
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*types.Profile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	followed, err := followedSet(ctx, s.db, viewerID, []uint{id})
	if err != nil {
		return nil, err
	}
	profile := profileView(user, followed[id])
	return &profile, nil
}

// ListProfiles returns a window of users ordered by id and the total count
func (s *UserService) ListProfiles(ctx context.Context, viewerID uint, limit, offset int) ([]types.Profile, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, errs.FromDB(err, "user")
	}
	var users []models.User
	if err := db.Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, errs.FromDB(err, "user")
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	followed, err := followedSet(ctx, s.db, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]types.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, profileView(&users[i], followed[users[i].ID]))
	}
	return profiles, count, nil
}

// Subscription builds the subscription view of authorID for viewerID.
// recipesLimit <= 0 means every recipe.
func (s *UserService) Subscription(ctx context.Context, authorID, viewerID uint, recipesLimit int) (*types.Subscription, error) {
	author, err := s.GetUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	followed, err := followedSet(ctx, s.db, viewerID, []uint{authorID})
	if err != nil {
		return nil, err
	}
	sub, err := s.subscription(ctx, author, followed[authorID], recipesLimit)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Subscriptions lists the authors viewerID follows, newest subscription first
func (s *UserService) Subscriptions(ctx context.Context, viewerID uint, limit, offset, recipesLimit int) ([]types.Subscription, int64, error) {
	db := s.db.WithContext(ctx)
	followed := db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", viewerID)

	var count int64
	if err := db.Model(&models.User{}).Where("id IN (?)", followed).Count(&count).Error; err != nil {
		return nil, 0, errs.FromDB(err, "subscription")
	}

	var authors []models.User
	err := db.Model(&models.User{}).
		Joins("JOIN follows ON follows.followee_id = users.id AND follows.follower_id = ?", viewerID).
		Order("follows.id DESC").
		Limit(limit).Offset(offset).
		Find(&authors).Error
	if err != nil {
		return nil, 0, errs.FromDB(err, "subscription")
	}

	subs := make([]types.Subscription, 0, len(authors))
	for i := range authors {
		sub, err := s.subscription(ctx, &authors[i], true, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, sub)
	}
	return subs, count, nil
}

func (s *UserService) subscription(ctx context.Context, author *models.User, subscribed bool, recipesLimit int) (types.Subscription, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&total).Error; err != nil {
		return types.Subscription{}, errs.FromDB(err, "recipe")
	}

	query := db.Where("author_id = ?", author.ID).Order("created_at DESC, id DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return types.Subscription{}, errs.FromDB(err, "recipe")
	}

	sub := types.Subscription{
		Profile:      profileView(author, subscribed),
		Recipes:      make([]types.RecipeShort, 0, len(recipes)),
		RecipesCount: total,
	}
	for i := range recipes {
		sub.Recipes = append(sub.Recipes, s.views.short(&recipes[i]))
	}
	return sub, nil
}

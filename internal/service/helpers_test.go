package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/storage"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

// pngBytes is a 1x1 transparent PNG
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func inlinePNG() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func newTestImages(t *testing.T) *ImageService {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)
	return NewImageService(store)
}

type testServices struct {
	db       *gorm.DB
	images   *ImageService
	auth     *AuthService
	users    *UserService
	recipes  *RecipeService
	members  *MembershipService
	catalog  *CatalogService
	shopping *ShoppingService
}

func newTestServices(t *testing.T, db *gorm.DB) *testServices {
	t.Helper()
	images := newTestImages(t)
	tokens, err := NewMemoryTokenStore(128)
	require.NoError(t, err)
	users := NewUserService(db, images)
	return &testServices{
		db:       db,
		images:   images,
		auth:     NewAuthService(db, "test-secret", time.Hour, tokens),
		users:    users,
		recipes:  NewRecipeService(db, images),
		members:  NewMembershipService(db, images, users),
		catalog:  NewCatalogService(db),
		shopping: NewShoppingService(db),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func recipeRequest(name string, tags []uint, lines ...types.IngredientAmount) *types.RecipeRequest {
	return &types.RecipeRequest{
		Name:        ptr(name),
		Text:        ptr("Mix everything"),
		CookingTime: ptr(15),
		Tags:        &tags,
		Ingredients: &lines,
	}
}

var bg = context.Background()

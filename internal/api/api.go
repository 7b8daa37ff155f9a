package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
	"github.com/Bigbrotherx/foodgram/backend/internal/service"
)

// Services bundles the services the HTTP API is built on
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Recipes  *service.RecipeService
	Members  *service.MembershipService
	Catalog  *service.CatalogService
	Shopping *service.ShoppingService
}

func NewServices(db *gorm.DB, images *service.ImageService, tokens service.TokenStore, jwtSecret string, tokenTTL time.Duration) Services {
	users := service.NewUserService(db, images)
	return Services{
		Auth:     service.NewAuthService(db, jwtSecret, tokenTTL, tokens),
		Users:    users,
		Recipes:  service.NewRecipeService(db, images),
		Members:  service.NewMembershipService(db, images, users),
		Catalog:  service.NewCatalogService(db),
		Shopping: service.NewShoppingService(db),
	}
}

// Options tune the HTTP surface
type Options struct {
	PageSize       int
	MaxUploadBytes int64
	LoginPerMinute int
	RecipeLimiter  *middleware.RateLimiter
}

// SetupAPI registers every route under /api
func SetupAPI(router *gin.Engine, svc Services, opts Options) {
	if opts.PageSize <= 0 {
		opts.PageSize = 6
	}
	api := router.Group("/api")
	{
		NewAuthHandler(svc.Auth, opts.LoginPerMinute).RegisterRoutes(api)
		NewUserHandler(svc.Auth, svc.Users, svc.Members, opts.PageSize).RegisterRoutes(api)
		NewCatalogHandler(svc.Catalog).RegisterRoutes(api)
		NewRecipeHandler(svc.Auth, svc.Recipes, svc.Members, svc.Shopping,
			opts.RecipeLimiter, opts.PageSize, opts.MaxUploadBytes).RegisterRoutes(api)
	}
}

package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/config"
	"github.com/Bigbrotherx/foodgram/backend/internal/api"
	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
	"github.com/Bigbrotherx/foodgram/backend/internal/storage"
)

// Deps is everything the router needs beyond the configuration
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Images   storage.ImageStore
	Services api.Services
}

// SetupRouter configures the application routes
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	router.GET("/health", healthHandler(deps))

	// Locally stored images are served by the API itself
	if local, ok := deps.Images.(*storage.LocalStore); ok {
		router.Static(strings.TrimSuffix(cfg.MediaURL, "/"), local.Root())
	}

	api.SetupAPI(router, deps.Services, api.Options{
		PageSize:       cfg.PageSize,
		MaxUploadBytes: cfg.MaxUploadSizeBytes,
		LoginPerMinute: cfg.LoginPerMinute,
		RecipeLimiter:  middleware.NewRecipeCreationRateLimiter(deps.Redis, cfg.RecipesPerHour),
	})

	return router
}

func healthHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok"}
		code := http.StatusOK
		if err := database.HealthCheck(ctx, deps.DB); err != nil {
			status["status"], status["database"] = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
		if deps.Redis != nil {
			status["redis"] = "ok"
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				status["status"], status["redis"] = "degraded", err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	}
}

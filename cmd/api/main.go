package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Bigbrotherx/foodgram/backend/config"
	"github.com/Bigbrotherx/foodgram/backend/internal/api"
	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/logging"
	"github.com/Bigbrotherx/foodgram/backend/internal/router"
	"github.com/Bigbrotherx/foodgram/backend/internal/server"
	"github.com/Bigbrotherx/foodgram/backend/internal/service"
	"github.com/Bigbrotherx/foodgram/backend/internal/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	memoryTokenSize = 10000
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel)
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
	log.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	var tokens service.TokenStore
	if redisClient != nil {
		defer redisClient.Close()
		tokens = service.NewRedisTokenStore(redisClient)
	} else {
		log.Warn().Msg("REDIS_URL not set; revoked tokens are kept in memory and rate limiting is off")
		if tokens, err = service.NewMemoryTokenStore(memoryTokenSize); err != nil {
			return err
		}
	}

	images, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	services := api.NewServices(db, service.NewImageService(images), tokens, cfg.JWTSecret, cfg.TokenTTL)
	engine := router.SetupRouter(cfg, router.Deps{
		DB:       db,
		Redis:    redisClient,
		Images:   images,
		Services: services,
	})
	srv := server.New(cfg, engine)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	return g.Wait()
}

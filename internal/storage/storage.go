package storage

import (
	"context"
	"fmt"

	"github.com/Bigbrotherx/foodgram/backend/config"
)

// ImageStore persists recipe images under a key and resolves their public URL.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the store selected by cfg.MediaBackend
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.MediaBackend {
	case "s3":
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return NewS3Store(s3Cfg), nil
	case "local", "":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	default:
		return nil, fmt.Errorf("unknown media backend: %s", cfg.MediaBackend)
	}
}

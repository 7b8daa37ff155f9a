package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/storage"
)

const imagePrefix = "data:image/"

var imageExt = regexp.MustCompile(`^[a-z0-9.+-]{1,16}$`)

// Image is a decoded recipe image ready to be stored
type Image struct {
	Data        []byte
	Ext         string
	ContentType string
}

// DecodeInlineImage parses "data:image/<ext>;base64,<payload>".
func DecodeInlineImage(value string) (*Image, error) {
	if !strings.HasPrefix(value, imagePrefix) {
		return nil, errs.Validation("image", "must be a data:image/<ext>;base64 string")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(value, imagePrefix), ";base64,")
	if !ok {
		return nil, errs.Validation("image", "missing ;base64, separator")
	}
	ext := strings.ToLower(header)
	if !imageExt.MatchString(ext) {
		return nil, errs.Validation("image", "invalid image extension")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errs.Validation("image", "invalid base64 payload")
	}
	if len(data) == 0 {
		return nil, errs.Validation("image", "image is empty")
	}
	return &Image{Data: data, Ext: ext, ContentType: "image/" + ext}, nil
}

// UploadedImage wraps raw bytes from a multipart upload
func UploadedImage(data []byte, filename string) (*Image, error) {
	if len(data) == 0 {
		return nil, errs.Validation("image", "image is empty")
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errs.Validation("image", "upload is not an image")
	}
	ext := strings.TrimPrefix(contentType, "image/")
	if dot := strings.LastIndex(filename, "."); dot >= 0 && dot < len(filename)-1 {
		if candidate := strings.ToLower(filename[dot+1:]); imageExt.MatchString(candidate) {
			ext = candidate
		}
	}
	return &Image{Data: data, Ext: ext, ContentType: contentType}, nil
}

// ImageService stores recipe images under generated names
type ImageService struct {
	store storage.ImageStore
}

func NewImageService(store storage.ImageStore) *ImageService {
	return &ImageService{store: store}
}

// Save stores img and returns its key
func (s *ImageService) Save(ctx context.Context, img *Image) (string, error) {
	key := fmt.Sprintf("recipes/%s.%s", uuid.NewString(), img.Ext)
	if err := s.store.Save(ctx, key, img.ContentType, img.Data); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	log.Debug().Str("key", key).Int("bytes", len(img.Data)).Msg("Stored recipe image")
	return key, nil
}

// Discard removes a stored image; failures are only logged
func (s *ImageService) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove recipe image")
	}
}

func (s *ImageService) URL(key string) string {
	return s.store.URL(key)
}

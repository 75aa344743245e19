package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/storage"
)

var (
	ErrImageNotString = errors.New("image must be a string")
	ErrImageFormat    = errors.New("image must be a data URI of the form data:<mime>;base64,<payload>")
	ErrImageType      = errors.New("unsupported image type")
	ErrImageEncoding  = errors.New("image payload is not valid base64")
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodedImage is an embedded image pulled out of a data URI
type DecodedImage struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage parses "data:<mime>;base64,<payload>". Each failure mode has
// its own error: not a string, missing marker, unsupported mime, bad payload.
func DecodeImage(v interface{}) (*DecodedImage, error) {
	s, ok := v.(string)
	if !ok {
		return nil, ErrImageNotString
	}

	header, payload, found := strings.Cut(s, ";base64,")
	if !found || !strings.HasPrefix(header, "data:") {
		return nil, ErrImageFormat
	}

	mime := strings.ToLower(strings.TrimPrefix(header, "data:"))
	ext, ok := imageExtensions[mime]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrImageType, mime)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil || len(data) == 0 {
		return nil, ErrImageEncoding
	}

	return &DecodedImage{Data: data, ContentType: mime, Extension: ext}, nil
}

// ImageService stores decoded recipe images
type ImageService struct {
	store storage.ImageStore
	log   logrus.FieldLogger
}

func NewImageService(store storage.ImageStore, log logrus.FieldLogger) *ImageService {
	return &ImageService{store: store, log: log}
}

// Save stores the image under a fresh key and returns the key.
func (s *ImageService) Save(ctx context.Context, img *DecodedImage) (string, error) {
	key := "recipes/images/" + uuid.NewString() + img.Extension
	if err := s.store.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, nil
}

// Remove deletes a stored image. Failures are logged, not returned: the
// recipe change they belong to has already been decided.
func (s *ImageService) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("failed to delete image")
	}
}

func (s *ImageService) URL(key string) string {
	return s.store.URL(key)
}

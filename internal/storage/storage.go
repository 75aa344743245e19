// Package storage persists recipe images and resolves their public URLs.
package storage

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for keys that would escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// ImageStore saves image bytes under a key and resolves the key to a URL.
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

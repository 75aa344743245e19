package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func newImageService(t *testing.T) (*service.ImageService, *storage.LocalImageStore) {
	t.Helper()
	store, err := storage.NewLocalImageStore(t.TempDir(), "/media/")
	require.NoError(t, err)
	return service.NewImageService(store, logging.Discard()), store
}

func setupRecipeService(t *testing.T) (*gorm.DB, *service.RecipeService) {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)
	images, _ := newImageService(t)
	return db, service.NewRecipeService(db, images, logging.Discard())
}

func ptr[T any](v T) *T {
	return &v
}

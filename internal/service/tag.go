package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/models"
)

const allTagsKey = "tags:all"

// TagService serves tags. Tags are immutable reference data, so lookups are
// cached in-process until Invalidate is called.
type TagService struct {
	db    *gorm.DB
	cache *lru.Cache
}

func NewTagService(db *gorm.DB, cacheSize int) (*TagService, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating tag cache: %w", err)
	}
	return &TagService{db: db, cache: cache}, nil
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	if cached, ok := s.cache.Get(allTagsKey); ok {
		return append([]models.Tag(nil), cached.([]models.Tag)...), nil
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	s.cache.Add(allTagsKey, tags)
	return append([]models.Tag(nil), tags...), nil
}

func (s *TagService) Get(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	if cached, ok := s.cache.Get(id); ok {
		tag := cached.(models.Tag)
		return &tag, nil
	}

	var tag models.Tag
	err := s.db.WithContext(ctx).Take(&tag, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("tag", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag: %w", err)
	}
	s.cache.Add(id, tag)
	return &tag, nil
}

// Load upserts tags by slug and drops the cache.
func (s *TagService) Load(ctx context.Context, tags []models.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "color"}),
	}).Create(&tags).Error
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	s.Invalidate()
	return nil
}

func (s *TagService) Invalidate() {
	s.cache.Purge()
}

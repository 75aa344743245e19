package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
	log    logrus.FieldLogger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images *ImageService, log logrus.FieldLogger) *RecipeService {
	return &RecipeService{db: db, images: images, log: log}
}

// recipeComposition is a validated write request
type recipeComposition struct {
	ingredients []models.RecipeIngredient
	tagIDs      []uuid.UUID
	image       *DecodedImage
}

// List returns one page of recipes matching the filter, annotated for viewer.
func (s *RecipeService) List(ctx context.Context, viewer *uuid.UUID, filter types.RecipeFilter, page types.Pagination) ([]models.Recipe, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := NewRecipeQuery(db, viewer).Filter(filter).DB().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting recipes: %w", err)
	}

	var recipes []models.Recipe
	err := NewRecipeQuery(db, viewer).
		Filter(filter).
		Annotate().
		WithComposition().
		Ordered().
		DB().
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing recipes: %w", err)
	}
	return recipes, count, nil
}

// Get returns a single annotated recipe
func (s *RecipeService) Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := NewRecipeQuery(s.db.WithContext(ctx), viewer).
		Annotate().
		WithComposition().
		DB().
		Where("recipes.id = ?", id).
		Take(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("recipe", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	return &recipe, nil
}

// AuthorOf returns the author of a recipe; used by the permission layer.
func (s *RecipeService) AuthorOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Select("id", "author_id").Take(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, apperror.NotFound("recipe", id.String())
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("getting recipe author: %w", err)
	}
	return recipe.AuthorID, nil
}

// Create validates the request and persists the recipe with its ingredient
// lines and tags in one transaction. The author is always authorID.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, req *types.RecipeWriteRequest) (*models.Recipe, error) {
	comp, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	key, err := s.images.Save(ctx, comp.image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(req.Name),
		Text:        req.Text,
		Image:       key,
		CookingTime: *req.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("creating recipe: %w", err)
		}
		return writeComposition(tx, recipe.ID, comp)
	})
	if err != nil {
		s.images.Remove(ctx, key)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"recipe_id": recipe.ID, "author_id": authorID}).Info("recipe created")
	return s.Get(ctx, &authorID, recipe.ID)
}

// Update replaces the recipe's scalar fields and fully recreates its
// ingredient lines and tags. Only the author may update.
func (s *RecipeService) Update(ctx context.Context, authorID, id uuid.UUID, req *types.RecipeWriteRequest) (*models.Recipe, error) {
	current, err := s.ownedRecipe(ctx, authorID, id)
	if err != nil {
		return nil, err
	}

	comp, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	key, err := s.images.Save(ctx, comp.image)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearComposition(tx, id); err != nil {
			return err
		}
		if err := writeComposition(tx, id, comp); err != nil {
			return err
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":         strings.TrimSpace(req.Name),
			"text":         req.Text,
			"image":        key,
			"cooking_time": *req.CookingTime,
			"updated_at":   time.Now(),
		}).Error
	})
	if err != nil {
		s.images.Remove(ctx, key)
		return nil, fmt.Errorf("updating recipe: %w", err)
	}

	s.images.Remove(ctx, current.Image)
	s.log.WithField("recipe_id", id).Info("recipe updated")
	return s.Get(ctx, &authorID, id)
}

// Delete removes the recipe and every membership row that references it.
func (s *RecipeService) Delete(ctx context.Context, authorID, id uuid.UUID) error {
	current, err := s.ownedRecipe(ctx, authorID, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.ShoppingListEntry{}).Error; err != nil {
			return err
		}
		if err := clearComposition(tx, id); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}

	s.images.Remove(ctx, current.Image)
	s.log.WithField("recipe_id", id).Info("recipe deleted")
	return nil
}

func (s *RecipeService) ownedRecipe(ctx context.Context, authorID, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Take(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("recipe", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	if recipe.AuthorID != authorID {
		return nil, apperror.Forbidden("only the author can change this recipe")
	}
	return &recipe, nil
}

// validate collects every field problem before anything is persisted.
func (s *RecipeService) validate(ctx context.Context, req *types.RecipeWriteRequest) (*recipeComposition, error) {
	fields := apperror.FieldErrors{}
	comp := &recipeComposition{}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		fields.Add("name", "this field is required")
	case len([]rune(name)) > 200:
		fields.Add("name", "must be at most 200 characters")
	}
	if strings.TrimSpace(req.Text) == "" {
		fields.Add("text", "this field is required")
	}
	if req.CookingTime == nil {
		fields.Add("cooking_time", "this field is required")
	} else if *req.CookingTime < 1 {
		fields.Add("cooking_time", "must be at least 1")
	}

	img, err := DecodeImage(req.Image)
	if err != nil {
		fields.Add("image", err.Error())
	}
	comp.image = img

	if len(req.Ingredients) == 0 {
		fields.Add("ingredients", "at least one ingredient is required")
	}
	seen := make(map[uuid.UUID]bool, len(req.Ingredients))
	ingredientIDs := make([]uuid.UUID, 0, len(req.Ingredients))
	for i, line := range req.Ingredients {
		id, err := uuid.Parse(line.ID)
		if err != nil {
			fields.Add("ingredients", fmt.Sprintf("invalid ingredient id %q", line.ID))
			continue
		}
		if seen[id] {
			fields.Add("ingredients", fmt.Sprintf("ingredient %s is listed more than once", id))
			continue
		}
		if line.Amount < 1 {
			fields.Add("ingredients", fmt.Sprintf("amount of ingredient %s must be at least 1", id))
			continue
		}
		seen[id] = true
		ingredientIDs = append(ingredientIDs, id)
		comp.ingredients = append(comp.ingredients, models.RecipeIngredient{
			IngredientID: id,
			Amount:       line.Amount,
			Position:     i,
		})
	}

	if req.Tags == nil {
		fields.Add("tags", "this field is required")
	}
	tagSeen := make(map[uuid.UUID]bool, len(req.Tags))
	for _, raw := range req.Tags {
		id, err := uuid.Parse(raw)
		if err != nil {
			fields.Add("tags", fmt.Sprintf("invalid tag id %q", raw))
			continue
		}
		if !tagSeen[id] {
			tagSeen[id] = true
			comp.tagIDs = append(comp.tagIDs, id)
		}
	}

	db := s.db.WithContext(ctx)
	if missing, err := missingIDs(db, &models.Ingredient{}, ingredientIDs); err != nil {
		return nil, err
	} else if len(missing) > 0 {
		fields.Add("ingredients", fmt.Sprintf("ingredient %s does not exist", missing[0]))
	}
	if missing, err := missingIDs(db, &models.Tag{}, comp.tagIDs); err != nil {
		return nil, err
	} else if len(missing) > 0 {
		fields.Add("tags", fmt.Sprintf("tag %s does not exist", missing[0]))
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}
	return comp, nil
}

// missingIDs returns the ids that have no row in model's table.
func missingIDs(db *gorm.DB, model interface{}, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := db.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("checking references: %w", err)
	}
	present := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func clearComposition(tx *gorm.DB, recipeID uuid.UUID) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("clearing ingredients: %w", err)
	}
	if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}
	return nil
}

func writeComposition(tx *gorm.DB, recipeID uuid.UUID, comp *recipeComposition) error {
	lines := make([]models.RecipeIngredient, len(comp.ingredients))
	for i, line := range comp.ingredients {
		line.RecipeID = recipeID
		lines[i] = line
	}
	if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
		return fmt.Errorf("creating ingredient lines: %w", err)
	}

	if len(comp.tagIDs) == 0 {
		return nil
	}
	links := make([]map[string]interface{}, 0, len(comp.tagIDs))
	for _, tagID := range comp.tagIDs {
		links = append(links, map[string]interface{}{"recipe_id": recipeID, "tag_id": tagID})
	}
	if err := tx.Table("recipe_tags").Create(links).Error; err != nil {
		return fmt.Errorf("linking tags: %w", err)
	}
	return nil
}

// ImageURL resolves a stored image key to its public URL.
func (s *RecipeService) ImageURL(key string) string {
	return s.images.URL(key)
}

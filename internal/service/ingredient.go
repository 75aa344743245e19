package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// RankIngredientsByName keeps ingredients whose name contains q (case
// insensitive) and returns those starting with q first, then the rest. The
// input order is preserved inside each group. An empty q returns everything.
func RankIngredientsByName(q string, ingredients []models.Ingredient) []models.Ingredient {
	if q == "" {
		return ingredients
	}
	needle := strings.ToLower(q)
	prefix := make([]models.Ingredient, 0, len(ingredients))
	var contains []models.Ingredient
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		switch {
		case strings.HasPrefix(name, needle):
			prefix = append(prefix, ing)
		case strings.Contains(name, needle):
			contains = append(contains, ing)
		}
	}
	return append(prefix, contains...)
}

// IngredientService serves the ingredient reference table
type IngredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// Search narrows candidates in SQL and ranks them with RankIngredientsByName.
// SQLite's LIKE folds ASCII case only, so there every ingredient is loaded
// and the Unicode-aware ranking does the filtering.
func (s *IngredientService) Search(ctx context.Context, q string) ([]models.Ingredient, error) {
	q = strings.TrimSpace(q)
	db := s.db.WithContext(ctx).Order("name").Order("id")
	if q != "" && s.db.Dialector.Name() == "postgres" {
		db = db.Where("name ILIKE ? ESCAPE '\\'", "%"+likeEscaper.Replace(q)+"%")
	}

	var ingredients []models.Ingredient
	if err := db.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("searching ingredients: %w", err)
	}
	return RankIngredientsByName(q, ingredients), nil
}

func (s *IngredientService) Get(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).Take(&ingredient, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("ingredient", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting ingredient: %w", err)
	}
	return &ingredient, nil
}

// Load inserts ingredients, skipping names that already exist with the same
// unit. It returns how many rows were created.
func (s *IngredientService) Load(ctx context.Context, ingredients []models.Ingredient) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ing := range ingredients {
			var count int64
			if err := tx.Model(&models.Ingredient{}).
				Where("name = ? AND measurement_unit = ?", ing.Name, ing.MeasurementUnit).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			ing := ing
			if err := tx.Create(&ing).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("loading ingredients: %w", err)
	}
	return created, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/render"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IngredientLine is one recipe ingredient reached through a shopping list entry.
type IngredientLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// AggregateIngredients sums amounts per ingredient name in first-encounter
// order. The unit of the first occurrence is kept; lines of the same name
// with another unit are still added to the same total.
func AggregateIngredients(lines []IngredientLine) *types.ShoppingList {
	list := &types.ShoppingList{Items: []types.ShoppingListItem{}}
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.Name]; ok {
			list.Items[i].TotalAmount += line.Amount
			continue
		}
		index[line.Name] = len(list.Items)
		list.Items = append(list.Items, types.ShoppingListItem{
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			TotalAmount:     line.Amount,
		})
	}
	return list
}

// ShoppingListService aggregates and exports a user's shopping list
type ShoppingListService struct {
	db       *gorm.DB
	renderer render.Renderer
	log      logrus.FieldLogger
}

func NewShoppingListService(db *gorm.DB, renderer render.Renderer, log logrus.FieldLogger) *ShoppingListService {
	return &ShoppingListService{db: db, renderer: renderer, log: log}
}

// Build loads every ingredient line of the user's listed recipes in one
// query and folds them.
func (s *ShoppingListService) Build(ctx context.Context, userID uuid.UUID) (*types.ShoppingList, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Select("id", "username").Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var lines []IngredientLine
	err = db.Table("shopping_list_entries").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_list_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_list_entries.user_id = ?", userID).
		Order("shopping_list_entries.created_at").
		Order("shopping_list_entries.id").
		Order("recipe_ingredients.position").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("loading shopping list: %w", err)
	}

	list := AggregateIngredients(lines)
	list.Owner = user.Username
	return list, nil
}

// Export renders the aggregated list. An empty list renders an empty document.
func (s *ShoppingListService) Export(ctx context.Context, userID uuid.UUID) (*render.Document, error) {
	list, err := s.Build(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("rendering shopping list: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "items": len(list.Items)}).Info("shopping list exported")
	return doc, nil
}

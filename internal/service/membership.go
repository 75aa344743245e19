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
)

// Membership names a (user, recipe) collection.
type Membership int

const (
	Favorites Membership = iota
	ShoppingCart
)

func (m Membership) String() string {
	if m == ShoppingCart {
		return "shopping_cart"
	}
	return "favorites"
}

func (m Membership) row(userID, recipeID uuid.UUID) interface{} {
	if m == ShoppingCart {
		return &models.ShoppingListEntry{UserID: userID, RecipeID: recipeID}
	}
	return &models.Favorite{UserID: userID, RecipeID: recipeID}
}

func (m Membership) model() interface{} {
	if m == ShoppingCart {
		return &models.ShoppingListEntry{}
	}
	return &models.Favorite{}
}

func (m Membership) duplicateMessage() string {
	if m == ShoppingCart {
		return "this recipe is already in your shopping list"
	}
	return "this recipe is already in your favorites"
}

func (m Membership) absentMessage() string {
	if m == ShoppingCart {
		return "this recipe is not in your shopping list"
	}
	return "this recipe is not in your favorites"
}

// MembershipService toggles favorites and shopping list entries. Uniqueness
// is enforced by the store, so concurrent duplicate adds produce exactly one
// row and one conflict.
type MembershipService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewMembershipService(db *gorm.DB, log logrus.FieldLogger) *MembershipService {
	return &MembershipService{db: db, log: log}
}

func (s *MembershipService) recipe(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Take(&recipe, "id = ?", recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("recipe", recipeID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	return &recipe, nil
}

// Add puts the recipe into the user's collection and returns the recipe.
func (s *MembershipService) Add(ctx context.Context, m Membership, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Create(m.row(userID, recipeID)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict(m.duplicateMessage())
	}
	if err != nil {
		return nil, fmt.Errorf("adding to %s: %w", m, err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "recipe_id": recipeID, "collection": m.String()}).Debug("membership added")
	return recipe, nil
}

// Remove takes the recipe out of the user's collection.
func (s *MembershipService) Remove(ctx context.Context, m Membership, userID, recipeID uuid.UUID) error {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(m.model())
	if res.Error != nil {
		return fmt.Errorf("removing from %s: %w", m, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict(m.absentMessage())
	}
	return nil
}

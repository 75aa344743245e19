package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Author      User      `gorm:"foreignKey:AuthorID"`
	Name        string    `gorm:"size:200;not null"`
	Text        string    `gorm:"type:text;not null"`
	Image       string    `gorm:"size:255;not null"`
	CookingTime int       `gorm:"not null;check:cooking_time >= 1"`

	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`

	// Per-viewer flags filled by the existence annotator; never persisted.
	IsFavorited        bool `gorm:"->;-:migration"`
	IsInShoppingCart   bool `gorm:"->;-:migration"`
	IsAuthorSubscribed bool `gorm:"->;-:migration"`
}

func (r *Recipe) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeIngredient links a recipe to an ingredient with an amount. Position
// keeps the order the author listed the ingredients in.
type RecipeIngredient struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RecipeID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
	Amount       int        `gorm:"not null;check:amount >= 1"`
	Position     int        `gorm:"not null;default:0"`
}

func (ri *RecipeIngredient) BeforeCreate(*gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// Favorite and ShoppingListEntry are (user, recipe) memberships. Rows are
// created on add and deleted on remove.
type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_recipe;index"`
}

func (f *Favorite) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type ShoppingListEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_recipe;index"`
}

func (e *ShoppingListEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model in dependency order for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Subscription{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingListEntry{},
	}
}

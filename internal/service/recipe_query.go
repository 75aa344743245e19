package service

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeQuery composes the recipe listing: a filter narrows the base set and
// the annotator adds per-viewer flags in the same SELECT.
//
// The viewer is bound as a query parameter. For anonymous requests it is SQL
// NULL, so every "user_id = ?" comparison is unknown and the EXISTS flags are
// false without any special casing.
type RecipeQuery struct {
	db     *gorm.DB
	viewer interface{}
}

func NewRecipeQuery(db *gorm.DB, viewer *uuid.UUID) *RecipeQuery {
	q := &RecipeQuery{db: db.Model(&models.Recipe{})}
	if viewer != nil {
		q.viewer = *viewer
	}
	return q
}

func (q *RecipeQuery) sub() *gorm.DB {
	return q.db.Session(&gorm.Session{NewDB: true})
}

func (q *RecipeQuery) favorited() *gorm.DB {
	return q.sub().Table("favorites").Select("1").
		Where("favorites.recipe_id = recipes.id AND favorites.user_id = ?", q.viewer)
}

func (q *RecipeQuery) inShoppingCart() *gorm.DB {
	return q.sub().Table("shopping_list_entries").Select("1").
		Where("shopping_list_entries.recipe_id = recipes.id AND shopping_list_entries.user_id = ?", q.viewer)
}

func (q *RecipeQuery) authorSubscribed() *gorm.DB {
	return q.sub().Table("subscriptions").Select("1").
		Where("subscriptions.followee_id = recipes.author_id AND subscriptions.follower_id = ?", q.viewer)
}

// Filter applies the recipe filter. Criteria are AND-combined; the tag
// criterion is a union over slugs.
func (q *RecipeQuery) Filter(f types.RecipeFilter) *RecipeQuery {
	db := q.db
	if len(f.Tags) > 0 {
		tagged := q.sub().Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.Tags)
		db = db.Where("recipes.id IN (?)", tagged)
	}
	if f.AuthorID != nil {
		db = db.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if f.IsFavorited {
		db = db.Where("EXISTS (?)", q.favorited())
	}
	if f.IsInShoppingCart {
		db = db.Where("EXISTS (?)", q.inShoppingCart())
	}
	q.db = db
	return q
}

// Annotate selects the recipe columns plus is_favorited, is_in_shopping_cart
// and is_author_subscribed for the viewer.
func (q *RecipeQuery) Annotate() *RecipeQuery {
	q.db = q.db.Select(
		"recipes.*, EXISTS (?) AS is_favorited, EXISTS (?) AS is_in_shopping_cart, EXISTS (?) AS is_author_subscribed",
		q.favorited(), q.inShoppingCart(), q.authorSubscribed(),
	)
	return q
}

// WithComposition preloads author, tags and ingredient lines in a fixed
// number of queries regardless of page size.
func (q *RecipeQuery) WithComposition() *RecipeQuery {
	q.db = q.db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.position") }).
		Preload("Ingredients.Ingredient")
	return q
}

func (q *RecipeQuery) Ordered() *RecipeQuery {
	q.db = q.db.Order("recipes.name").Order("recipes.created_at")
	return q
}

// DB exposes the composed statement.
func (q *RecipeQuery) DB() *gorm.DB {
	return q.db
}

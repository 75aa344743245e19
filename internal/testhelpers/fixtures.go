package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TestPassword is the password of every user created by CreateUser.
const TestPassword = "testpassword123"

// PNGDataURI is a valid 1x1 PNG image as a data URI.
const PNGDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

// Line is an ingredient with an amount for CreateRecipe.
type Line struct {
	Ingredient models.Ingredient
	Amount     int
}

func CreateUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		LastName:     "Tester",
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name, slug string) models.Tag {
	t.Helper()
	color := "#E26C2D"
	tag := models.Tag{Name: name, Slug: slug, Color: &color}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(&ing).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return ing
}

// CreateRecipe inserts a recipe directly, bypassing validation.
func CreateRecipe(t *testing.T, db *gorm.DB, author models.User, name string, tags []models.Tag, lines ...Line) models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "Mix and serve.",
		Image:       fmt.Sprintf("recipes/images/%s.png", uuid.NewString()),
		CookingTime: 10,
	}
	if err := db.Omit(clause.Associations).Create(&recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	for i, l := range lines {
		ri := models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: l.Ingredient.ID,
			Amount:       l.Amount,
			Position:     i,
		}
		if err := db.Omit(clause.Associations).Create(&ri).Error; err != nil {
			t.Fatalf("failed to create recipe ingredient: %v", err)
		}
	}
	for _, tag := range tags {
		if err := db.Exec("INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)", recipe.ID, tag.ID).Error; err != nil {
			t.Fatalf("failed to tag recipe: %v", err)
		}
	}
	return recipe
}

func AddFavorite(t *testing.T, db *gorm.DB, user models.User, recipe models.Recipe) {
	t.Helper()
	if err := db.Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error; err != nil {
		t.Fatalf("failed to add favorite: %v", err)
	}
}

func AddToCart(t *testing.T, db *gorm.DB, user models.User, recipe models.Recipe) {
	t.Helper()
	if err := db.Create(&models.ShoppingListEntry{UserID: user.ID, RecipeID: recipe.ID}).Error; err != nil {
		t.Fatalf("failed to add to shopping list: %v", err)
	}
}

func Subscribe(t *testing.T, db *gorm.DB, follower, followee models.User) {
	t.Helper()
	if err := db.Create(&models.Subscription{FollowerID: follower.ID, FolloweeID: followee.ID}).Error; err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
}

package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/render"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	List(ctx context.Context, viewer *uuid.UUID, filter types.RecipeFilter, page types.Pagination) ([]models.Recipe, int64, error)
	Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*models.Recipe, error)
	AuthorOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	Create(ctx context.Context, authorID uuid.UUID, req *types.RecipeWriteRequest) (*models.Recipe, error)
	Update(ctx context.Context, authorID, id uuid.UUID, req *types.RecipeWriteRequest) (*models.Recipe, error)
	Delete(ctx context.Context, authorID, id uuid.UUID) error
	ImageURL(key string) string
}

// IMembershipService toggles favorites and shopping list entries
type IMembershipService interface {
	Add(ctx context.Context, m Membership, userID, recipeID uuid.UUID) (*models.Recipe, error)
	Remove(ctx context.Context, m Membership, userID, recipeID uuid.UUID) error
}

type IShoppingListService interface {
	Build(ctx context.Context, userID uuid.UUID) (*types.ShoppingList, error)
	Export(ctx context.Context, userID uuid.UUID) (*render.Document, error)
}

type ITagService interface {
	List(ctx context.Context) ([]models.Tag, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tag, error)
}

type IIngredientService interface {
	Search(ctx context.Context, q string) ([]models.Ingredient, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
}

// IUserService defines the interface for accounts and subscriptions
type IUserService interface {
	List(ctx context.Context, viewer *uuid.UUID, page types.Pagination) ([]models.User, int64, error)
	Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*models.User, error)
	Subscriptions(ctx context.Context, viewer uuid.UUID, page types.Pagination, recipesLimit int) ([]Subscription, int64, error)
	Subscribe(ctx context.Context, follower, followee uuid.UUID) (*models.User, error)
	Unsubscribe(ctx context.Context, follower, followee uuid.UUID) error
	AuthorWithRecipes(ctx context.Context, author *models.User, recipesLimit int) (*Subscription, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ IMembershipService   = (*MembershipService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
	_ ITagService          = (*TagService)(nil)
	_ IIngredientService   = (*IngredientService)(nil)
	_ IUserService         = (*UserService)(nil)
)

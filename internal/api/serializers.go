package api

import (
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ImageURLer resolves stored image keys.
type ImageURLer interface {
	ImageURL(key string) string
}

func toTag(t models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toTags(tags []models.Tag) []types.TagResponse {
	out := make([]types.TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTag(t))
	}
	return out
}

func toIngredient(i models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func toIngredients(items []models.Ingredient) []types.IngredientResponse {
	out := make([]types.IngredientResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toIngredient(i))
	}
	return out
}

func toUser(u models.User) types.UserResponse {
	return types.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: u.IsSubscribed,
	}
}

func toRecipe(r models.Recipe, images ImageURLer) types.RecipeResponse {
	author := toUser(r.Author)
	author.IsSubscribed = r.IsAuthorSubscribed

	lines := make([]types.RecipeIngredientResponse, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		lines = append(lines, types.RecipeIngredientResponse{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	return types.RecipeResponse{
		ID:               r.ID,
		Tags:             toTags(r.Tags),
		Author:           author,
		Ingredients:      lines,
		IsFavorited:      r.IsFavorited,
		IsInShoppingCart: r.IsInShoppingCart,
		Name:             r.Name,
		Image:            images.ImageURL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func toShortRecipe(r models.Recipe, images ImageURLer) types.ShortRecipeResponse {
	return types.ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       images.ImageURL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func toSubscription(s service.Subscription, images ImageURLer) types.UserWithRecipesResponse {
	recipes := make([]types.ShortRecipeResponse, 0, len(s.Recipes))
	for _, r := range s.Recipes {
		recipes = append(recipes, toShortRecipe(r, images))
	}
	return types.UserWithRecipesResponse{
		UserResponse: toUser(s.Author),
		Recipes:      recipes,
		RecipesCount: s.Author.RecipesCount,
	}
}

package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func writeRequest(name string, tags []models.Tag, lines ...testhelpers.Line) *types.RecipeWriteRequest {
	req := &types.RecipeWriteRequest{
		Tags:        []string{},
		Image:       testhelpers.PNGDataURI,
		Name:        name,
		Text:        "Stir well.",
		CookingTime: ptr(15),
	}
	for _, tag := range tags {
		req.Tags = append(req.Tags, tag.ID.String())
	}
	for _, l := range lines {
		req.Ingredients = append(req.Ingredients, types.IngredientAmount{ID: l.Ingredient.ID.String(), Amount: l.Amount})
	}
	return req
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.ErrorIs(t, err, apperror.ErrValidation)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Fields
}

func TestRecipeCreate(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "chef")
	lunch := testhelpers.CreateTag(t, db, "Lunch", "lunch")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	rice := testhelpers.CreateIngredient(t, db, "rice", "g")

	recipe, err := svc.Create(ctx, author.ID, writeRequest("Risotto", []models.Tag{lunch},
		testhelpers.Line{Ingredient: rice, Amount: 200},
		testhelpers.Line{Ingredient: salt, Amount: 5},
	))
	require.NoError(t, err)

	assert.Equal(t, author.ID, recipe.AuthorID)
	assert.Equal(t, "chef", recipe.Author.Username)
	assert.Equal(t, "Risotto", recipe.Name)
	assert.Equal(t, 15, recipe.CookingTime)
	assert.NotEmpty(t, recipe.Image)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "lunch", recipe.Tags[0].Slug)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "rice", recipe.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 200, recipe.Ingredients[0].Amount)
	assert.Equal(t, "salt", recipe.Ingredients[1].Ingredient.Name)
	assert.False(t, recipe.IsFavorited)
	assert.False(t, recipe.IsInShoppingCart)
}

func TestRecipeCreateValidation(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, db, "chef")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	t.Run("duplicate ingredient", func(t *testing.T) {
		req := writeRequest("Salty", nil,
			testhelpers.Line{Ingredient: salt, Amount: 1},
			testhelpers.Line{Ingredient: salt, Amount: 2},
		)
		_, err := svc.Create(ctx, author.ID, req)
		assert.Contains(t, fieldErrors(t, err), "ingredients")
	})

	t.Run("unknown ingredient and tag", func(t *testing.T) {
		req := writeRequest("Ghost", nil, testhelpers.Line{Ingredient: models.Ingredient{ID: uuid.New()}, Amount: 1})
		req.Tags = []string{uuid.NewString()}
		_, err := svc.Create(ctx, author.ID, req)
		fields := fieldErrors(t, err)
		assert.Contains(t, fields, "ingredients")
		assert.Contains(t, fields, "tags")
	})

	t.Run("every scalar field", func(t *testing.T) {
		req := writeRequest("  ", nil, testhelpers.Line{Ingredient: salt, Amount: 0})
		req.Text = ""
		req.CookingTime = ptr(0)
		req.Image = "not-an-image"
		_, err := svc.Create(ctx, author.ID, req)
		fields := fieldErrors(t, err)
		for _, field := range []string{"name", "text", "cooking_time", "image", "ingredients"} {
			assert.Contains(t, fields, field)
		}
	})

	t.Run("no ingredients", func(t *testing.T) {
		_, err := svc.Create(ctx, author.ID, writeRequest("Air", nil))
		assert.Contains(t, fieldErrors(t, err), "ingredients")
	})

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeUpdateReplacesComposition(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "chef")
	breakfast := testhelpers.CreateTag(t, db, "Breakfast", "breakfast")
	dinner := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")
	milk := testhelpers.CreateIngredient(t, db, "milk", "ml")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	created, err := svc.Create(ctx, author.ID, writeRequest("Pancakes", []models.Tag{breakfast},
		testhelpers.Line{Ingredient: egg, Amount: 2},
		testhelpers.Line{Ingredient: milk, Amount: 300},
	))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, author.ID, created.ID, writeRequest("Crepes", []models.Tag{dinner},
		testhelpers.Line{Ingredient: flour, Amount: 100},
	))
	require.NoError(t, err)

	assert.Equal(t, "Crepes", updated.Name)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "flour", updated.Ingredients[0].Ingredient.Name)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	assert.NotEqual(t, created.Image, updated.Image)

	var lines int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&lines).Error)
	assert.Equal(t, int64(1), lines)
}

func TestRecipeUpdateFailureKeepsComposition(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "chef")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")
	created, err := svc.Create(ctx, author.ID, writeRequest("Boiled egg", nil, testhelpers.Line{Ingredient: egg, Amount: 1}))
	require.NoError(t, err)

	req := writeRequest("Boiled egg", nil, testhelpers.Line{Ingredient: models.Ingredient{ID: uuid.New()}, Amount: 1})
	_, err = svc.Update(ctx, author.ID, created.ID, req)
	require.ErrorIs(t, err, apperror.ErrValidation)

	got, err := svc.Get(ctx, nil, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, egg.ID, got.Ingredients[0].IngredientID)
}

func TestRecipeOwnership(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "chef")
	other := testhelpers.CreateUser(t, db, "guest")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")
	recipe := testhelpers.CreateRecipe(t, db, author, "Egg", nil, testhelpers.Line{Ingredient: egg, Amount: 1})

	_, err := svc.Update(ctx, other.ID, recipe.ID, writeRequest("Mine now", nil, testhelpers.Line{Ingredient: egg, Amount: 1}))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	err = svc.Delete(ctx, other.ID, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	err = svc.Delete(ctx, author.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	owner, err := svc.AuthorOf(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, owner)
}

func TestRecipeDeleteRemovesMemberships(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "chef")
	fan := testhelpers.CreateUser(t, db, "fan")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")
	recipe := testhelpers.CreateRecipe(t, db, author, "Egg", nil, testhelpers.Line{Ingredient: egg, Amount: 1})
	testhelpers.AddFavorite(t, db, fan, recipe)
	testhelpers.AddToCart(t, db, fan, recipe)

	require.NoError(t, svc.Delete(ctx, author.ID, recipe.ID))

	_, err := svc.Get(ctx, nil, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var favorites, cart int64
	require.NoError(t, db.Model(&models.Favorite{}).Count(&favorites).Error)
	require.NoError(t, db.Model(&models.ShoppingListEntry{}).Count(&cart).Error)
	assert.Zero(t, favorites)
	assert.Zero(t, cart)
}

func TestRecipeListAnnotations(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "chef")
	viewer := testhelpers.CreateUser(t, db, "viewer")
	a := testhelpers.CreateRecipe(t, db, author, "A", nil)
	b := testhelpers.CreateRecipe(t, db, author, "B", nil)
	testhelpers.AddFavorite(t, db, viewer, a)
	testhelpers.AddToCart(t, db, viewer, b)
	testhelpers.Subscribe(t, db, viewer, author)

	page := types.Pagination{Page: 1, Limit: 10}

	t.Run("anonymous", func(t *testing.T) {
		recipes, count, err := svc.List(ctx, nil, types.RecipeFilter{}, page)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		for _, r := range recipes {
			assert.False(t, r.IsFavorited)
			assert.False(t, r.IsInShoppingCart)
			assert.False(t, r.IsAuthorSubscribed)
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		recipes, _, err := svc.List(ctx, &viewer.ID, types.RecipeFilter{}, page)
		require.NoError(t, err)
		require.Len(t, recipes, 2)
		assert.Equal(t, "A", recipes[0].Name)
		assert.True(t, recipes[0].IsFavorited)
		assert.False(t, recipes[0].IsInShoppingCart)
		assert.False(t, recipes[1].IsFavorited)
		assert.True(t, recipes[1].IsInShoppingCart)
		assert.True(t, recipes[0].IsAuthorSubscribed)
	})

	t.Run("other viewer", func(t *testing.T) {
		recipes, _, err := svc.List(ctx, &author.ID, types.RecipeFilter{}, page)
		require.NoError(t, err)
		for _, r := range recipes {
			assert.False(t, r.IsFavorited)
			assert.False(t, r.IsInShoppingCart)
		}
	})
}

func TestRecipeListFilters(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()

	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	breakfast := testhelpers.CreateTag(t, db, "Breakfast", "breakfast")
	dinner := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	lunch := testhelpers.CreateTag(t, db, "Lunch", "lunch")

	r1 := testhelpers.CreateRecipe(t, db, alice, "Porridge", []models.Tag{breakfast})
	testhelpers.CreateRecipe(t, db, alice, "Steak", []models.Tag{dinner})
	r3 := testhelpers.CreateRecipe(t, db, bob, "Brunch", []models.Tag{breakfast, lunch})
	testhelpers.CreateRecipe(t, db, bob, "Soup", []models.Tag{lunch})
	testhelpers.AddFavorite(t, db, alice, r3)
	testhelpers.AddToCart(t, db, alice, r1)

	page := types.Pagination{Page: 1, Limit: 10}
	names := func(recipes []models.Recipe) []string {
		out := make([]string, 0, len(recipes))
		for _, r := range recipes {
			out = append(out, r.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		viewer *uuid.UUID
		filter types.RecipeFilter
		want   []string
	}{
		{"tags union", nil, types.RecipeFilter{Tags: []string{"breakfast", "dinner"}}, []string{"Brunch", "Porridge", "Steak"}},
		{"tag appears once", nil, types.RecipeFilter{Tags: []string{"breakfast", "lunch"}}, []string{"Brunch", "Porridge", "Soup"}},
		{"author", nil, types.RecipeFilter{AuthorID: &bob.ID}, []string{"Brunch", "Soup"}},
		{"author and tag", nil, types.RecipeFilter{AuthorID: &bob.ID, Tags: []string{"breakfast"}}, []string{"Brunch"}},
		{"favorited", &alice.ID, types.RecipeFilter{IsFavorited: true}, []string{"Brunch"}},
		{"in cart", &alice.ID, types.RecipeFilter{IsInShoppingCart: true}, []string{"Porridge"}},
		{"favorited anonymous", nil, types.RecipeFilter{IsFavorited: true}, []string{}},
		{"unknown tag", nil, types.RecipeFilter{Tags: []string{"nope"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes, count, err := svc.List(ctx, tt.viewer, tt.filter, page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(recipes))
			assert.Equal(t, int64(len(tt.want)), count)
		})
	}
}

func TestRecipeListPagination(t *testing.T) {
	db, svc := setupRecipeService(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, db, "chef")
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		testhelpers.CreateRecipe(t, db, author, name, nil)
	}

	recipes, count, err := svc.List(ctx, nil, types.RecipeFilter{}, types.Pagination{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	require.Len(t, recipes, 2)
	assert.Equal(t, "c", recipes[0].Name)
	assert.Equal(t, "d", recipes[1].Name)
}

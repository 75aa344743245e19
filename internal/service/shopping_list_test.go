package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/render"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestAggregateIngredients(t *testing.T) {
	list := service.AggregateIngredients([]service.IngredientLine{
		{Name: "flour", MeasurementUnit: "g", Amount: 200},
		{Name: "egg", MeasurementUnit: "pcs", Amount: 2},
		{Name: "flour", MeasurementUnit: "g", Amount: 100},
		{Name: "milk", MeasurementUnit: "ml", Amount: 250},
		{Name: "milk", MeasurementUnit: "cup", Amount: 1},
	})

	assert.Equal(t, []types.ShoppingListItem{
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 300},
		{Name: "egg", MeasurementUnit: "pcs", TotalAmount: 2},
		{Name: "milk", MeasurementUnit: "ml", TotalAmount: 251},
	}, list.Items)
}

func TestAggregateIngredientsEmpty(t *testing.T) {
	list := service.AggregateIngredients(nil)
	require.NotNil(t, list)
	assert.True(t, list.Empty())
	assert.NotNil(t, list.Items)
}

func TestShoppingListBuild(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewShoppingListService(db, render.TextRenderer{}, logging.Discard())
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "shopper")
	other := testhelpers.CreateUser(t, db, "other")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	sugar := testhelpers.CreateIngredient(t, db, "sugar", "g")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")

	cake := testhelpers.CreateRecipe(t, db, user, "Cake", nil,
		testhelpers.Line{Ingredient: flour, Amount: 200},
		testhelpers.Line{Ingredient: sugar, Amount: 100},
	)
	bread := testhelpers.CreateRecipe(t, db, user, "Bread", nil,
		testhelpers.Line{Ingredient: flour, Amount: 500},
		testhelpers.Line{Ingredient: egg, Amount: 1},
	)
	testhelpers.AddToCart(t, db, user, cake)
	testhelpers.AddToCart(t, db, user, bread)
	testhelpers.AddToCart(t, db, other, cake)

	list, err := svc.Build(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "shopper", list.Owner)

	totals := map[string]int{}
	for _, item := range list.Items {
		totals[item.Name] = item.TotalAmount
	}
	assert.Equal(t, map[string]int{"flour": 700, "sugar": 100, "egg": 1}, totals)
}

func TestShoppingListExport(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewShoppingListService(db, render.TextRenderer{}, logging.Discard())
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "shopper")

	doc, err := svc.Export(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "shopping_list.txt", doc.Filename)
	assert.Contains(t, string(doc.Body), "empty")

	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	recipe := testhelpers.CreateRecipe(t, db, user, "Brine", nil, testhelpers.Line{Ingredient: salt, Amount: 30})
	testhelpers.AddToCart(t, db, user, recipe)

	doc, err = svc.Export(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(doc.Body), "salt (g) - 30"))

	_, err = svc.Export(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestShoppingListExportUsesRenderer(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	renderer := new(mocks.MockRenderer)
	svc := service.NewShoppingListService(db, renderer, logging.Discard())
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "shopper")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	recipe := testhelpers.CreateRecipe(t, db, user, "Bread", nil, testhelpers.Line{Ingredient: flour, Amount: 500})
	testhelpers.AddToCart(t, db, user, recipe)

	want := &render.Document{Filename: "shopping_list.pdf", ContentType: "application/pdf", Body: []byte("%PDF")}
	renderer.On("Render", mock.Anything, mock.MatchedBy(func(list *types.ShoppingList) bool {
		return list.Owner == "shopper" && len(list.Items) == 1 && list.Items[0].TotalAmount == 500
	})).Return(want, nil).Once()

	doc, err := svc.Export(ctx, user.ID)
	require.NoError(t, err)
	assert.Same(t, want, doc)

	renderer.On("Render", mock.Anything, mock.Anything).Return(nil, errors.New("chrome crashed")).Once()
	_, err = svc.Export(ctx, user.ID)
	assert.ErrorContains(t, err, "chrome crashed")

	renderer.AssertExpectations(t)
}

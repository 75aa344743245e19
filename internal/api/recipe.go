package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes             service.IRecipeService
	memberships         service.IMembershipService
	shoppingList        service.IShoppingListService
	creationLimiter     middleware.Limiter
	modificationLimiter middleware.Limiter
}

func NewRecipeHandler(
	recipes service.IRecipeService,
	memberships service.IMembershipService,
	shoppingList service.IShoppingListService,
	creationLimiter, modificationLimiter middleware.Limiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:             recipes,
		memberships:         memberships,
		shoppingList:        shoppingList,
		creationLimiter:     creationLimiter,
		modificationLimiter: modificationLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	authorOnly := middleware.Authorize(middleware.AuthorOrReadOnly, h.recipes.AuthorOf)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/", middleware.RequireAuth(), middleware.RateLimit(h.creationLimiter, false), h.CreateRecipe)
		recipes.GET("/download_shopping_cart/", middleware.RequireAuth(), h.DownloadShoppingCart)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PATCH("/:id/", authorOnly, middleware.RateLimit(h.modificationLimiter, true), h.UpdateRecipe)
		recipes.DELETE("/:id/", authorOnly, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", middleware.RequireAuth(), h.addTo(service.Favorites))
		recipes.DELETE("/:id/favorite/", middleware.RequireAuth(), h.removeFrom(service.Favorites))
		recipes.POST("/:id/shopping_cart/", middleware.RequireAuth(), h.addTo(service.ShoppingCart))
		recipes.DELETE("/:id/shopping_cart/", middleware.RequireAuth(), h.removeFrom(service.ShoppingCart))
	}
}

// pathID parses the "id" path parameter. A malformed id is answered as not
// found.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, apperror.NotFound("resource", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

func queryFlag(c *gin.Context, name string) bool {
	switch strings.ToLower(c.Query(name)) {
	case "1", "true":
		return true
	}
	return false
}

// queryList returns the non-blank values of a repeated query parameter.
func queryList(c *gin.Context, name string) []string {
	var values []string
	for _, v := range c.QueryArray(name) {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func parseRecipeFilter(c *gin.Context) (types.RecipeFilter, error) {
	filter := types.RecipeFilter{
		Tags:             queryList(c, "tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apperror.ValidationFailed("author", fmt.Sprintf("%q is not a valid user id", raw))
		}
		filter.AuthorID = &id
	}
	return filter, nil
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter, err := parseRecipeFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page := parsePagination(c)

	recipes, count, err := h.recipes.List(c.Request.Context(), middleware.UserID(c), filter, page)
	if err != nil {
		writeError(c, err)
		return
	}

	results := make([]types.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		results = append(results, toRecipe(r, h.recipes))
	}
	c.JSON(http.StatusOK, newPage(c, page, count, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipe(*recipe, h.recipes))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), *middleware.UserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipe(*recipe, h.recipes))
}

// UpdateRecipe handles PATCH with a full payload; the ingredient and tag sets
// are replaced, not merged.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req types.RecipeWriteRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), *middleware.UserID(c), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipe(*recipe, h.recipes))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), *middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) addTo(m service.Membership) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		recipe, err := h.memberships.Add(c.Request.Context(), m, *middleware.UserID(c), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toShortRecipe(*recipe, h.recipes))
	}
}

func (h *RecipeHandler) removeFrom(m service.Membership) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := h.memberships.Remove(c.Request.Context(), m, *middleware.UserID(c), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	doc, err := h.shoppingList.Export(c.Request.Context(), *middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

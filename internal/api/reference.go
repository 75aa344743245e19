package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
)

// ReferenceHandler serves tags and ingredients. Neither is paginated.
type ReferenceHandler struct {
	tags        service.ITagService
	ingredients service.IIngredientService
}

func NewReferenceHandler(tags service.ITagService, ingredients service.IIngredientService) *ReferenceHandler {
	return &ReferenceHandler{tags: tags, ingredients: ingredients}
}

func (h *ReferenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tags/", h.ListTags)
	router.GET("/tags/:id/", h.GetTag)
	router.GET("/ingredients/", h.SearchIngredients)
	router.GET("/ingredients/:id/", h.GetIngredient)
}

func (h *ReferenceHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTags(tags))
}

func (h *ReferenceHandler) GetTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tag, err := h.tags.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTag(*tag))
}

func (h *ReferenceHandler) SearchIngredients(c *gin.Context) {
	items, err := h.ingredients.Search(c.Request.Context(), c.Query("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIngredients(items))
}

func (h *ReferenceHandler) GetIngredient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ing, err := h.ingredients.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIngredient(*ing))
}

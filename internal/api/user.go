package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	users  service.IUserService
	images ImageURLer
}

func NewUserHandler(users service.IUserService, images ImageURLer) *UserHandler {
	return &UserHandler{users: users, images: images}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	readOnly := middleware.Authorize(middleware.ReadOnly, nil)
	forbidden := func(c *gin.Context) {}

	users := router.Group("/users")
	{
		users.GET("/", h.ListUsers)
		users.GET("/me/", middleware.RequireAuth(), h.Me)
		users.GET("/subscriptions/", middleware.RequireAuth(), h.Subscriptions)
		users.GET("/:id/", middleware.RequireAuth(), h.GetUser)
		users.POST("/:id/subscribe/", middleware.RequireAuth(), h.Subscribe)
		users.DELETE("/:id/subscribe/", middleware.RequireAuth(), h.Unsubscribe)

		// Accounts are managed with the admin CLI only.
		for _, path := range []string{"/me/", "/:id/"} {
			users.PUT(path, readOnly, forbidden)
			users.PATCH(path, readOnly, forbidden)
			users.DELETE(path, readOnly, forbidden)
		}
	}
}

// recipesLimit reads recipes_limit; a missing, invalid or non-positive value
// means no limit.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n <= 0 {
		return -1
	}
	return n
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page := parsePagination(c)
	users, count, err := h.users.List(c.Request.Context(), middleware.UserID(c), page)
	if err != nil {
		writeError(c, err)
		return
	}
	results := make([]types.UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, toUser(u))
	}
	c.JSON(http.StatusOK, newPage(c, page, count, results))
}

func (h *UserHandler) Me(c *gin.Context) {
	viewer := middleware.UserID(c)
	user, err := h.users.Get(c.Request.Context(), viewer, *viewer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*user))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*user))
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page := parsePagination(c)
	subs, count, err := h.users.Subscriptions(c.Request.Context(), *middleware.UserID(c), page, recipesLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	results := make([]types.UserWithRecipesResponse, 0, len(subs))
	for _, s := range subs {
		results = append(results, toSubscription(s, h.images))
	}
	c.JSON(http.StatusOK, newPage(c, page, count, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	author, err := h.users.Subscribe(ctx, *middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	sub, err := h.users.AuthorWithRecipes(ctx, author, recipesLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSubscription(*sub, h.images))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.Unsubscribe(c.Request.Context(), *middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

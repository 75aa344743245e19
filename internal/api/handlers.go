package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the collaborators of the HTTP layer.
type Dependencies struct {
	DB                  *gorm.DB
	Auth                service.IAuthService
	Recipes             service.IRecipeService
	Memberships         service.IMembershipService
	ShoppingList        service.IShoppingListService
	Tags                service.ITagService
	Ingredients         service.IIngredientService
	Users               service.IUserService
	CreationLimiter     middleware.Limiter
	ModificationLimiter middleware.Limiter
}

// HealthCheck returns the health status of the API
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := database.HealthCheck(ctx, db); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	useJSONFieldNames()

	router.GET("/health", HealthCheck(deps.DB))

	api := router.Group("/api")
	api.GET("/health", HealthCheck(deps.DB))
	api.Use(middleware.Authenticate(deps.Auth))

	NewAuthHandler(deps.Auth).RegisterRoutes(api)
	NewUserHandler(deps.Users, deps.Recipes).RegisterRoutes(api)
	NewReferenceHandler(deps.Tags, deps.Ingredients).RegisterRoutes(api)
	NewRecipeHandler(deps.Recipes, deps.Memberships, deps.ShoppingList, deps.CreationLimiter, deps.ModificationLimiter).RegisterRoutes(api)
	RegisterRateLimitRoutes(api, deps.CreationLimiter)
}

// RegisterRateLimitRoutes registers endpoints for checking rate limit status
func RegisterRateLimitRoutes(router *gin.RouterGroup, creationLimiter middleware.Limiter) {
	rateLimits := router.Group("/rate-limits")
	rateLimits.Use(middleware.RequireAuth())
	{
		rateLimits.GET("/recipe-creation", func(c *gin.Context) {
			u, err := creationLimiter.Peek(c.Request.Context(), middleware.UserID(c).String())
			if err != nil {
				writeError(c, err)
				return
			}
			cfg := creationLimiter.Config()
			c.JSON(http.StatusOK, gin.H{
				"limit":      cfg.Limit,
				"remaining":  u.Remaining,
				"reset_time": u.Reset.Unix(),
				"window":     cfg.Window.String(),
			})
		})
	}
}

package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// SetupRouter configures the middleware chain and the application routes
func SetupRouter(cfg *config.Config, log logrus.FieldLogger, deps api.Dependencies) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.AllowedOrigins),
	)

	// Locally stored images are served by the API itself; S3 images are public.
	if cfg.StorageKind == config.StorageLocal && strings.HasPrefix(cfg.MediaURL, "/") {
		router.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	api.RegisterRoutes(router, deps)
	return router
}

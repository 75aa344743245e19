package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/render"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

const (
	tagCacheSize     = 256
	revokedCacheSize = 10000
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	log    logrus.FieldLogger
	db     *gorm.DB
	redis  *redis.Client
	router *gin.Engine
	http   *http.Server
}

// New wires every service on top of an open, migrated database.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) (*Server, error) {
	s := &Server{cfg: cfg, log: log, db: db}

	s.redis = connectRedis(ctx, cfg, log)

	revoker, err := s.newRevoker(ctx)
	if err != nil {
		return nil, err
	}

	store, err := newImageStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tags, err := service.NewTagService(db, tagCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag cache: %w", err)
	}

	images := service.NewImageService(store, log)
	s.router = router.SetupRouter(cfg, log, api.Dependencies{
		DB:                  db,
		Auth:                service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, revoker, log),
		Recipes:             service.NewRecipeService(db, images, log),
		Memberships:         service.NewMembershipService(db, log),
		ShoppingList:        service.NewShoppingListService(db, newRenderer(ctx, cfg, log), log),
		Tags:                tags,
		Ingredients:         service.NewIngredientService(db),
		Users:               service.NewUserService(db, log),
		CreationLimiter:     middleware.NewLimiter(s.redis, middleware.RecipeCreationConfig(), log),
		ModificationLimiter: middleware.NewLimiter(s.redis, middleware.RecipeModificationConfig(), log),
	})

	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// connectRedis returns nil when Redis is not configured or cannot be
// reached. Limiters then count locally and revocations stay in memory.
func connectRedis(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *redis.Client {
	if cfg.RedisURL == "" && cfg.RedisHost == "" {
		log.Warn("redis is not configured, using in-process rate limits and token revocation")
		return nil
	}
	client, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Warn("redis is unavailable, using in-process rate limits and token revocation")
		return nil
	}
	return client
}

// newRevoker keeps revocations in Redis when it answers; otherwise in
// process memory, which does not survive a restart.
func (s *Server) newRevoker(ctx context.Context) (service.TokenRevoker, error) {
	if s.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.redis.Ping(pingCtx).Err(); err == nil {
			return service.NewRedisRevoker(s.redis), nil
		}
	}
	revoker, err := service.NewMemoryRevoker(revokedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create token revocation cache: %w", err)
	}
	return revoker, nil
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.StorageKind == config.StorageS3 {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to configure s3: %w", err)
		}
		return storage.NewS3ImageStore(s3cfg), nil
	}
	store, err := storage.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// newRenderer prefers PDF and degrades to plain text when Chrome cannot start.
func newRenderer(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) render.Renderer {
	if cfg.DocumentFormat != config.FormatPDF {
		return render.TextRenderer{}
	}
	pdf := render.NewPDFRenderer(cfg.RenderTimeout, log)
	if err := pdf.Available(ctx); err != nil {
		log.WithError(err).Warn("headless chrome unavailable, shopping lists will be exported as text")
		return render.TextRenderer{}
	}
	return pdf
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains open connections and releases the Redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
